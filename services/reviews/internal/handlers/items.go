package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/rpg-platform/internal/platform/api"
	"github.com/example/rpg-platform/services/reviews/internal/service"
	"github.com/example/rpg-platform/services/reviews/internal/store"
)

type createItemRequest struct {
	Title       string `json:"title"`
	Genre       string `json:"genre"`
	System      string `json:"system"`
	Description string `json:"description"`
	IsFeatured  bool   `json:"is_featured"`
}

// CreateItem handles POST /v1/items (admin only, enforced by middleware).
func CreateItem(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createItemRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			api.BadRequest(w, "MISSING_TITLE", "title is required", "", nil)
			return
		}
		if strings.TrimSpace(req.Genre) == "" {
			api.BadRequest(w, "MISSING_GENRE", "genre is required", "", nil)
			return
		}

		created, err := svc.CreateItem(r.Context(), store.Item{
			Title:       strings.TrimSpace(req.Title),
			Genre:       strings.ToLower(strings.TrimSpace(req.Genre)),
			System:      strings.TrimSpace(req.System),
			Description: req.Description,
			IsFeatured:  req.IsFeatured,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

// ListItems handles GET /v1/items with optional genre/system/search/featured
// filters.
func ListItems(items store.ItemStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := store.ItemFilter{
			Genre:  strings.TrimSpace(q.Get("genre")),
			System: strings.TrimSpace(q.Get("system")),
			Search: strings.TrimSpace(q.Get("search")),
		}
		if v := q.Get("featured"); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				f.Featured = &b
			}
		}
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				f.Limit = n
			}
		}

		out, err := items.List(r.Context(), f)
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, out)
	}
}

// GetItem handles GET /v1/items/{item_id}, returning the item with its
// current rating summary merged in.
func GetItem(items store.ItemStore, svc *service.Service) http.HandlerFunc {
	type response struct {
		store.Item
		service.Summary
	}
	return func(w http.ResponseWriter, r *http.Request) {
		itemID := strings.TrimSpace(chi.URLParam(r, "item_id"))
		if itemID == "" {
			api.BadRequest(w, "MISSING_ID", "item_id is required", "", nil)
			return
		}

		it, err := items.Get(r.Context(), itemID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		sum, err := svc.ItemSummary(r.Context(), itemID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, response{Item: it, Summary: sum})
	}
}
