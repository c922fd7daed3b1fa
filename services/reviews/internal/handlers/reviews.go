package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/rpg-platform/internal/platform/api"
	"github.com/example/rpg-platform/internal/platform/auth"
	"github.com/example/rpg-platform/services/reviews/internal/service"
	"github.com/example/rpg-platform/services/reviews/internal/store"
)

type submitReviewRequest struct {
	Rating float64 `json:"rating"`
}

// SubmitReview handles PUT /v1/items/{item_id}/review. Submitting twice
// for the same item updates the caller's existing review.
func SubmitReview(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}
		itemID := strings.TrimSpace(chi.URLParam(r, "item_id"))
		if itemID == "" {
			api.BadRequest(w, "MISSING_ID", "item_id is required", "", nil)
			return
		}

		var req submitReviewRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}

		sum, err := svc.SubmitReview(r.Context(), userID, itemID, req.Rating)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, sum)
	}
}

// DeleteReview handles DELETE /v1/items/{item_id}/review.
func DeleteReview(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}
		itemID := strings.TrimSpace(chi.URLParam(r, "item_id"))
		if itemID == "" {
			api.BadRequest(w, "MISSING_ID", "item_id is required", "", nil)
			return
		}

		sum, err := svc.DeleteReview(r.Context(), userID, itemID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, sum)
	}
}

// GetItemRatings handles GET /v1/items/{item_id}/ratings, returning the
// aggregate summary plus the requesting user's own rating if present.
func GetItemRatings(svc *service.Service, reviews store.ReviewStore) http.HandlerFunc {
	type response struct {
		service.Summary
		UserRating *float64 `json:"user_rating,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		itemID := strings.TrimSpace(chi.URLParam(r, "item_id"))
		if itemID == "" {
			api.BadRequest(w, "MISSING_ID", "item_id is required", "", nil)
			return
		}

		sum, err := svc.ItemSummary(r.Context(), itemID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp := response{Summary: sum}

		if uid := strings.TrimSpace(r.URL.Query().Get("user_id")); uid != "" {
			if rev, ok, err := reviews.Get(r.Context(), uid, itemID); err == nil && ok {
				resp.UserRating = &rev.Rating
			}
		}
		api.WriteJSON(w, http.StatusOK, resp)
	}
}

// RecentReviews handles GET /v1/reviews?limit=.
func RecentReviews(reviews store.ReviewStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		out, err := reviews.ListRecent(r.Context(), limit)
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, out)
	}
}
