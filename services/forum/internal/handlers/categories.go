package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/rpg-platform/internal/platform/api"
	"github.com/example/rpg-platform/services/forum/internal/store"
)

// ListCategories handles GET /v1/forum/categories.
func ListCategories(st store.ForumStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cats, err := st.ListCategories(r.Context())
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, cats)
	}
}

// GetCategory handles GET /v1/forum/categories/{category_id}.
func GetCategory(st store.ForumStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "category_id"))
		if id == "" {
			api.BadRequest(w, "MISSING_ID", "category_id is required", "", nil)
			return
		}
		c, err := st.GetCategory(r.Context(), id)
		if err != nil {
			writeTrackerError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, c)
	}
}
