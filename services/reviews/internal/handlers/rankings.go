package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/rpg-platform/internal/platform/api"
	"github.com/example/rpg-platform/services/reviews/internal/ranking"
	"github.com/example/rpg-platform/services/reviews/internal/service"
)

type rankingsResponse struct {
	Genre string          `json:"genre"`
	Items []ranking.Entry `json:"items"`
}

// GetRankings handles GET /v1/rankings/{genre}?limit=&offset=.
// An unknown genre yields an empty list; falling back to "overall" is
// the client's choice, not the server's.
func GetRankings(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		genre := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "genre")))
		if genre == "" {
			api.BadRequest(w, "MISSING_GENRE", "genre is required", "", nil)
			return
		}

		limit, offset := 10, 0
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		if v := r.URL.Query().Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		items := svc.Rankings(r.Context(), genre, limit, offset)
		api.WriteJSON(w, http.StatusOK, rankingsResponse{Genre: genre, Items: items})
	}
}
