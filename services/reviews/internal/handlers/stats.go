package handlers

import (
	"net/http"

	"github.com/example/rpg-platform/internal/platform/api"
	"github.com/example/rpg-platform/services/reviews/internal/stats"
)

// GetStats handles GET /v1/stats.
func GetStats(p *stats.Projector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := p.Snapshot(r.Context())
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, snap)
	}
}
