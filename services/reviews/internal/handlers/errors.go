package handlers

import (
	"errors"
	"net/http"

	"github.com/example/rpg-platform/internal/platform/api"
	"github.com/example/rpg-platform/services/reviews/internal/aggregate"
	"github.com/example/rpg-platform/services/reviews/internal/service"
	"github.com/example/rpg-platform/services/reviews/internal/store"
)

// writeServiceError maps core errors to the API envelope. Anything not in
// the expected taxonomy is an internal error.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound) || errors.Is(err, aggregate.ErrNotFound):
		api.NotFound(w, "NOT_FOUND", "item or review not found", "")
	case errors.Is(err, service.ErrInvalidRating):
		api.BadRequest(w, "INVALID_RATING", err.Error(), "", nil)
	case errors.Is(err, aggregate.ErrConflict):
		api.Conflict(w, "CONFLICT", "concurrent change, please retry", "", nil)
	default:
		api.Internal(w, "")
	}
}
