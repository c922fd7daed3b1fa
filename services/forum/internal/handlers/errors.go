package handlers

import (
	"errors"
	"net/http"

	"github.com/example/rpg-platform/internal/platform/api"
	"github.com/example/rpg-platform/services/forum/internal/store"
	"github.com/example/rpg-platform/services/forum/internal/tracker"
)

func writeTrackerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		api.NotFound(w, "NOT_FOUND", "not found", "")
	case errors.Is(err, store.ErrThreadLocked):
		api.Locked(w, "THREAD_LOCKED", "thread is locked", "")
	case errors.Is(err, tracker.ErrEmptyContent):
		api.BadRequest(w, "EMPTY_CONTENT", "content must not be empty", "", nil)
	default:
		api.Internal(w, "")
	}
}
