package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/rpg-platform/internal/platform/api"
	"github.com/example/rpg-platform/internal/platform/auth"
	"github.com/example/rpg-platform/services/forum/internal/store"
	"github.com/example/rpg-platform/services/forum/internal/tracker"
)

type createThreadRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CreateThread handles POST /v1/forum/categories/{category_id}/threads.
func CreateThread(tr *tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}
		categoryID := strings.TrimSpace(chi.URLParam(r, "category_id"))
		if categoryID == "" {
			api.BadRequest(w, "MISSING_ID", "category_id is required", "", nil)
			return
		}

		var req createThreadRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}

		th, err := tr.CreateThread(r.Context(), store.Thread{
			CategoryID: categoryID,
			AuthorID:   userID,
			Title:      strings.TrimSpace(req.Title),
		}, req.Content)
		if err != nil {
			writeTrackerError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, th)
	}
}

// ListThreads handles GET /v1/forum/categories/{category_id}/threads.
// Pinned threads sort first, then most recent activity.
func ListThreads(st store.ForumStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID := strings.TrimSpace(chi.URLParam(r, "category_id"))
		if categoryID == "" {
			api.BadRequest(w, "MISSING_ID", "category_id is required", "", nil)
			return
		}
		if _, err := st.GetCategory(r.Context(), categoryID); err != nil {
			writeTrackerError(w, err)
			return
		}

		limit, offset := queryPage(r, 20)
		threads, err := st.ListThreads(r.Context(), categoryID, limit, offset)
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, threads)
	}
}

// GetThread handles GET /v1/forum/threads/{thread_id}: thread metadata
// merged with the live counter snapshot.
func GetThread(st store.ForumStore, tr *tracker.Tracker) http.HandlerFunc {
	type response struct {
		store.Thread
		Activity tracker.ThreadSummary `json:"activity"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "thread_id"))
		if id == "" {
			api.BadRequest(w, "MISSING_ID", "thread_id is required", "", nil)
			return
		}
		th, err := st.GetThread(r.Context(), id)
		if err != nil {
			writeTrackerError(w, err)
			return
		}
		sum, err := tr.Describe(r.Context(), id)
		if err != nil {
			writeTrackerError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, response{Thread: th, Activity: sum})
	}
}

type moderateThreadRequest struct {
	Locked *bool `json:"locked,omitempty"`
	Pinned *bool `json:"pinned,omitempty"`
}

// ModerateThread handles PATCH /v1/forum/threads/{thread_id} (admin
// only, enforced by middleware). Lock and pin flags can change in one
// call.
func ModerateThread(tr *tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "thread_id"))
		if id == "" {
			api.BadRequest(w, "MISSING_ID", "thread_id is required", "", nil)
			return
		}

		var req moderateThreadRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}
		if req.Locked == nil && req.Pinned == nil {
			api.BadRequest(w, "NO_CHANGES", "locked or pinned is required", "", nil)
			return
		}

		var th store.Thread
		var err error
		if req.Locked != nil {
			th, err = tr.SetLocked(r.Context(), id, *req.Locked)
			if err != nil {
				writeTrackerError(w, err)
				return
			}
		}
		if req.Pinned != nil {
			th, err = tr.SetPinned(r.Context(), id, *req.Pinned)
			if err != nil {
				writeTrackerError(w, err)
				return
			}
		}
		api.WriteJSON(w, http.StatusOK, th)
	}
}

func queryPage(r *http.Request, defaultLimit int) (limit, offset int) {
	limit, offset = defaultLimit, 0
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
	return limit, offset
}
