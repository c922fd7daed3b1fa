package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/rpg-platform/internal/platform/api"
	"github.com/example/rpg-platform/internal/platform/auth"
	"github.com/example/rpg-platform/services/forum/internal/store"
	"github.com/example/rpg-platform/services/forum/internal/tracker"
)

type createPostRequest struct {
	Content string `json:"content"`
}

type createPostResponse struct {
	Post   store.Post            `json:"post"`
	Thread tracker.ThreadSummary `json:"thread"`
}

// CreatePost handles POST /v1/forum/threads/{thread_id}/posts. The
// response includes the updated thread counters so clients can refresh
// their listing row without a second request.
func CreatePost(tr *tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
			return
		}
		threadID := strings.TrimSpace(chi.URLParam(r, "thread_id"))
		if threadID == "" {
			api.BadRequest(w, "MISSING_ID", "thread_id is required", "", nil)
			return
		}

		var req createPostRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}

		p, sum, err := tr.RecordPost(r.Context(), store.Post{
			ThreadID: threadID,
			AuthorID: userID,
			Content:  req.Content,
		})
		if err != nil {
			writeTrackerError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, createPostResponse{Post: p, Thread: sum})
	}
}

// ListPosts handles GET /v1/forum/threads/{thread_id}/posts.
func ListPosts(st store.ForumStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threadID := strings.TrimSpace(chi.URLParam(r, "thread_id"))
		if threadID == "" {
			api.BadRequest(w, "MISSING_ID", "thread_id is required", "", nil)
			return
		}

		limit, offset := queryPage(r, 50)
		posts, err := st.ListPosts(r.Context(), threadID, limit, offset)
		if err != nil {
			writeTrackerError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, posts)
	}
}
