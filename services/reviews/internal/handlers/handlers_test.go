package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/example/rpg-platform/internal/platform/auth"
	"github.com/example/rpg-platform/services/reviews/internal/aggregate"
	"github.com/example/rpg-platform/services/reviews/internal/config"
	"github.com/example/rpg-platform/services/reviews/internal/ranking"
	"github.com/example/rpg-platform/services/reviews/internal/service"
	"github.com/example/rpg-platform/services/reviews/internal/stats"
	"github.com/example/rpg-platform/services/reviews/internal/store"
)

type fixture struct {
	svc     *service.Service
	items   store.ItemStore
	reviews store.ReviewStore
	engine  *ranking.Engine
}

func newFixture() *fixture {
	items := store.NewInMemoryItemStore()
	reviews := store.NewInMemoryReviewStore()
	engine := ranking.NewEngine(ranking.Config{PriorMean: 3.0, PriorWeight: 5.0})
	svc := service.New(service.Options{
		Ranking:    config.Ranking{PriorMean: 3.0, PriorWeight: 5.0, RatingMin: 1, RatingMax: 5},
		Items:      items,
		Reviews:    reviews,
		Aggregates: aggregate.NewMemoryStore(),
		Engine:     engine,
	})
	return &fixture{svc: svc, items: items, reviews: reviews, engine: engine}
}

// setupReq builds a request with chi URL params and optional user_id in context.
func setupReq(method, url, body string, params map[string]string, userID string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if userID != "" {
		ctx = auth.WithUserID(ctx, userID)
	}
	return req.WithContext(ctx)
}

func (fx *fixture) createItem(t *testing.T, title, genre string) store.Item {
	t.Helper()
	it, err := fx.svc.CreateItem(context.Background(), store.Item{Title: title, Genre: genre})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	return it
}

func TestSubmitReview_OK(t *testing.T) {
	fx := newFixture()
	it := fx.createItem(t, "Curse of the Amber Throne", "fantasy")

	req := setupReq(http.MethodPut, "/v1/items/"+it.ID+"/review", `{"rating":5}`,
		map[string]string{"item_id": it.ID}, "user-a")
	rr := httptest.NewRecorder()
	SubmitReview(fx.svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var sum service.Summary
	if err := json.NewDecoder(rr.Body).Decode(&sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.RatingCount != 1 || sum.AverageRating != 5.0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestSubmitReview_Unauthorized(t *testing.T) {
	fx := newFixture()
	it := fx.createItem(t, "Adventure", "fantasy")

	req := setupReq(http.MethodPut, "/v1/items/"+it.ID+"/review", `{"rating":4}`,
		map[string]string{"item_id": it.ID}, "")
	rr := httptest.NewRecorder()
	SubmitReview(fx.svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestSubmitReview_OutOfBoundsRating(t *testing.T) {
	fx := newFixture()
	it := fx.createItem(t, "Adventure", "fantasy")

	req := setupReq(http.MethodPut, "/v1/items/"+it.ID+"/review", `{"rating":9}`,
		map[string]string{"item_id": it.ID}, "user-a")
	rr := httptest.NewRecorder()
	SubmitReview(fx.svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestSubmitReview_UnknownItem(t *testing.T) {
	fx := newFixture()

	req := setupReq(http.MethodPut, "/v1/items/nope/review", `{"rating":3}`,
		map[string]string{"item_id": "nope"}, "user-a")
	rr := httptest.NewRecorder()
	SubmitReview(fx.svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestDeleteReview_OK(t *testing.T) {
	fx := newFixture()
	it := fx.createItem(t, "Adventure", "fantasy")
	_, _ = fx.svc.SubmitReview(context.Background(), "user-a", it.ID, 4)

	req := setupReq(http.MethodDelete, "/v1/items/"+it.ID+"/review", "",
		map[string]string{"item_id": it.ID}, "user-a")
	rr := httptest.NewRecorder()
	DeleteReview(fx.svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var sum service.Summary
	_ = json.NewDecoder(rr.Body).Decode(&sum)
	if sum.RatingCount != 0 {
		t.Fatalf("expected empty aggregate after delete, got %+v", sum)
	}
}

func TestDeleteReview_NoReview(t *testing.T) {
	fx := newFixture()
	it := fx.createItem(t, "Adventure", "fantasy")

	req := setupReq(http.MethodDelete, "/v1/items/"+it.ID+"/review", "",
		map[string]string{"item_id": it.ID}, "user-a")
	rr := httptest.NewRecorder()
	DeleteReview(fx.svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestGetItemRatings_IncludesUserRating(t *testing.T) {
	fx := newFixture()
	it := fx.createItem(t, "Adventure", "fantasy")
	_, _ = fx.svc.SubmitReview(context.Background(), "user-a", it.ID, 4.5)

	req := setupReq(http.MethodGet, "/v1/items/"+it.ID+"/ratings?user_id=user-a", "",
		map[string]string{"item_id": it.ID}, "")
	rr := httptest.NewRecorder()
	GetItemRatings(fx.svc, fx.reviews).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp struct {
		service.Summary
		UserRating *float64 `json:"user_rating"`
	}
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.UserRating == nil || *resp.UserRating != 4.5 {
		t.Fatalf("expected user rating 4.5, got %+v", resp.UserRating)
	}
}

func TestGetRankings_OrderAndShape(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	a := fx.createItem(t, "A", "fantasy")
	b := fx.createItem(t, "B", "fantasy")
	_, _ = fx.svc.SubmitReview(ctx, "u1", a.ID, 5)
	_, _ = fx.svc.SubmitReview(ctx, "u2", b.ID, 2)

	req := setupReq(http.MethodGet, "/v1/rankings/fantasy?limit=10", "",
		map[string]string{"genre": "fantasy"}, "")
	rr := httptest.NewRecorder()
	GetRankings(fx.svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp rankingsResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Genre != "fantasy" || len(resp.Items) != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Items[0].ItemID != a.ID {
		t.Fatalf("expected higher rated item first, got %s", resp.Items[0].ItemID)
	}
}

func TestGetRankings_UnknownGenreEmptyList(t *testing.T) {
	fx := newFixture()

	req := setupReq(http.MethodGet, "/v1/rankings/unknown", "",
		map[string]string{"genre": "unknown"}, "")
	rr := httptest.NewRecorder()
	GetRankings(fx.svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown genre, got %d", rr.Code)
	}
	var resp rankingsResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if len(resp.Items) != 0 {
		t.Fatalf("expected empty items for unknown genre, got %d", len(resp.Items))
	}
}

func TestListItems_FeaturedFilter(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	featured, err := fx.svc.CreateItem(ctx, store.Item{Title: "Spotlight Saga", Genre: "fantasy", IsFeatured: true})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	fx.createItem(t, "Backlist Crawl", "fantasy")
	fx.createItem(t, "Backlist Voyage", "scifi")

	req := setupReq(http.MethodGet, "/v1/items?featured=true&limit=6", "", nil, "")
	rr := httptest.NewRecorder()
	ListItems(fx.items).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var out []store.Item
	_ = json.NewDecoder(rr.Body).Decode(&out)
	if len(out) != 1 || out[0].ID != featured.ID || !out[0].IsFeatured {
		t.Fatalf("expected only the featured item, got %+v", out)
	}
}

func TestCreateItem_Validation(t *testing.T) {
	fx := newFixture()

	req := setupReq(http.MethodPost, "/v1/items", `{"genre":"fantasy"}`, nil, "admin-1")
	rr := httptest.NewRecorder()
	CreateItem(fx.svc).ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing title, got %d", rr.Code)
	}
}

type fixedPosts int

func (f fixedPosts) Count(context.Context) (int, error) { return int(f), nil }

func TestGetStats(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	it := fx.createItem(t, "Adventure", "fantasy")
	_, _ = fx.svc.SubmitReview(ctx, "user-a", it.ID, 4)

	p := stats.New(fx.engine, fx.reviews, fixedPosts(3), 0)
	req := setupReq(http.MethodGet, "/v1/stats", "", nil, "")
	rr := httptest.NewRecorder()
	GetStats(p).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var snap stats.Snapshot
	_ = json.NewDecoder(rr.Body).Decode(&snap)
	if snap.RPGCount != 1 || snap.ReviewCount != 1 || snap.UserCount != 1 || snap.ForumPostCount != 3 {
		t.Fatalf("unexpected stats: %+v", snap)
	}
}
