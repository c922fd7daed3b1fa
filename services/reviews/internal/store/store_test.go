package store

import (
	"context"
	"errors"
	"testing"
)

func TestItemStore_CreateAndGet(t *testing.T) {
	s := NewInMemoryItemStore()
	ctx := context.Background()

	created, err := s.Create(ctx, Item{Title: "Tomb of the Serpent King", Genre: "dungeon", System: "OSR"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("expected generated id and timestamp, got %+v", created)
	}

	got, err := s.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != created.Title {
		t.Fatalf("got %+v", got)
	}
}

func TestItemStore_GetUnknown(t *testing.T) {
	s := NewInMemoryItemStore()
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestItemStore_ListFilters(t *testing.T) {
	s := NewInMemoryItemStore()
	ctx := context.Background()
	_, _ = s.Create(ctx, Item{Title: "Crypt Crawl", Genre: "dungeon", System: "OSR", IsFeatured: true})
	_, _ = s.Create(ctx, Item{Title: "Star Voyage", Genre: "scifi", System: "Traveller"})
	_, _ = s.Create(ctx, Item{Title: "Deep Crypt", Genre: "dungeon", System: "5e"})

	byGenre, _ := s.List(ctx, ItemFilter{Genre: "dungeon"})
	if len(byGenre) != 2 {
		t.Fatalf("genre filter: expected 2, got %d", len(byGenre))
	}

	bySystem, _ := s.List(ctx, ItemFilter{System: "traveller"})
	if len(bySystem) != 1 || bySystem[0].Title != "Star Voyage" {
		t.Fatalf("system filter: got %+v", bySystem)
	}

	bySearch, _ := s.List(ctx, ItemFilter{Search: "crypt"})
	if len(bySearch) != 2 {
		t.Fatalf("search filter: expected 2, got %d", len(bySearch))
	}

	featured := true
	byFeatured, _ := s.List(ctx, ItemFilter{Featured: &featured})
	if len(byFeatured) != 1 || byFeatured[0].Title != "Crypt Crawl" {
		t.Fatalf("featured filter: got %+v", byFeatured)
	}
	unfeatured := false
	byUnfeatured, _ := s.List(ctx, ItemFilter{Featured: &unfeatured})
	if len(byUnfeatured) != 2 {
		t.Fatalf("unfeatured filter: expected 2, got %d", len(byUnfeatured))
	}

	limited, _ := s.List(ctx, ItemFilter{Limit: 1})
	if len(limited) != 1 {
		t.Fatalf("limit: expected 1, got %d", len(limited))
	}

	if n, _ := s.Count(ctx); n != 3 {
		t.Fatalf("count: expected 3, got %d", n)
	}
}

func TestReviewStore_UpsertReturnsPreviousRating(t *testing.T) {
	s := NewInMemoryReviewStore()
	ctx := context.Background()

	old, first, err := s.Upsert(ctx, Review{AuthorID: "a", ItemID: "item-1", Rating: 4})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if old != nil {
		t.Fatalf("expected no previous rating, got %v", *old)
	}

	old, second, err := s.Upsert(ctx, Review{AuthorID: "a", ItemID: "item-1", Rating: 2})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if old == nil || *old != 4 {
		t.Fatalf("expected previous rating 4, got %v", old)
	}
	if second.ID != first.ID {
		t.Fatal("overwrite must keep the review id")
	}
	if n, _ := s.Count(ctx); n != 1 {
		t.Fatalf("expected one active review per pair, got %d", n)
	}
}

func TestReviewStore_Delete(t *testing.T) {
	s := NewInMemoryReviewStore()
	ctx := context.Background()
	_, _, _ = s.Upsert(ctx, Review{AuthorID: "a", ItemID: "item-1", Rating: 3.5})

	old, err := s.Delete(ctx, "a", "item-1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if old != 3.5 {
		t.Fatalf("expected deleted rating 3.5, got %v", old)
	}

	if _, err := s.Delete(ctx, "a", "item-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestReviewStore_CountDistinctAuthors(t *testing.T) {
	s := NewInMemoryReviewStore()
	ctx := context.Background()
	_, _, _ = s.Upsert(ctx, Review{AuthorID: "a", ItemID: "item-1", Rating: 5})
	_, _, _ = s.Upsert(ctx, Review{AuthorID: "a", ItemID: "item-2", Rating: 4})
	_, _, _ = s.Upsert(ctx, Review{AuthorID: "b", ItemID: "item-1", Rating: 3})

	if n, _ := s.CountDistinctAuthors(ctx); n != 2 {
		t.Fatalf("expected 2 distinct authors, got %d", n)
	}
	if n, _ := s.Count(ctx); n != 3 {
		t.Fatalf("expected 3 reviews, got %d", n)
	}
}
