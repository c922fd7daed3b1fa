package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresReviewStore persists reviews in Postgres. The (author_id, item_id)
// unique constraint enforces one active review per pair.
type PostgresReviewStore struct {
	pool *pgxpool.Pool
}

func NewPostgresReviewStore(pool *pgxpool.Pool) *PostgresReviewStore {
	return &PostgresReviewStore{pool: pool}
}

func (s *PostgresReviewStore) Get(ctx context.Context, authorID, itemID string) (Review, bool, error) {
	const q = `SELECT id, author_id, item_id, rating, created_at, updated_at
	           FROM reviews WHERE author_id = $1 AND item_id = $2`
	var r Review
	err := s.pool.QueryRow(ctx, q, authorID, itemID).
		Scan(&r.ID, &r.AuthorID, &r.ItemID, &r.Rating, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Review{}, false, nil
	}
	if err != nil {
		return Review{}, false, err
	}
	return r, true, nil
}

// Upsert reads the prior rating and overwrites it in one transaction so the
// caller gets a consistent (old, new) pair even under concurrent submits.
func (s *PostgresReviewStore) Upsert(ctx context.Context, r Review) (*float64, Review, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, Review{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var old *float64
	var prev float64
	err = tx.QueryRow(ctx,
		`SELECT rating FROM reviews WHERE author_id = $1 AND item_id = $2 FOR UPDATE`,
		r.AuthorID, r.ItemID).Scan(&prev)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// first review for this pair
	case err != nil:
		return nil, Review{}, err
	default:
		old = &prev
	}

	const q = `INSERT INTO reviews (id, author_id, item_id, rating)
	           VALUES (gen_random_uuid()::text, $1, $2, $3)
	           ON CONFLICT (author_id, item_id) DO UPDATE SET
	             rating = EXCLUDED.rating,
	             updated_at = now()
	           RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, q, r.AuthorID, r.ItemID, r.Rating).
		Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, Review{}, fmt.Errorf("upsert review: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, Review{}, err
	}
	return old, r, nil
}

func (s *PostgresReviewStore) Delete(ctx context.Context, authorID, itemID string) (float64, error) {
	const q = `DELETE FROM reviews WHERE author_id = $1 AND item_id = $2 RETURNING rating`
	var old float64
	err := s.pool.QueryRow(ctx, q, authorID, itemID).Scan(&old)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return old, nil
}

func (s *PostgresReviewStore) ListRecent(ctx context.Context, limit int) ([]Review, error) {
	if limit <= 0 {
		limit = 20
	} else if limit > 100 {
		limit = 100
	}
	const q = `SELECT id, author_id, item_id, rating, created_at, updated_at
	           FROM reviews ORDER BY created_at DESC, id ASC LIMIT $1`
	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []Review{}
	for rows.Next() {
		var r Review
		if err := rows.Scan(&r.ID, &r.AuthorID, &r.ItemID, &r.Rating, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func (s *PostgresReviewStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *PostgresReviewStore) CountDistinctAuthors(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(DISTINCT author_id) FROM reviews`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
