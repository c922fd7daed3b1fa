package aggregate

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps aggregates on the rpg_items row itself
// (rating_count, rating_sum). The single-row UPDATE gives the same
// per-item serialization the memory store gets from its entry mutex:
// Postgres row locking linearizes same-item writers while different
// items' rows never contend.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Register is satisfied by item insertion, which creates the row with
// zeroed counters. It only verifies the row exists.
func (s *PostgresStore) Register(ctx context.Context, itemID string) error {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM rpg_items WHERE id = $1)`, itemID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, itemID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE rpg_items SET rating_count = 0, rating_sum = 0 WHERE id = $1`, itemID)
	return err
}

func (s *PostgresStore) ApplyReview(ctx context.Context, itemID string, oldRating, newRating *float64) (Aggregate, error) {
	countDelta, sumDelta := deltas(oldRating, newRating)

	const q = `UPDATE rpg_items SET
	             rating_count = rating_count + $2,
	             rating_sum   = CASE WHEN rating_count + $2 = 0 THEN 0 ELSE rating_sum + $3 END
	           WHERE id = $1 AND rating_count + $2 >= 0
	           RETURNING rating_count, rating_sum`
	var agg Aggregate
	agg.ItemID = itemID
	err := s.pool.QueryRow(ctx, q, itemID, countDelta, sumDelta).Scan(&agg.Count, &agg.Sum)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the item vanished or the delta would drive the count
		// negative; distinguish so the caller can retry a Conflict.
		var exists bool
		if err2 := s.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM rpg_items WHERE id = $1)`, itemID).Scan(&exists); err2 != nil {
			return Aggregate{}, err2
		}
		if !exists {
			return Aggregate{}, ErrNotFound
		}
		return Aggregate{}, ErrConflict
	}
	if err != nil {
		return Aggregate{}, err
	}
	return agg, nil
}

func (s *PostgresStore) Read(ctx context.Context, itemID string) (Aggregate, error) {
	const q = `SELECT rating_count, rating_sum FROM rpg_items WHERE id = $1`
	agg := Aggregate{ItemID: itemID}
	err := s.pool.QueryRow(ctx, q, itemID).Scan(&agg.Count, &agg.Sum)
	if errors.Is(err, pgx.ErrNoRows) {
		return Aggregate{}, ErrNotFound
	}
	if err != nil {
		return Aggregate{}, err
	}
	return agg, nil
}
