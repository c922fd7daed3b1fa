package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresItemStore persists catalog items in Postgres. The rpg_items row
// also carries the denormalized rating_count/rating_sum columns owned by
// the aggregate store.
type PostgresItemStore struct {
	pool *pgxpool.Pool
}

func NewPostgresItemStore(pool *pgxpool.Pool) *PostgresItemStore {
	return &PostgresItemStore{pool: pool}
}

func (s *PostgresItemStore) Create(ctx context.Context, it Item) (Item, error) {
	const q = `INSERT INTO rpg_items (id, title, genre, system, description, is_featured, rating_count, rating_sum)
	           VALUES (COALESCE(NULLIF($1, ''), gen_random_uuid()::text), $2, $3, $4, $5, $6, 0, 0)
	           RETURNING id, created_at`
	if err := s.pool.QueryRow(ctx, q, it.ID, it.Title, it.Genre, it.System, it.Description, it.IsFeatured).
		Scan(&it.ID, &it.CreatedAt); err != nil {
		return Item{}, fmt.Errorf("insert item: %w", err)
	}
	return it, nil
}

func (s *PostgresItemStore) Get(ctx context.Context, id string) (Item, error) {
	const q = `SELECT id, title, genre, system, description, is_featured, created_at
	           FROM rpg_items WHERE id = $1`
	var it Item
	err := s.pool.QueryRow(ctx, q, id).
		Scan(&it.ID, &it.Title, &it.Genre, &it.System, &it.Description, &it.IsFeatured, &it.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, err
	}
	return it, nil
}

func (s *PostgresItemStore) List(ctx context.Context, f ItemFilter) ([]Item, error) {
	q := `SELECT id, title, genre, system, description, is_featured, created_at FROM rpg_items`
	var (
		conds []string
		args  []any
	)
	if f.Genre != "" {
		args = append(args, f.Genre)
		conds = append(conds, fmt.Sprintf("lower(genre) = lower($%d)", len(args)))
	}
	if f.System != "" {
		args = append(args, f.System)
		conds = append(conds, fmt.Sprintf("lower(system) = lower($%d)", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, fmt.Sprintf("title ILIKE $%d", len(args)))
	}
	if f.Featured != nil {
		args = append(args, *f.Featured)
		conds = append(conds, fmt.Sprintf("is_featured = $%d", len(args)))
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC, id ASC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Title, &it.Genre, &it.System, &it.Description, &it.IsFeatured, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *PostgresItemStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM rpg_items`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
