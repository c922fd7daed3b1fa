package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresForumStore persists the forum in Postgres. InsertPost runs the
// post insert and the thread counter update in one transaction so the two
// can never diverge.
type PostgresForumStore struct {
	pool *pgxpool.Pool
}

func NewPostgresForumStore(pool *pgxpool.Pool) *PostgresForumStore {
	return &PostgresForumStore{pool: pool}
}

const threadColumns = `id, category_id, author_id, title, is_pinned, is_locked,
	reply_count, last_activity_at, created_at`

func scanThread(row pgx.Row) (Thread, error) {
	var th Thread
	err := row.Scan(&th.ID, &th.CategoryID, &th.AuthorID, &th.Title,
		&th.IsPinned, &th.IsLocked, &th.ReplyCount, &th.LastActivityAt, &th.CreatedAt)
	return th, err
}

func (s *PostgresForumStore) ListCategories(ctx context.Context) ([]Category, error) {
	const q = `SELECT id, name, description, sort_order
	           FROM forum_categories ORDER BY sort_order, id`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresForumStore) GetCategory(ctx context.Context, id string) (Category, error) {
	const q = `SELECT id, name, description, sort_order FROM forum_categories WHERE id = $1`
	var c Category
	err := s.pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.Name, &c.Description, &c.SortOrder)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	if err != nil {
		return Category{}, err
	}
	return c, nil
}

func (s *PostgresForumStore) CreateThread(ctx context.Context, th Thread, opening Post) (Thread, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Thread{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM forum_categories WHERE id = $1)`, th.CategoryID).
		Scan(&exists); err != nil {
		return Thread{}, err
	}
	if !exists {
		return Thread{}, ErrNotFound
	}

	const insThread = `INSERT INTO forum_threads (id, category_id, author_id, title, last_activity_at, created_at)
	                   VALUES (COALESCE(NULLIF($1, ''), gen_random_uuid()::text), $2, $3, $4, now(), now())
	                   RETURNING ` + threadColumns
	created, err := scanThread(tx.QueryRow(ctx, insThread, th.ID, th.CategoryID, th.AuthorID, th.Title))
	if err != nil {
		return Thread{}, fmt.Errorf("insert thread: %w", err)
	}

	const insPost = `INSERT INTO forum_posts (id, thread_id, author_id, content, created_at)
	                 VALUES (gen_random_uuid()::text, $1, $2, $3, $4)`
	if _, err := tx.Exec(ctx, insPost, created.ID, opening.AuthorID, opening.Content, created.CreatedAt); err != nil {
		return Thread{}, fmt.Errorf("insert opening post: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Thread{}, err
	}
	return created, nil
}

func (s *PostgresForumStore) GetThread(ctx context.Context, id string) (Thread, error) {
	th, err := scanThread(s.pool.QueryRow(ctx,
		`SELECT `+threadColumns+` FROM forum_threads WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Thread{}, ErrNotFound
	}
	if err != nil {
		return Thread{}, err
	}
	return th, nil
}

func (s *PostgresForumStore) ListThreads(ctx context.Context, categoryID string, limit, offset int) ([]Thread, error) {
	q := `SELECT ` + threadColumns + ` FROM forum_threads`
	args := []any{}
	if categoryID != "" {
		q += ` WHERE category_id = $1`
		args = append(args, categoryID)
	}
	// NULLIF turns limit=0 into LIMIT NULL, i.e. no limit.
	q += fmt.Sprintf(` ORDER BY is_pinned DESC, last_activity_at DESC, id
	                   LIMIT NULLIF(%d, 0) OFFSET %d`, limit, offset)

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	var out []Thread
	for rows.Next() {
		th, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, th)
	}
	return out, rows.Err()
}

func (s *PostgresForumStore) SetThreadLocked(ctx context.Context, id string, locked bool) (Thread, error) {
	return s.setThreadFlag(ctx, id, "is_locked", locked)
}

func (s *PostgresForumStore) SetThreadPinned(ctx context.Context, id string, pinned bool) (Thread, error) {
	return s.setThreadFlag(ctx, id, "is_pinned", pinned)
}

func (s *PostgresForumStore) setThreadFlag(ctx context.Context, id, column string, value bool) (Thread, error) {
	q := `UPDATE forum_threads SET ` + column + ` = $2 WHERE id = $1 RETURNING ` + threadColumns
	th, err := scanThread(s.pool.QueryRow(ctx, q, id, value))
	if errors.Is(err, pgx.ErrNoRows) {
		return Thread{}, ErrNotFound
	}
	if err != nil {
		return Thread{}, err
	}
	return th, nil
}

func (s *PostgresForumStore) InsertPost(ctx context.Context, p Post) (Post, Thread, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Post{}, Thread{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var locked bool
	err = tx.QueryRow(ctx, `SELECT is_locked FROM forum_threads WHERE id = $1`, p.ThreadID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return Post{}, Thread{}, ErrNotFound
	}
	if err != nil {
		return Post{}, Thread{}, err
	}
	if locked {
		return Post{}, Thread{}, ErrThreadLocked
	}

	const insPost = `INSERT INTO forum_posts (id, thread_id, author_id, content, created_at)
	                 VALUES (gen_random_uuid()::text, $1, $2, $3, COALESCE($4::timestamptz, now()))
	                 RETURNING id, thread_id, author_id, content, created_at`
	var createdAt any
	if !p.CreatedAt.IsZero() {
		createdAt = p.CreatedAt
	}
	var created Post
	if err := tx.QueryRow(ctx, insPost, p.ThreadID, p.AuthorID, p.Content, createdAt).
		Scan(&created.ID, &created.ThreadID, &created.AuthorID, &created.Content, &created.CreatedAt); err != nil {
		return Post{}, Thread{}, fmt.Errorf("insert post: %w", err)
	}

	// GREATEST keeps last_activity_at monotonic under out-of-order
	// delivery.
	const updThread = `UPDATE forum_threads
	                   SET reply_count = reply_count + 1,
	                       last_activity_at = GREATEST(last_activity_at, $2)
	                   WHERE id = $1
	                   RETURNING ` + threadColumns
	th, err := scanThread(tx.QueryRow(ctx, updThread, p.ThreadID, created.CreatedAt))
	if err != nil {
		return Post{}, Thread{}, fmt.Errorf("update thread counters: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Post{}, Thread{}, err
	}
	return created, th, nil
}

func (s *PostgresForumStore) ListPosts(ctx context.Context, threadID string, limit, offset int) ([]Post, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM forum_threads WHERE id = $1)`, threadID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	const q = `SELECT id, thread_id, author_id, content, created_at
	           FROM forum_posts WHERE thread_id = $1
	           ORDER BY created_at, id LIMIT NULLIF($2, 0) OFFSET $3`
	rows, err := s.pool.Query(ctx, q, threadID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var out []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.ThreadID, &p.AuthorID, &p.Content, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresForumStore) CountPosts(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM forum_posts`).Scan(&n)
	return n, err
}

var _ ForumStore = (*PostgresForumStore)(nil)
