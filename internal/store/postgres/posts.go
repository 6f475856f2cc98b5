package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/MrSnakeDoc/folio/internal/domain"
	"github.com/MrSnakeDoc/folio/internal/store"
)

const postColumns = `id, slug, title, COALESCE(excerpt, ''), content, tags, published, published_at, updated_at`

// GetPost returns the published post with the given slug.
func (s *Store) GetPost(ctx context.Context, slug string) (domain.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE slug = $1 AND published`

	p, err := scanPost(s.pool.QueryRow(ctx, query, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Post{}, fmt.Errorf("post %q: %w", slug, store.ErrNotFound)
	}
	if err != nil {
		return domain.Post{}, fmt.Errorf("get post %q: %w", slug, err)
	}
	return p, nil
}

// ListPosts returns published posts, newest first. A limit <= 0 means no limit.
func (s *Store) ListPosts(ctx context.Context, limit int) ([]domain.Post, error) {
	query := `SELECT ` + postColumns + `
FROM posts
WHERE published
ORDER BY published_at DESC NULLS LAST, slug ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("list posts: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return out, nil
}

func scanPost(row pgx.Row) (domain.Post, error) {
	var (
		p           domain.Post
		publishedAt *time.Time
	)
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Excerpt, &p.Content, &p.Tags, &p.Published, &publishedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Post{}, err
	}
	if publishedAt != nil {
		p.PublishedAt = *publishedAt
	}
	return p, nil
}

// CountComments returns the number of approved comments on a post.
func (s *Store) CountComments(ctx context.Context, postID string) (int, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM comments WHERE post_id = $1 AND approved`, postID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count comments of %s: %w", postID, err)
	}
	return int(n), nil
}
