package redis

import (
	"context"
	"fmt"
)

// IncrementViews increments the view counter for a post
func (s *Store) IncrementViews(ctx context.Context, slug string) (int64, error) {
	n, err := s.client.Incr(ctx, ViewsKey(slug)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment views: %w", err)
	}
	return n, nil
}
