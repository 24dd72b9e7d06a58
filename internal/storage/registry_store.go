package storage

import (
	"context"
	"fmt"
	"time"

	"finledger/internal/core"
)

// TouchCategory bumps a category's usage counter. It reports false when the
// category was not registered yet.
func (s *Store) TouchCategory(ctx context.Context, c core.Category, at time.Time) (bool, error) {
	n, err := s.queries.IncrementCategoryUsage(ctx, at, c.Level1, c.Level2)
	if err != nil {
		return false, fmt.Errorf("increment category usage %s: %w", c, err)
	}
	return n > 0, nil
}

// RegisterCategory inserts c with one use, or counts a use if it exists.
func (s *Store) RegisterCategory(ctx context.Context, c core.Category, at time.Time) error {
	if err := s.queries.CreateCategory(ctx, c.Level1, c.Level2, at); err != nil {
		return fmt.Errorf("create category %s: %w", c, err)
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]core.CategoryUsage, error) {
	rows, err := s.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.CategoryUsage, 0, len(rows))
	for _, row := range rows {
		u := core.CategoryUsage{
			Category:   core.Category{Level1: row.Level1, Level2: row.Level2},
			UsageCount: row.UsageCount,
		}
		if row.LastUsedAt.Valid {
			t := row.LastUsedAt.Time
			u.LastUsedAt = &t
		}
		out = append(out, u)
	}
	return out, nil
}

// TouchTag bumps a tag's usage counter and reports whether the tag exists.
func (s *Store) TouchTag(ctx context.Context, name string, at time.Time) (bool, error) {
	n, err := s.queries.IncrementTagUsage(ctx, at, name)
	if err != nil {
		return false, fmt.Errorf("increment tag usage %q: %w", name, err)
	}
	return n > 0, nil
}

// CreateTag inserts a tag with one use. A tag created concurrently under the
// same name is left untouched and reported as false.
func (s *Store) CreateTag(ctx context.Context, name, tagType string, at time.Time) (bool, error) {
	n, err := s.queries.CreateTag(ctx, CreateTagParams{
		ID:         core.NewID("tag"),
		Name:       name,
		TagType:    tagType,
		LastUsedAt: at,
		CreatedAt:  at,
	})
	if err != nil {
		return false, fmt.Errorf("create tag %q: %w", name, err)
	}
	return n > 0, nil
}

func (s *Store) CommonTags(ctx context.Context, limit int) ([]core.Tag, error) {
	rows, err := s.queries.ListCommonTags(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list common tags: %w", err)
	}
	out := make([]core.Tag, 0, len(rows))
	for _, row := range rows {
		tag := core.Tag{Name: row.Name, Type: row.TagType, UsageCount: row.UsageCount}
		if row.LastUsedAt.Valid {
			t := row.LastUsedAt.Time
			tag.LastUsedAt = &t
		}
		out = append(out, tag)
	}
	return out, nil
}
