package storage

import (
	"context"
	"time"
)

const incrementCategoryUsage = `-- name: IncrementCategoryUsage :execrows
UPDATE categories
SET usage_count = usage_count + 1, last_used_at = ?
WHERE level1 = ? AND level2 = ?
`

func (q *Queries) IncrementCategoryUsage(ctx context.Context, usedAt time.Time, level1, level2 string) (int64, error) {
	result, err := q.db.ExecContext(ctx, incrementCategoryUsage, usedAt, level1, level2)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createCategory = `-- name: CreateCategory :exec
INSERT INTO categories (level1, level2, usage_count, last_used_at)
VALUES (?, ?, 1, ?)
ON CONFLICT (level1, level2) DO UPDATE SET
    usage_count = categories.usage_count + 1,
    last_used_at = excluded.last_used_at
`

func (q *Queries) CreateCategory(ctx context.Context, level1, level2 string, usedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, createCategory, level1, level2, usedAt)
	return err
}

const listCategories = `-- name: ListCategories :many
SELECT level1, level2, usage_count, last_used_at FROM categories
ORDER BY usage_count DESC, level1, level2
`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.Level1, &i.Level2, &i.UsageCount, &i.LastUsedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const incrementTagUsage = `-- name: IncrementTagUsage :execrows
UPDATE tags SET usage_count = usage_count + 1, last_used_at = ? WHERE name = ?
`

func (q *Queries) IncrementTagUsage(ctx context.Context, usedAt time.Time, name string) (int64, error) {
	result, err := q.db.ExecContext(ctx, incrementTagUsage, usedAt, name)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createTag = `-- name: CreateTag :execrows
INSERT INTO tags (id, name, tag_type, usage_count, is_active, last_used_at, created_at)
VALUES (?, ?, ?, 1, 1, ?, ?)
ON CONFLICT (name) DO NOTHING
`

type CreateTagParams struct {
	ID         string
	Name       string
	TagType    string
	LastUsedAt time.Time
	CreatedAt  time.Time
}

func (q *Queries) CreateTag(ctx context.Context, arg CreateTagParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createTag, arg.ID, arg.Name, arg.TagType, arg.LastUsedAt, arg.CreatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listCommonTags = `-- name: ListCommonTags :many
SELECT id, name, tag_type, usage_count, is_active, last_used_at, created_at FROM tags
WHERE is_active = 1
ORDER BY usage_count DESC, name
LIMIT ?
`

func (q *Queries) ListCommonTags(ctx context.Context, limit int64) ([]Tag, error) {
	rows, err := q.db.QueryContext(ctx, listCommonTags, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Tag
	for rows.Next() {
		var i Tag
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.TagType,
			&i.UsageCount,
			&i.IsActive,
			&i.LastUsedAt,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
