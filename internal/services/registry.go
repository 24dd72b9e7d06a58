package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"finledger/internal/cache"
	"finledger/internal/core"
	"finledger/internal/storage"
)

const (
	minTagRunes       = 2
	maxTagRunes       = 10
	maxNewTagRunes    = 6
	defaultTagType    = "psychological"
	defaultCommonTags = 30
)

// Registry keeps usage counters for categories and tags.
type Registry struct {
	storage *storage.SQLiteRepository
	tags    *cache.LRUCache[[]core.Tag]
	now     func() time.Time
}

func NewRegistry(storage *storage.SQLiteRepository, tagCache *cache.LRUCache[[]core.Tag], now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{storage: storage, tags: tagCache, now: now}
}

// TouchCategory counts one use of c. A category that was never registered is
// created on the spot.
func (r *Registry) TouchCategory(ctx context.Context, c core.Category) error {
	at := r.now()
	found, err := r.storage.TouchCategory(ctx, c, at)
	if err != nil {
		return err
	}
	if found {
		return nil
	}
	slog.WarnContext(ctx, "Category not registered, creating it",
		"level1", c.Level1,
		"level2", c.Level2)
	return r.storage.RegisterCategory(ctx, c, at)
}

func (r *Registry) ListCategories(ctx context.Context) ([]core.CategoryUsage, error) {
	return r.storage.ListCategories(ctx)
}

// NormalizeTags trims and dedupes tags, drops names shorter than two runes
// and truncates the rest to ten.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if utf8.RuneCountInString(tag) < minTagRunes {
			continue
		}
		if utf8.RuneCountInString(tag) > maxTagRunes {
			tag = strings.TrimSpace(string([]rune(tag)[:maxTagRunes]))
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// ProcessTags counts one use of every tag. Unknown tags short enough to be
// a label are created; longer ones are ignored. Failures are logged per tag
// and returned together.
func (r *Registry) ProcessTags(ctx context.Context, tags []string) error {
	var errs []error
	for _, name := range NormalizeTags(tags) {
		if err := r.processTag(ctx, name); err != nil {
			slog.WarnContext(ctx, "Failed to process tag", "tag", name, "error", err)
			errs = append(errs, err)
		}
	}
	if r.tags != nil {
		r.tags.Purge()
	}
	return errors.Join(errs...)
}

func (r *Registry) processTag(ctx context.Context, name string) error {
	at := r.now()
	found, err := r.storage.TouchTag(ctx, name, at)
	if err != nil || found {
		return err
	}
	if utf8.RuneCountInString(name) > maxNewTagRunes {
		slog.DebugContext(ctx, "Skipping unknown long tag", "tag", name)
		return nil
	}
	created, err := r.storage.CreateTag(ctx, name, defaultTagType, at)
	if err != nil {
		return err
	}
	if !created {
		// Lost a race with another writer; count the use on its row.
		_, err = r.storage.TouchTag(ctx, name, at)
	}
	return err
}

// CommonTags returns the most used tags. limit <= 0 means the default.
func (r *Registry) CommonTags(ctx context.Context, limit int) ([]core.Tag, error) {
	if limit <= 0 {
		limit = defaultCommonTags
	}
	load := func() ([]core.Tag, error) {
		return r.storage.CommonTags(ctx, limit)
	}
	if r.tags == nil {
		return load()
	}
	tags, err := r.tags.GetOrLoad(fmt.Sprintf("common:%d", limit), load)
	if err != nil {
		return nil, err
	}
	return tags, nil
}
