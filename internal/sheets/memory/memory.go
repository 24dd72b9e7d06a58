// Package memory keeps exported snapshots in process, for tests and for
// running without a spreadsheet.
package memory

import (
	"context"
	"sort"
	"sync"

	"finledger/internal/core"
	ports "finledger/internal/sheets"
)

var (
	_ ports.SnapshotExporter = (*Store)(nil)
	_ ports.SnapshotReader   = (*Store)(nil)
)

type key struct {
	month core.Month
	owner string
}

type Store struct {
	mu    sync.Mutex
	rows  map[key]core.MonthlySnapshot
	err   error
	count int
}

func New() *Store {
	return &Store{rows: make(map[key]core.MonthlySnapshot)}
}

// FailWith makes every later export return err. A nil err restores exports.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// ExportSnapshot stores snap, replacing the row for the same month and owner.
func (s *Store) ExportSnapshot(_ context.Context, snap core.MonthlySnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.rows[key{snap.Month, snap.OwnerID}] = snap
	s.count++
	return nil
}

// ListSnapshots returns the owner's rows, newest month first.
func (s *Store) ListSnapshots(_ context.Context, owner string) ([]core.MonthlySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.MonthlySnapshot, 0, len(s.rows))
	for k, snap := range s.rows {
		if k.owner == owner {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.After(out[j].Month) })
	return out, nil
}

// Exports counts successful exports, overwrites included.
func (s *Store) Exports() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
