package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"finledger/internal/core"
	"finledger/internal/storage"
)

const testOwner = "alice"

var testDate = core.NewDate(2025, 1, 15)

// testClock is a settable clock shared by every service of a test engine.
type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) Set(year int, month time.Month, day int) {
	c.t = time.Date(year, month, day, 9, 0, 0, 0, time.UTC)
}

func newTestEngine(t *testing.T) (*Engine, *storage.SQLiteRepository, *testClock) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	clock := &testClock{}
	clock.Set(2025, time.January, 20)
	return NewEngine(repo, Options{Now: clock.Now}), repo, clock
}

func mustRecord(t *testing.T, e *Engine, n core.NewTransaction) core.Transaction {
	t.Helper()
	if n.OwnerID == "" {
		n.OwnerID = testOwner
	}
	tx, err := e.Ledger.Record(context.Background(), n)
	if err != nil {
		t.Fatalf("record %+v: %v", n, err)
	}
	return tx
}

func spend(date core.Date, l1, l2 string, cents int64) core.NewTransaction {
	return core.NewTransaction{
		Date:                 date,
		Kind:                 core.KindExpense,
		Category:             core.Category{Level1: l1, Level2: l2},
		Amount:               core.MoneyFromCents(-cents),
		CountsTowardAnalysis: true,
	}
}

func earn(date core.Date, cents int64) core.NewTransaction {
	return core.NewTransaction{
		Date:                 date,
		Kind:                 core.KindIncome,
		Category:             core.Category{Level1: "Income", Level2: "Salary"},
		Amount:               core.MoneyFromCents(cents),
		CountsTowardAnalysis: true,
	}
}

func month(year int, m time.Month) core.Month {
	return core.NewMonth(year, m)
}

func monthPtr(year int, m time.Month) *core.Month {
	mo := month(year, m)
	return &mo
}
