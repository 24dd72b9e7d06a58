package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"finledger/internal/core"
)

// InsertTransaction appends one ledger row. There is no update or delete
// counterpart.
func (s *Store) InsertTransaction(ctx context.Context, t core.Transaction) error {
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return err
	}
	err = s.queries.CreateTransaction(ctx, CreateTransactionParams{
		ID:                   t.ID,
		Date:                 t.Date.String(),
		Month:                t.Month().String(),
		Kind:                 string(t.Kind),
		CategoryL1:           t.Category.Level1,
		CategoryL2:           t.Category.Level2,
		AmountCents:          t.Amount.Cents(),
		Channel:              t.Channel,
		Description:          t.Description,
		CountsTowardAnalysis: boolInt(t.CountsTowardAnalysis),
		OriginKind:           string(t.OriginKind),
		OriginID:             t.OriginID,
		Tags:                 tags,
		OwnerID:              t.OwnerID,
		CreatedAt:            t.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// GetTransaction returns nil when id is unknown.
func (s *Store) GetTransaction(ctx context.Context, id string) (*core.Transaction, error) {
	row, err := s.queries.GetTransaction(ctx, id)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", id, err)
	}
	t, err := toCoreTransaction(row)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) ListTransactions(ctx context.Context, f core.TransactionFilter, limit int) ([]core.Transaction, error) {
	rows, err := s.queries.ListTransactions(ctx, filterParams(f), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := toCoreTransaction(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) Statistics(ctx context.Context, f core.TransactionFilter) (core.Statistics, error) {
	row, err := s.queries.SumTransactions(ctx, filterParams(f))
	if err != nil {
		return core.Statistics{}, fmt.Errorf("sum transactions: %w", err)
	}
	return core.Statistics{Total: core.MoneyFromCents(row.TotalCents), Count: row.Count}, nil
}

func (s *Store) CategoryBreakdown(ctx context.Context, f core.TransactionFilter) ([]core.CategoryTotal, error) {
	rows, err := s.queries.CategoryBreakdown(ctx, filterParams(f))
	if err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}
	out := make([]core.CategoryTotal, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.CategoryTotal{
			Category: core.Category{Level1: row.CategoryL1, Level2: row.CategoryL2},
			Total:    core.MoneyFromCents(row.TotalCents),
			Count:    row.Count,
		})
	}
	return out, nil
}

// OriginTotal sums the ledger rows caused by one entity.
func (s *Store) OriginTotal(ctx context.Context, kind core.OriginKind, originID string) (core.Statistics, error) {
	row, err := s.queries.SumByOrigin(ctx, string(kind), originID)
	if err != nil {
		return core.Statistics{}, fmt.Errorf("sum by origin %s/%s: %w", kind, originID, err)
	}
	return core.Statistics{Total: core.MoneyFromCents(row.TotalCents), Count: row.Count}, nil
}

// MonthTotals returns the month's income and its analysed expense sum
// (negative) for one owner.
func (s *Store) MonthTotals(ctx context.Context, month core.Month, owner string) (core.Money, core.Money, error) {
	row, err := s.queries.MonthTotals(ctx, month.String(), owner)
	if err != nil {
		return core.Money{}, core.Money{}, fmt.Errorf("month totals %s: %w", month, err)
	}
	return core.MoneyFromCents(row.IncomeCents), core.MoneyFromCents(row.ExpenseCents), nil
}

// TopExpenseCategories returns the level-1 categories with the largest
// analysed spend, amounts as positive values. Percent is left zero.
func (s *Store) TopExpenseCategories(ctx context.Context, month core.Month, owner string, limit int) ([]core.CategoryShare, error) {
	rows, err := s.queries.TopExpenseCategories(ctx, month.String(), owner, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("top expense categories %s: %w", month, err)
	}
	out := make([]core.CategoryShare, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.CategoryShare{
			Category: row.CategoryL1,
			Amount:   core.MoneyFromCents(row.TotalCents).Abs(),
		})
	}
	return out, nil
}

func filterParams(f core.TransactionFilter) TransactionFilterParams {
	p := TransactionFilterParams{
		OwnerID:    nullString(f.OwnerID),
		Kind:       nullString(string(f.Kind)),
		CategoryL1: nullString(f.Level1),
		CategoryL2: nullString(f.Level2),
	}
	if f.From != nil {
		p.StartDate = nullString(f.From.String())
	}
	if f.To != nil {
		p.EndDate = nullString(f.To.String())
	}
	if f.CountsTowardAnalysis != nil {
		p.CountsTowardAnalysis = sql.NullInt64{Int64: boolInt(*f.CountsTowardAnalysis), Valid: true}
	}
	return p
}

func toCoreTransaction(row Transaction) (core.Transaction, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", row.ID, err)
	}
	tags, err := decodeTags(row.Tags)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", row.ID, err)
	}
	return core.Transaction{
		ID:                   row.ID,
		Date:                 date,
		Kind:                 core.TransactionKind(row.Kind),
		Category:             core.Category{Level1: row.CategoryL1, Level2: row.CategoryL2},
		Amount:               core.MoneyFromCents(row.AmountCents),
		Channel:              row.Channel,
		Description:          row.Description,
		CountsTowardAnalysis: row.CountsTowardAnalysis == 1,
		OriginKind:           core.OriginKind(row.OriginKind),
		OriginID:             row.OriginID,
		Tags:                 tags,
		OwnerID:              row.OwnerID,
		CreatedAt:            row.CreatedAt,
	}, nil
}

func encodeTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "", nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func decodeTags(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return tags, nil
}
