package google

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"finledger/internal/core"
)

// Column layout of the snapshot tab:
// A Month | B Owner | C Income | D Expense | E Net | F Summary | G Top (JSON) | H Generated
const lastColumn = "H"

func headerRow() []any {
	return []any{"Month", "Owner", "Income", "Expense", "Net", "Summary", "Top", "Generated"}
}

func snapshotRow(snap core.MonthlySnapshot) []any {
	top, err := json.Marshal(snap.TopCategories)
	if err != nil {
		top = []byte("[]")
	}
	return []any{
		snap.Month.String(),
		snap.OwnerID,
		snap.Income.String(),
		snap.Expense.String(),
		snap.NetCashflow.String(),
		snap.Summary(),
		string(top),
		snap.GeneratedAt.UTC().Format(time.RFC3339),
	}
}

// findSnapshotRow returns the 1-based sheet row holding (month, owner), or 0.
func findSnapshotRow(values [][]any, month core.Month, owner string) int {
	for i, row := range values {
		cols := toStrings(row)
		if len(cols) < 2 {
			continue
		}
		if cols[0] == month.String() && cols[1] == owner {
			return i + 1
		}
	}
	return 0
}

// parseSnapshotRows decodes the owner's rows, skipping the header and any
// row that does not parse. Rows come back newest month first.
func parseSnapshotRows(values [][]any, owner string) ([]core.MonthlySnapshot, error) {
	var out []core.MonthlySnapshot
	for i, row := range values {
		cols := toStrings(row)
		if len(cols) < 5 || cols[1] != owner {
			continue
		}
		month, err := core.ParseMonth(cols[0])
		if err != nil {
			// Header or hand-edited row.
			continue
		}
		snap, err := parseSnapshotCols(month, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.After(out[j].Month) })
	return out, nil
}

func parseSnapshotCols(month core.Month, cols []string) (core.MonthlySnapshot, error) {
	snap := core.MonthlySnapshot{Month: month, OwnerID: cols[1]}
	amounts := []*core.Money{&snap.Income, &snap.Expense, &snap.NetCashflow}
	for k, dst := range amounts {
		m, err := core.ParseMoney(cols[2+k])
		if err != nil {
			return core.MonthlySnapshot{}, err
		}
		*dst = m
	}
	if top := safeGet(cols, 6); top != "" {
		if err := json.Unmarshal([]byte(top), &snap.TopCategories); err != nil {
			return core.MonthlySnapshot{}, fmt.Errorf("decode top categories: %w", err)
		}
	}
	if generated := safeGet(cols, 7); generated != "" {
		t, err := time.Parse(time.RFC3339, generated)
		if err != nil {
			return core.MonthlySnapshot{}, fmt.Errorf("parse generated time: %w", err)
		}
		snap.GeneratedAt = t
	}
	return snap, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
