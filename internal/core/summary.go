package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CategoryShare is a level-1 category's portion of a month's analysed spend.
type CategoryShare struct {
	Category string          `json:"category"`
	Amount   Money           `json:"amount"`
	Percent  decimal.Decimal `json:"percent"`
}

// CategoryTotal is one row of a category breakdown.
type CategoryTotal struct {
	Category Category `json:"category"`
	Total    Money    `json:"total"`
	Count    int64    `json:"count"`
}

// Statistics is the sum and count of the transactions matching a filter.
type Statistics struct {
	Total Money `json:"total"`
	Count int64 `json:"count"`
}

// BudgetLine compares one budget with the spend recorded against it.
type BudgetLine struct {
	Budget    Budget          `json:"budget"`
	Actual    Money           `json:"actual"`
	Remaining Money           `json:"remaining"`
	Percent   decimal.Decimal `json:"percent"`
}

type BudgetStatus struct {
	Month       Month        `json:"month"`
	OwnerID     string       `json:"ownerId"`
	Items       []BudgetLine `json:"items"`
	TotalBudget Money        `json:"totalBudget"`
	TotalActual Money        `json:"totalActual"`
}

type BudgetAlert struct {
	Month    Month           `json:"month"`
	Category Category        `json:"category"`
	Budget   Money           `json:"budget"`
	Actual   Money           `json:"actual"`
	Percent  decimal.Decimal `json:"percent"`
	IsOver   bool            `json:"isOver"`
}

// Summary renders the snapshot's top categories as "name(amount/percent%)"
// joined by commas, the form used in narrated reports.
func (s MonthlySnapshot) Summary() string {
	parts := make([]string, 0, len(s.TopCategories))
	for _, c := range s.TopCategories {
		parts = append(parts, fmt.Sprintf("%s(%s/%s%%)", c.Category, c.Amount.Format(DefaultCurrency), c.Percent.StringFixed(1)))
	}
	return strings.Join(parts, ", ")
}

// TransactionFilter selects ledger entries. Zero fields do not filter.
type TransactionFilter struct {
	From                 *Date           `json:"from,omitempty"`
	To                   *Date           `json:"to,omitempty"`
	Kind                 TransactionKind `json:"kind,omitempty"`
	Level1               string          `json:"level1,omitempty"`
	Level2               string          `json:"level2,omitempty"`
	CountsTowardAnalysis *bool           `json:"countsTowardAnalysis,omitempty"`
	OwnerID              string          `json:"ownerId,omitempty"`
}

// CategoryUsage is the registry's view of a category.
type CategoryUsage struct {
	Category   Category   `json:"category"`
	UsageCount int64      `json:"usageCount"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
}

type Tag struct {
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	UsageCount int64      `json:"usageCount"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
}
