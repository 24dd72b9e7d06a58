package core

import (
	"strings"
	"unicode/utf8"
)

// NewTransaction is the caller-supplied part of a ledger entry.
type NewTransaction struct {
	Date                 Date            `json:"date"`
	Kind                 TransactionKind `json:"kind" validate:"required"`
	Category             Category        `json:"category"`
	Amount               Money           `json:"amount"`
	Channel              string          `json:"channel" validate:"max=50"`
	Description          string          `json:"description" validate:"max=200"`
	CountsTowardAnalysis bool            `json:"countsTowardAnalysis"`
	OriginKind           OriginKind      `json:"originKind"`
	OriginID             string          `json:"originId" validate:"max=64"`
	Tags                 []string        `json:"tags" validate:"max=20,dive,max=50"`
	OwnerID              string          `json:"ownerId" validate:"max=64"`
}

// Validate checks required fields and the sign convention: expenses are
// negative, income is positive, asset changes are any non-zero amount.
func (n NewTransaction) Validate() error {
	if err := validateStruct(n); err != nil {
		return err
	}
	if err := n.Date.Validate(); err != nil {
		return invalid("date", err)
	}
	if !n.Kind.Valid() {
		return invalid("kind", ErrInvalidKind)
	}
	if err := n.Category.Validate(); err != nil {
		return invalid("category", err)
	}
	if n.OriginKind != "" && !n.OriginKind.Valid() {
		return invalid("originKind", ErrInvalidOrigin)
	}
	switch {
	case n.Amount.IsZero():
		return invalid("amount", ErrInvalidAmount)
	case n.Kind == KindExpense && !n.Amount.IsNegative():
		return invalid("amount", ErrInvalidAmount)
	case n.Kind == KindIncome && !n.Amount.IsPositive():
		return invalid("amount", ErrInvalidAmount)
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Level1) == "" || strings.TrimSpace(c.Level2) == "" {
		return ErrEmptyCategory
	}
	if utf8.RuneCountInString(c.Level1) > 50 || utf8.RuneCountInString(c.Level2) > 50 {
		return ErrInvalidField
	}
	return nil
}

// NewPrepaid describes a lump-sum payment to spread over several months.
// Periods may be left zero, in which case it is derived from Start..End.
type NewPrepaid struct {
	Name     string   `json:"name" validate:"required,max=100"`
	Category Category `json:"category"`
	Total    Money    `json:"total"`
	Start    Month    `json:"start"`
	End      Month    `json:"end"`
	Periods  int      `json:"periods" validate:"gte=0,lte=600"`
	PaidOn   Date     `json:"paidOn"`
	Remark   string   `json:"remark" validate:"max=200"`
	Channel  string   `json:"channel" validate:"max=50"`
	OwnerID  string   `json:"ownerId" validate:"max=64"`

	SubscriptionID string `json:"-"`
}

func (n NewPrepaid) Validate() error {
	if err := validateStruct(n); err != nil {
		return err
	}
	if strings.TrimSpace(n.Name) == "" {
		return invalid("name", ErrEmptyName)
	}
	if err := n.Category.Validate(); err != nil {
		return invalid("category", err)
	}
	if !n.Total.IsPositive() {
		return invalid("total", ErrInvalidAmount)
	}
	if n.Start.IsZero() || n.End.IsZero() || n.End.Before(n.Start) {
		return invalid("end", ErrInvalidPeriod)
	}
	if n.Periods != 0 && n.Periods != MonthsBetween(n.Start, n.End) {
		return invalid("periods", ErrInvalidPeriod)
	}
	return nil
}

type NewSubscription struct {
	Name        string       `json:"name" validate:"required,max=100"`
	Category    Category     `json:"category"`
	Cycle       BillingCycle `json:"cycle" validate:"required,oneof=monthly yearly"`
	Amount      Money        `json:"amount"`
	StartDate   Date         `json:"startDate"`
	RenewalRule string       `json:"renewalRule" validate:"max=100"`
	UsageLevel  UsageLevel   `json:"usageLevel" validate:"omitempty,oneof=low medium high"`
	Decision    Decision     `json:"decision" validate:"omitempty,oneof=keep watch cancel"`
	Channel     string       `json:"channel" validate:"max=50"`
	OwnerID     string       `json:"ownerId" validate:"max=64"`
}

// Validate checks the subscription input. Amount is the positive price of
// one billing period.
func (n NewSubscription) Validate() error {
	if err := validateStruct(n); err != nil {
		return err
	}
	if strings.TrimSpace(n.Name) == "" {
		return invalid("name", ErrEmptyName)
	}
	if n.Cycle != CycleMonthly && n.Cycle != CycleYearly {
		return invalid("cycle", ErrInvalidCycle)
	}
	if err := n.Category.Validate(); err != nil {
		return invalid("category", err)
	}
	if !n.Amount.IsPositive() {
		return invalid("amount", ErrInvalidAmount)
	}
	if err := n.StartDate.Validate(); err != nil {
		return invalid("startDate", err)
	}
	return nil
}

type NewBudget struct {
	Month    Month    `json:"month"`
	Category Category `json:"category"`
	Amount   Money    `json:"amount"`
	OwnerID  string   `json:"ownerId" validate:"max=64"`
}

func (n NewBudget) Validate() error {
	if err := validateStruct(n); err != nil {
		return err
	}
	if n.Month.IsZero() {
		return invalid("month", ErrInvalidMonth)
	}
	if err := n.Category.Validate(); err != nil {
		return invalid("category", err)
	}
	if !n.Amount.IsPositive() {
		return invalid("amount", ErrInvalidAmount)
	}
	return nil
}

// NewGoal creates a goal, or updates it when ID names an existing one.
type NewGoal struct {
	ID           string   `json:"id" validate:"max=64"`
	Name         string   `json:"name" validate:"required,max=100"`
	Type         GoalType `json:"type" validate:"required"`
	TargetAmount Money    `json:"targetAmount"`
	// CurrentAmount is kept by hand for every goal type except save_money,
	// whose progress is derived from monthly snapshots.
	CurrentAmount Money      `json:"currentAmount"`
	TargetDate    *Date      `json:"targetDate"`
	Priority      int        `json:"priority" validate:"gte=0,lte=10"`
	Status        GoalStatus `json:"status" validate:"omitempty,oneof=in_progress completed abandoned"`
	OwnerID       string     `json:"ownerId" validate:"max=64"`
}

func (n NewGoal) Validate() error {
	if err := validateStruct(n); err != nil {
		return err
	}
	switch n.Type {
	case GoalSaveMoney, GoalRepayDebt, GoalPurchase, GoalInvest:
	default:
		return invalid("type", ErrInvalidGoalType)
	}
	if !n.TargetAmount.IsPositive() {
		return invalid("targetAmount", ErrInvalidAmount)
	}
	if n.CurrentAmount.IsNegative() {
		return invalid("currentAmount", ErrInvalidAmount)
	}
	if n.TargetDate != nil {
		if err := n.TargetDate.Validate(); err != nil {
			return invalid("targetDate", err)
		}
	}
	return nil
}
