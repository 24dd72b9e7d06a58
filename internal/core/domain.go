package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultOwner is used when a caller does not name an owner.
const DefaultOwner = "system"

const (
	KindIncome      TransactionKind = "income"
	KindExpense     TransactionKind = "expense"
	KindAssetChange TransactionKind = "asset_change"
)

const (
	OriginManual              OriginKind = "manual"
	OriginAIGenerated         OriginKind = "ai_generated"
	OriginPrepaidPayment      OriginKind = "prepaid_payment"
	OriginPrepaidAmortization OriginKind = "prepaid_amortization"
	OriginSubscriptionBill    OriginKind = "subscription_bill"
)

const (
	PrepaidInProgress PrepaidStatus = "in_progress"
	PrepaidCompleted  PrepaidStatus = "completed"
)

const (
	CycleMonthly BillingCycle = "monthly"
	CycleYearly  BillingCycle = "yearly"
)

const (
	UsageLow    UsageLevel = "low"
	UsageMedium UsageLevel = "medium"
	UsageHigh   UsageLevel = "high"
)

const (
	DecisionKeep   Decision = "keep"
	DecisionWatch  Decision = "watch"
	DecisionCancel Decision = "cancel"
)

const (
	GoalSaveMoney GoalType = "save_money"
	GoalRepayDebt GoalType = "repay_debt"
	GoalPurchase  GoalType = "purchase"
	GoalInvest    GoalType = "invest"
)

const (
	GoalInProgress GoalStatus = "in_progress"
	GoalCompleted  GoalStatus = "completed"
	GoalAbandoned  GoalStatus = "abandoned"
)

// Category used for the payment leg of a prepaid expense.
var PrepaidPaymentCategory = Category{Level1: "Asset Change", Level2: "Prepaid"}

type (
	TransactionKind string
	OriginKind      string
	PrepaidStatus   string
	BillingCycle    string
	UsageLevel      string
	Decision        string
	GoalType        string
	GoalStatus      string

	Date struct {
		time.Time
	}

	// Category is the two-level classification shared by transactions,
	// budgets, prepaid items and subscriptions.
	Category struct {
		Level1 string `json:"level1"`
		Level2 string `json:"level2"`
	}

	Transaction struct {
		ID                   string          `json:"id"`
		Date                 Date            `json:"date"`
		Kind                 TransactionKind `json:"kind"`
		Category             Category        `json:"category"`
		Amount               Money           `json:"amount"`
		Channel              string          `json:"channel,omitempty"`
		Description          string          `json:"description,omitempty"`
		CountsTowardAnalysis bool            `json:"countsTowardAnalysis"`
		OriginKind           OriginKind      `json:"originKind"`
		OriginID             string          `json:"originId,omitempty"`
		Tags                 []string        `json:"tags,omitempty"`
		OwnerID              string          `json:"ownerId"`
		CreatedAt            time.Time       `json:"createdAt"`
	}

	PrepaidExpense struct {
		ID             string        `json:"id"`
		Name           string        `json:"name"`
		Category       Category      `json:"category"`
		Total          Money         `json:"total"`
		Start          Month         `json:"start"`
		End            Month         `json:"end"`
		Periods        int           `json:"periods"`
		PerPeriod      Money         `json:"perPeriod"`
		LastAmortized  *Month        `json:"lastAmortized,omitempty"`
		Status         PrepaidStatus `json:"status"`
		Remark         string        `json:"remark,omitempty"`
		Channel        string        `json:"channel,omitempty"`
		SubscriptionID string        `json:"subscriptionId,omitempty"`
		OwnerID        string        `json:"ownerId"`
		CreatedAt      time.Time     `json:"createdAt"`
	}

	Subscription struct {
		ID           string       `json:"id"`
		Name         string       `json:"name"`
		Category     Category     `json:"category"`
		Cycle        BillingCycle `json:"cycle"`
		Amount       Money        `json:"amount"`
		StartDate    Date         `json:"startDate"`
		Active       bool         `json:"active"`
		RenewalRule  string       `json:"renewalRule,omitempty"`
		UsageLevel   UsageLevel   `json:"usageLevel,omitempty"`
		Decision     Decision     `json:"decision,omitempty"`
		Channel      string       `json:"channel,omitempty"`
		LastBilledOn *Date        `json:"lastBilledOn,omitempty"`
		OwnerID      string       `json:"ownerId"`
		CreatedAt    time.Time    `json:"createdAt"`
	}

	Budget struct {
		Month     Month     `json:"month"`
		Category  Category  `json:"category"`
		Amount    Money     `json:"amount"`
		OwnerID   string    `json:"ownerId"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	FinancialGoal struct {
		ID            string     `json:"id"`
		Name          string     `json:"name"`
		Type          GoalType   `json:"type"`
		TargetAmount  Money      `json:"targetAmount"`
		CurrentAmount Money      `json:"currentAmount"`
		TargetDate    *Date      `json:"targetDate,omitempty"`
		Priority      int        `json:"priority"`
		Status        GoalStatus `json:"status"`
		CreatedMonth  Month      `json:"createdMonth"`
		OwnerID       string     `json:"ownerId"`
		CreatedAt     time.Time  `json:"createdAt"`
		UpdatedAt     time.Time  `json:"updatedAt"`
	}

	MonthlySnapshot struct {
		Month         Month           `json:"month"`
		OwnerID       string          `json:"ownerId"`
		Income        Money           `json:"income"`
		Expense       Money           `json:"expense"`
		NetCashflow   Money           `json:"netCashflow"`
		TopCategories []CategoryShare `json:"topCategories"`
		GeneratedAt   time.Time       `json:"generatedAt"`
	}
)

var (
	ErrInvalidDay      = errors.New("invalid day")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidKind     = errors.New("invalid transaction kind")
	ErrInvalidOrigin   = errors.New("invalid origin kind")
	ErrEmptyCategory   = errors.New("empty category")
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidPeriod   = errors.New("invalid period")
	ErrInvalidCycle    = errors.New("invalid billing cycle")
	ErrInvalidGoalType = errors.New("invalid goal type")
	ErrInvalidField    = errors.New("invalid field")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	if day := d.Day(); day < 1 || day > 31 {
		return ErrInvalidDay
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// Period returns the month the date falls in.
func (d Date) Period() Month {
	return NewMonth(d.Year(), d.Time.Month())
}

func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) String() string {
	return d.Format(time.DateOnly)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (c Category) String() string {
	if c.Level2 == "" {
		return c.Level1
	}
	return c.Level1 + "/" + c.Level2
}

// Month returns the ledger period of the transaction.
func (t Transaction) Month() Month {
	return t.Date.Period()
}

func (k TransactionKind) Valid() bool {
	switch k {
	case KindIncome, KindExpense, KindAssetChange:
		return true
	}
	return false
}

func (o OriginKind) Valid() bool {
	switch o {
	case OriginManual, OriginAIGenerated, OriginPrepaidPayment, OriginPrepaidAmortization, OriginSubscriptionBill:
		return true
	}
	return false
}

// OwnerOrDefault returns owner, or DefaultOwner when owner is blank.
func OwnerOrDefault(owner string) string {
	if o := strings.TrimSpace(owner); o != "" {
		return o
	}
	return DefaultOwner
}
