package storage

import (
	"database/sql"
	"time"
)

type Budget struct {
	Month       string
	CategoryL1  string
	CategoryL2  string
	OwnerID     string
	AmountCents int64
	UpdatedAt   time.Time
}

type Category struct {
	Level1     string
	Level2     string
	UsageCount int64
	LastUsedAt sql.NullTime
}

type FinancialGoal struct {
	ID           string
	Name         string
	Type         string
	TargetCents  int64
	CurrentCents int64
	TargetDate   sql.NullString
	Priority     int64
	Status       string
	CreatedMonth string
	OwnerID      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type MonthlySnapshot struct {
	Month            string
	OwnerID          string
	IncomeCents      int64
	ExpenseCents     int64
	NetCashflowCents int64
	TopCategories    string
	GeneratedAt      time.Time
}

type PrepaidExpense struct {
	ID                 string
	Name               string
	CategoryL1         string
	CategoryL2         string
	TotalCents         int64
	StartMonth         string
	EndMonth           string
	Periods            int64
	PerPeriodCents     int64
	LastAmortizedMonth sql.NullString
	Status             string
	Remark             string
	Channel            string
	SubscriptionID     string
	OwnerID            string
	CreatedAt          time.Time
}

type Subscription struct {
	ID           string
	Name         string
	CategoryL1   string
	CategoryL2   string
	Cycle        string
	AmountCents  int64
	StartDate    string
	Active       int64
	RenewalRule  string
	UsageLevel   string
	Decision     string
	Channel      string
	LastBilledOn sql.NullString
	OwnerID      string
	CreatedAt    time.Time
}

type Tag struct {
	ID         string
	Name       string
	TagType    string
	UsageCount int64
	IsActive   int64
	LastUsedAt sql.NullTime
	CreatedAt  time.Time
}

type Transaction struct {
	ID                   string
	Date                 string
	Month                string
	Kind                 string
	CategoryL1           string
	CategoryL2           string
	AmountCents          int64
	Channel              string
	Description          string
	CountsTowardAnalysis int64
	OriginKind           string
	OriginID             string
	Tags                 string
	OwnerID              string
	CreatedAt            time.Time
}
