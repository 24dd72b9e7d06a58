package services

import (
	"context"
	"testing"
	"time"

	"finledger/internal/core"
)

func newSubscription(name string, cycle core.BillingCycle, cents int64, start core.Date, rule string) core.NewSubscription {
	return core.NewSubscription{
		Name:        name,
		Category:    core.Category{Level1: "Digital", Level2: "Streaming"},
		Cycle:       cycle,
		Amount:      core.MoneyFromCents(cents),
		StartDate:   start,
		RenewalRule: rule,
		OwnerID:     testOwner,
	}
}

func TestParseRenewalDay(t *testing.T) {
	tests := []struct {
		rule string
		day  int
		ok   bool
	}{
		{"15号", 15, true},
		{"每月3日", 3, true},
		{"15th", 15, true},
		{"renews on the 1st", 1, true},
		{"day 28", 28, true},
		{"Day 7", 7, true},
		{"9", 9, true},
		{"", 0, false},
		{"monthly", 0, false},
		{"day 45", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			day, ok := ParseRenewalDay(tt.rule)
			if day != tt.day || ok != tt.ok {
				t.Errorf("ParseRenewalDay(%q) = %d, %v, want %d, %v", tt.rule, day, ok, tt.day, tt.ok)
			}
		})
	}
}

func TestMonthlyScheduleIsDue(t *testing.T) {
	schedule := MonthlySchedule{}
	tests := []struct {
		name  string
		start core.Date
		rule  string
		day   core.Date
		want  bool
	}{
		{"same day of month", core.NewDate(2025, 1, 12), "", core.NewDate(2025, 3, 12), true},
		{"other day", core.NewDate(2025, 1, 12), "", core.NewDate(2025, 3, 13), false},
		{"31st clamps to April 30", core.NewDate(2025, 1, 31), "", core.NewDate(2025, 4, 30), true},
		{"31st clamps to February 28", core.NewDate(2025, 1, 31), "", core.NewDate(2025, 2, 28), true},
		{"31st not billed on March 30", core.NewDate(2025, 1, 31), "", core.NewDate(2025, 3, 30), false},
		{"renewal rule day", core.NewDate(2025, 1, 3), "15号", core.NewDate(2025, 2, 15), true},
		{"start day still applies with rule", core.NewDate(2025, 1, 3), "15号", core.NewDate(2025, 2, 3), true},
		{"not before start", core.NewDate(2025, 5, 10), "", core.NewDate(2025, 4, 10), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := core.Subscription{StartDate: tt.start, RenewalRule: tt.rule, Cycle: core.CycleMonthly}
			if got := schedule.IsDue(sub, tt.day); got != tt.want {
				t.Errorf("IsDue(%s) = %v, want %v", tt.day, got, tt.want)
			}
		})
	}

	if _, err := GetBillingSchedule("weekly"); err == nil {
		t.Error("expected an error for an unknown cycle")
	}
}

func TestProcessBillsOncePerDay(t *testing.T) {
	ctx := context.Background()
	e, repo, _ := newTestEngine(t)

	sub, err := e.Billing.CreateSubscription(ctx, newSubscription("Music", core.CycleMonthly, 1500, core.NewDate(2025, 1, 31), ""))
	if err != nil {
		t.Fatal(err)
	}

	day := core.NewDate(2025, 4, 30)
	first, err := e.Billing.ProcessBills(ctx, day)
	if err != nil {
		t.Fatal(err)
	}
	if first.Total != 1 || first.Processed != 1 || first.Skipped != 0 {
		t.Fatalf("unexpected first run %+v", first)
	}

	second, err := e.Billing.ProcessBills(ctx, day)
	if err != nil {
		t.Fatal(err)
	}
	if second.Processed != 0 || second.Skipped != 1 {
		t.Fatalf("second run must skip, got %+v", second)
	}

	bills, err := repo.OriginTotal(ctx, core.OriginSubscriptionBill, sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if bills.Count != 1 || bills.Total.Cents() != -1500 {
		t.Fatalf("expected one bill of -15.00, got %+v", bills)
	}

	snap, err := e.Snapshots.Get(ctx, month(2025, 4), testOwner)
	if err != nil || snap == nil {
		t.Fatalf("snapshot: %v (%v)", snap, err)
	}
	if snap.Expense.Cents() != 1500 {
		t.Fatalf("expected April expense 15.00, got %s", snap.Expense)
	}

	got, err := e.Billing.GetSubscription(ctx, sub.ID)
	if err != nil || got == nil || got.LastBilledOn == nil || *got.LastBilledOn != day {
		t.Fatalf("billed-on marker not set: %+v (%v)", got, err)
	}
}

func TestPausedSubscriptionIsNotBilled(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)

	sub, err := e.Billing.CreateSubscription(ctx, newSubscription("Video", core.CycleMonthly, 3000, core.NewDate(2025, 1, 5), ""))
	if err != nil {
		t.Fatal(err)
	}
	paused, err := e.Billing.ToggleSubscription(ctx, sub.ID, false)
	if err != nil || paused == nil || paused.Active {
		t.Fatalf("toggle: %+v (%v)", paused, err)
	}

	res, err := e.Billing.ProcessBills(ctx, core.NewDate(2025, 2, 5))
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 0 {
		t.Fatalf("paused subscription billed: %+v", res)
	}

	missing, err := e.Billing.ToggleSubscription(ctx, "sub_missing", true)
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown id, got %+v (%v)", missing, err)
	}
}

func TestYearlySubscriptionCreatesPrepaid(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)

	start := core.NewDate(2025, 3, 10)
	sub, err := e.Billing.CreateSubscription(ctx, newSubscription("Cloud", core.CycleYearly, 12000, start, ""))
	if err != nil {
		t.Fatal(err)
	}

	items, err := e.Amortization.ListPrepaidExpenses(ctx, testOwner, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one companion prepaid, got %d", len(items))
	}
	p := items[0]
	if p.Periods != 12 || p.Start != month(2025, 3) || p.End != month(2026, 2) {
		t.Fatalf("unexpected schedule %+v", p)
	}
	if p.PerPeriod.Cents() != 1000 || p.SubscriptionID != sub.ID || p.Remark != "generated from subscription Cloud" {
		t.Fatalf("unexpected prepaid %+v", p)
	}

	res, err := e.Billing.ProcessBills(ctx, start)
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 0 {
		t.Fatalf("yearly subscriptions are never billed, got %+v", res)
	}
}

func TestCheckReminders(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)

	if _, err := e.Billing.CreateSubscription(ctx, newSubscription("Music", core.CycleMonthly, 1500, core.NewDate(2025, 1, 12), "")); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Billing.CreateSubscription(ctx, newSubscription("Cloud", core.CycleYearly, 12000, core.NewDate(2025, 1, 12), "")); err != nil {
		t.Fatal(err)
	}

	reminders, err := e.Billing.CheckReminders(ctx, core.NewDate(2025, 2, 10), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(reminders) != 1 {
		t.Fatalf("expected 1 reminder, got %d", len(reminders))
	}
	r := reminders[0]
	if r.DueOn != core.NewDate(2025, 2, 12) || r.Name != "Music" || r.OwnerID != testOwner || r.Message == "" {
		t.Fatalf("unexpected reminder %+v", r)
	}

	none, err := e.Billing.CheckReminders(ctx, core.NewDate(2025, 2, 11), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no reminders, got %+v", none)
	}
}

func TestPaymentChannelCarriesToEntries(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)

	monthly := newSubscription("Music", core.CycleMonthly, 1500, core.NewDate(2025, 1, 5), "")
	monthly.Channel = "credit card"
	music, err := e.Billing.CreateSubscription(ctx, monthly)
	if err != nil {
		t.Fatal(err)
	}
	yearly := newSubscription("Cloud", core.CycleYearly, 12000, core.NewDate(2025, 1, 5), "")
	yearly.Channel = "bank transfer"
	cloud, err := e.Billing.CreateSubscription(ctx, yearly)
	if err != nil {
		t.Fatal(err)
	}

	stored, err := e.Billing.GetSubscription(ctx, music.ID)
	if err != nil || stored == nil || stored.Channel != "credit card" {
		t.Fatalf("stored subscription = %+v (%v)", stored, err)
	}
	items, err := e.Amortization.ListPrepaidExpenses(ctx, testOwner, "")
	if err != nil || len(items) != 1 {
		t.Fatalf("prepaid items = %+v (%v)", items, err)
	}
	if items[0].Channel != "bank transfer" || items[0].SubscriptionID != cloud.ID {
		t.Fatalf("companion prepaid = %+v", items[0])
	}

	if _, err := e.Billing.ProcessBills(ctx, core.NewDate(2025, 2, 5)); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Amortization.Run(ctx, monthPtr(2025, time.January)); err != nil {
		t.Fatal(err)
	}

	all, err := e.Ledger.ListTransactions(ctx, core.TransactionFilter{OwnerID: testOwner}, 100)
	if err != nil {
		t.Fatal(err)
	}
	want := map[core.OriginKind]string{
		core.OriginSubscriptionBill:    "credit card",
		core.OriginPrepaidPayment:      "bank transfer",
		core.OriginPrepaidAmortization: "bank transfer",
	}
	seen := make(map[core.OriginKind]bool)
	for _, tx := range all {
		channel, ok := want[tx.OriginKind]
		if !ok {
			continue
		}
		seen[tx.OriginKind] = true
		if tx.Channel != channel {
			t.Errorf("%s entry channel = %q, want %q", tx.OriginKind, tx.Channel, channel)
		}
	}
	for origin := range want {
		if !seen[origin] {
			t.Errorf("no %s entry recorded", origin)
		}
	}
}
