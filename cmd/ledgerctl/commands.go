package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"finledger/internal/cli"
	"finledger/internal/config"
	"finledger/internal/core"
	"finledger/internal/log"
	"finledger/internal/services"
	"finledger/internal/sheets"
	"finledger/internal/storage"
)

var (
	commands = []subcommands.Command{&amortizeCmd{}, &billCmd{}, &remindCmd{}}
	reports  = []subcommands.Command{&snapshotCmd{}, &budgetCmd{}}
)

// environment opens the database on first use so that help and flags work
// without one.
type environment struct {
	cfg    *config.Config
	logger *log.Logger
	out    io.Writer

	repo     *storage.SQLiteRepository
	engine   *services.Engine
	exporter sheets.SnapshotExporter
}

func (e *environment) Engine(ctx context.Context) *services.Engine {
	if e.engine == nil {
		e.repo = cli.InitSQLite(e.logger, e.cfg.SQLiteDBPath)
		if e.exporter == nil {
			e.exporter = cli.InitExporter(ctx, e.logger, e.cfg)
		}
		e.engine = services.NewEngine(e.repo, services.Options{
			Exporter: e.exporter,
			Currency: e.cfg.Currency,
		})
	}
	return e.engine
}

// Reader returns the configured sheet as a snapshot reader, or false when
// export is disabled.
func (e *environment) Reader(ctx context.Context) (sheets.SnapshotReader, bool) {
	e.Engine(ctx)
	reader, ok := e.exporter.(sheets.SnapshotReader)
	return reader, ok
}

func (e *environment) print(v any) error {
	w := e.out
	if w == nil {
		w = os.Stdout
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (e *environment) close() {
	if e.repo != nil {
		e.repo.Close()
	}
}

func envFrom(args []interface{}) *environment {
	return args[0].(*environment)
}

// finish prints v or reports err, returning the matching exit status.
func finish(env *environment, v any, err error) subcommands.ExitStatus {
	if err == nil {
		err = env.print(v)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func usageError(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitUsageError
}

type amortizeCmd struct {
	month string
}

func (*amortizeCmd) Name() string     { return "amortize" }
func (*amortizeCmd) Synopsis() string { return "amortize due prepaid expenses for a month" }
func (*amortizeCmd) Usage() string {
	return `ledgerctl amortize [-month YYYY-MM]

  Records this month's share of every in-progress prepaid expense. Items
  already amortized for the month are skipped.
`
}

func (c *amortizeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "month to amortize (defaults to the current month)")
}

func (c *amortizeCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envFrom(args)
	var month *core.Month
	if c.month != "" {
		m, err := core.ParseMonth(c.month)
		if err != nil {
			return usageError("-month: %v", err)
		}
		month = &m
	}
	result, err := env.Engine(ctx).Amortization.Run(ctx, month)
	return finish(env, result, err)
}

type billCmd struct {
	date string
}

func (*billCmd) Name() string     { return "bill" }
func (*billCmd) Synopsis() string { return "bill subscriptions due on a day" }
func (*billCmd) Usage() string {
	return `ledgerctl bill [-date YYYY-MM-DD]

  Records the bill of every active subscription due on the day. A
  subscription is billed at most once per day.
`
}

func (c *billCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "billing day (defaults to today)")
}

func (c *billCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envFrom(args)
	day, err := parseDay(c.date)
	if err != nil {
		return usageError("-date: %v", err)
	}
	result, err := env.Engine(ctx).Billing.ProcessBills(ctx, day)
	return finish(env, result, err)
}

type remindCmd struct {
	date string
	days int
}

func (*remindCmd) Name() string     { return "remind" }
func (*remindCmd) Synopsis() string { return "list subscription bills coming up" }
func (*remindCmd) Usage() string {
	return `ledgerctl remind [-date YYYY-MM-DD] [-days n]

  Lists the subscriptions that bill n days after the given day.
`
}

func (c *remindCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "reference day (defaults to today)")
	f.IntVar(&c.days, "days", services.DefaultReminderDaysAhead, "days ahead of the reference day")
}

func (c *remindCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envFrom(args)
	day, err := parseDay(c.date)
	if err != nil {
		return usageError("-date: %v", err)
	}
	if c.days < 0 {
		return usageError("-days must not be negative")
	}
	reminders, err := env.Engine(ctx).Billing.CheckReminders(ctx, day, c.days)
	return finish(env, reminders, err)
}

type snapshotCmd struct {
	month  string
	owner  string
	verify bool
	limit  int
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "regenerate and print a monthly snapshot" }
func (*snapshotCmd) Usage() string {
	return `ledgerctl snapshot [-month YYYY-MM] [-owner id]
ledgerctl snapshot -verify-sheet [-owner id] [-limit n]

  Recomputes the month's income, expense and top categories from the ledger
  and prints the stored snapshot.

  With -verify-sheet nothing is recomputed: the exported rows are read back
  from the spreadsheet and the stored snapshots that are missing or differ
  are printed. The exit status is non-zero when any differ.
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "month (defaults to the current month)")
	f.StringVar(&c.owner, "owner", "", "owner id (defaults to OWNER_ID)")
	f.BoolVar(&c.verify, "verify-sheet", false, "compare stored snapshots with the exported sheet")
	f.IntVar(&c.limit, "limit", 12, "most recent snapshots to compare with -verify-sheet")
}

func (c *snapshotCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envFrom(args)
	if c.verify {
		return c.verifySheet(ctx, env)
	}
	month, err := parseMonth(c.month)
	if err != nil {
		return usageError("-month: %v", err)
	}
	snap, err := env.Engine(ctx).Snapshots.Regenerate(ctx, month, ownerOr(c.owner, env.cfg))
	if err != nil {
		return finish(env, nil, err)
	}
	fmt.Fprintln(os.Stderr, snap.Summary())
	return finish(env, snap, nil)
}

func (c *snapshotCmd) verifySheet(ctx context.Context, env *environment) subcommands.ExitStatus {
	if c.limit <= 0 {
		return usageError("-limit must be positive")
	}
	reader, ok := env.Reader(ctx)
	if !ok {
		fmt.Fprintln(os.Stderr, "Error: snapshot export is not configured (set GOOGLE_SPREADSHEET_ID)")
		return subcommands.ExitFailure
	}

	owner := ownerOr(c.owner, env.cfg)
	drift, err := env.Engine(ctx).Snapshots.VerifyExport(ctx, reader, owner, c.limit)
	if status := finish(env, drift, err); status != subcommands.ExitSuccess {
		return status
	}
	if len(drift) > 0 {
		env.logger.Warn("Exported snapshots differ from the ledger",
			log.FieldOperation, log.OpExport,
			log.FieldOwnerID, owner,
			"drift", len(drift))
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type budgetCmd struct {
	month string
	owner string
}

func (*budgetCmd) Name() string     { return "budget" }
func (*budgetCmd) Synopsis() string { return "print budget status for a month" }
func (*budgetCmd) Usage() string {
	return `ledgerctl budget [-month YYYY-MM] [-owner id]

  Prints every budget of the month with its actual spend.
`
}

func (c *budgetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "month (defaults to the current month)")
	f.StringVar(&c.owner, "owner", "", "owner id (defaults to OWNER_ID)")
}

func (c *budgetCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envFrom(args)
	month, err := parseMonth(c.month)
	if err != nil {
		return usageError("-month: %v", err)
	}
	status, err := env.Engine(ctx).Budgets.Status(ctx, month, ownerOr(c.owner, env.cfg))
	return finish(env, status, err)
}

func parseDay(s string) (core.Date, error) {
	if s == "" {
		return core.DateOf(timeNow()), nil
	}
	return core.ParseDate(s)
}

func parseMonth(s string) (core.Month, error) {
	if s == "" {
		return core.MonthOf(timeNow()), nil
	}
	return core.ParseMonth(s)
}

func ownerOr(owner string, cfg *config.Config) string {
	if owner != "" {
		return owner
	}
	return cfg.OwnerID
}
