package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"finledger/internal/core"
	ports "finledger/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultSheetName = "Snapshots"

// Client keeps one row per (month, owner) in a snapshot tab.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var (
	_ ports.SnapshotExporter = (*Client)(nil)
	_ ports.SnapshotReader   = (*Client)(nil)
)

// Config selects the spreadsheet and the service account used to reach it.
// ServiceAccountJSON wins over ServiceAccountFile.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = defaultSheetName
	}

	credentialsJSON, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets snapshot export enabled",
		"spreadsheet_id", spreadsheetID,
		"sheet", sheetName)

	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

func loadCredentials(cfg Config) ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(cfg.ServiceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ExportSnapshot overwrites the snapshot's row, appending one when the
// (month, owner) pair is new. A missing header row is written first.
func (c *Client) ExportSnapshot(ctx context.Context, snap core.MonthlySnapshot) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	keysRange := fmt.Sprintf("%s!A:B", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, keysRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", keysRange, err)
	}

	values := resp.Values
	if len(values) == 0 {
		if err := c.writeRow(ctx, 1, headerRow()); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		values = [][]any{headerRow()}
	}

	row := findSnapshotRow(values, snap.Month, snap.OwnerID)
	if row == 0 {
		row = len(values) + 1
	}

	if err := c.writeRow(ctx, row, snapshotRow(snap)); err != nil {
		return fmt.Errorf("write snapshot %s/%s: %w", snap.Month, snap.OwnerID, err)
	}

	slog.DebugContext(ctx, "Snapshot exported to sheet",
		"month", snap.Month.String(),
		"owner_id", snap.OwnerID,
		"row", row)
	return nil
}

func (c *Client) writeRow(ctx context.Context, row int, cells []any) error {
	rng := fmt.Sprintf("%s!A%d:%s%d", c.sheetName, row, lastColumn, row)
	vr := &gsheet.ValueRange{Values: [][]any{cells}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// ListSnapshots reads the owner's exported snapshots back, newest first.
func (c *Client) ListSnapshots(ctx context.Context, owner string) ([]core.MonthlySnapshot, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:%s", c.sheetName, lastColumn)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseSnapshotRows(resp.Values, owner)
}
