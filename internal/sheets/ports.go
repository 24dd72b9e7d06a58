package sheets

import (
	"context"

	"finledger/internal/core"
)

// Ports for outbound adapters.
type (
	// SnapshotExporter publishes a monthly snapshot to an external sheet.
	// Exporting the same (month, owner) twice overwrites the earlier row.
	SnapshotExporter interface {
		ExportSnapshot(ctx context.Context, snap core.MonthlySnapshot) error
	}

	// SnapshotReader reads back exported snapshots, newest month first.
	SnapshotReader interface {
		ListSnapshots(ctx context.Context, owner string) ([]core.MonthlySnapshot, error)
	}
)
