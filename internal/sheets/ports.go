package sheets

import "context"

// ShiftRow is the flattened form of a ledger entry for spreadsheet export.
type ShiftRow struct {
	JobName   string
	Date      string
	StartTime string
	EndTime   string
	Total     float64
}

// Ports for outbound adapters.
type (
	ShiftWriter interface {
		Append(ctx context.Context, row ShiftRow) (rowRef string, err error)
	}
)
