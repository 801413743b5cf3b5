// Package sheets defines the outbound port for mirroring ledger rows to a
// spreadsheet.
package sheets

import (
	"context"

	"carbon/internal/core"
)

// ActivityMirror copies logged activities to an external sheet. The ledger
// store stays the source of truth.
type ActivityMirror interface {
	Append(ctx context.Context, r core.ActivityRecord) (rowRef string, err error)
}
