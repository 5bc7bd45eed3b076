// pkg/ledger/ledger.go
package ledger

import (
	"context"

	"github.com/wearalytics/tracker-qc/pkg/model"
)

// Ledger persists remediation records for later audit
type Ledger interface {
	// Record stores the remediation records taken during one engine run
	Record(ctx context.Context, runID string, records []model.RemediationRecord) error
	// Close releases any resources held by the ledger
	Close() error
}

// Nop is a Ledger that stores nothing; used when no backing store is
// configured. Remediation is still fully described in the validation report.
type Nop struct{}

// Record implements Ledger
func (Nop) Record(ctx context.Context, runID string, records []model.RemediationRecord) error {
	return nil
}

// Close implements Ledger
func (Nop) Close() error {
	return nil
}
