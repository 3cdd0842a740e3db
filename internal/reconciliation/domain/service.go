package domain

import (
	"context"
	"errors"
	"time"

	licencedomain "github.com/openwater/returns/internal/licence/domain"
)

// ErrRegenerationFailed rolls the whole reconciliation back when a
// replacement log cannot be built. Committing the voids without their
// replacements would leave a gap no retry can heal.
var ErrRegenerationFailed = errors.New("regeneration_failed")

// LicenceEndRequest is a licence lifecycle event: the licence stops
// abstracting on EndDate for the given reason.
type LicenceEndRequest struct {
	LicenceRef string
	Reason     licencedomain.EndReason
	EndDate    time.Time
}

// Result reports what reconciliation changed. Generated and Skipped sum
// the generator's per-cycle counts over the run; a generation failure
// aborts the transaction instead of being counted.
type Result struct {
	LicenceRef string `json:"licenceRef"`
	Voided     int    `json:"voided"`
	Generated  int    `json:"generated"`
	Skipped    int    `json:"skipped"`
}

type Service interface {
	// HandleLicenceEnd records the termination date, voids return logs the
	// event invalidated and regenerates truncated replacements, all in one
	// transaction scoped to the licence. Safe to re-run.
	HandleLicenceEnd(ctx context.Context, req LicenceEndRequest) (Result, error)
	// ReconcileLicence rebuilds the licence's log sequence after any
	// lifecycle change (new licence, return version supersession): voids
	// logs that no longer match a live requirement period and generates
	// the ones now missing.
	ReconcileLicence(ctx context.Context, licenceRef string) (Result, error)
}
