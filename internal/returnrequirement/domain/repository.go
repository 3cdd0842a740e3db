package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// FetchDueQuery identifies the cycle requirements are resolved against.
// LicenceRef, when set, narrows the run to a single licence (ad-hoc
// regeneration).
type FetchDueQuery struct {
	CycleID        snowflake.ID
	CycleStartDate time.Time
	CycleEndDate   time.Time
	Summer         bool
	LicenceRef     string
}

type Repository interface {
	// FetchDue returns every requirement whose summer flag matches the
	// cycle, whose current return version overlaps it, whose licence has
	// not ended before the cycle starts, and which has no non-void return
	// log in the cycle yet. Read-only.
	FetchDue(ctx context.Context, db *gorm.DB, query FetchDueQuery) ([]DueRequirement, error)
}
