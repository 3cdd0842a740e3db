package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// VoidedLog is the slice of a voided row reconciliation needs to decide
// which cycles to regenerate.
type VoidedLog struct {
	ID            string
	ReturnCycleID snowflake.ID
	StartDate     time.Time
	EndDate       time.Time
}

// ListQuery pages through a licence's return logs by identity key.
// AfterID is exclusive; Limit is the page size, the repository fetches one
// extra row so callers can detect a further page.
type ListQuery struct {
	LicenceRef  string
	IncludeVoid bool
	AfterID     string
	Limit       int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, log *ReturnLog) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*ReturnLog, error)
	// LockByID fetches the log under a row lock for submission writes.
	LockByID(ctx context.Context, db *gorm.DB, id string) (*ReturnLog, error)
	FindByLicence(ctx context.Context, db *gorm.DB, licenceRef string, includeVoid bool) ([]ReturnLog, error)
	ListByLicence(ctx context.Context, db *gorm.DB, query ListQuery) ([]ReturnLog, error)
	// VoidEndingAfter voids every non-void log of the licence whose period
	// extends past the given date and reports the rows it touched.
	VoidEndingAfter(ctx context.Context, db *gorm.DB, licenceRef string, after time.Time) ([]VoidedLog, error)
	VoidByID(ctx context.Context, db *gorm.DB, id string) error
}
