package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	FindByRef(ctx context.Context, db *gorm.DB, licenceRef string) (*Licence, error)
	// LockByRef fetches the licence under a row lock; reconciliation uses
	// it to serialize per-licence work.
	LockByRef(ctx context.Context, db *gorm.DB, licenceRef string) (*Licence, error)
	SetEndDate(ctx context.Context, db *gorm.DB, licenceRef string, reason EndReason, endDate time.Time) error
}
