package domain

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	MaxVersion(ctx context.Context, db *gorm.DB, returnLogID string) (int, error)
	// SupersedeCurrent flips current=false on the log's current
	// submission, if any.
	SupersedeCurrent(ctx context.Context, db *gorm.DB, returnLogID string) error
	Insert(ctx context.Context, db *gorm.DB, submission *ReturnSubmission) error
	InsertLines(ctx context.Context, db *gorm.DB, lines []Line) error
	FindCurrent(ctx context.Context, db *gorm.DB, returnLogID string) (*ReturnSubmission, error)
	FindByVersion(ctx context.Context, db *gorm.DB, returnLogID string, version int) (*ReturnSubmission, error)
	FindLines(ctx context.Context, db *gorm.DB, submissionID uuid.UUID) ([]Line, error)
}
