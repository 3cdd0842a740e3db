package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type LineInput struct {
	StartDate  time.Time
	EndDate    time.Time
	Quantity   decimal.NullDecimal
	UserUnit   string
	TimePeriod string
}

type CreateRequest struct {
	ReturnLogID string
	UserID      string
	UserType    string
	NilReturn   bool
	Notes       string
	Metadata    Metadata
	Lines       []LineInput
}

type Service interface {
	// Create inserts the next submission version for a return log,
	// superseding the previous current one. The supersede and the insert
	// are one transaction: readers never observe zero or two current
	// submissions.
	Create(ctx context.Context, req CreateRequest) (*ReturnSubmission, error)
	// GetCurrent fetches the current submission with its lines, meter
	// readings attached.
	GetCurrent(ctx context.Context, returnLogID string) (*ReturnSubmission, error)
	GetByVersion(ctx context.Context, returnLogID string, version int) (*ReturnSubmission, error)
}

var (
	ErrSubmissionNotFound = errors.New("return_submission_not_found")
	ErrReturnLogVoid      = errors.New("return_log_void")
	ErrDuplicateLine      = errors.New("duplicate_submission_line")
)
