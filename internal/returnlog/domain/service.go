package domain

import (
	"context"
	"errors"
	"time"

	"github.com/openwater/returns/pkg/db/pagination"
	"gorm.io/gorm"
)

// GenerateRequest identifies a generation run. Date is any date inside the
// wanted cycle. LicenceRef, when set, restricts the run to one licence.
type GenerateRequest struct {
	Date       time.Time
	Summer     bool
	LicenceRef string
}

// GenerateResult reports what one run did. Failed counts requirements
// skipped over data-quality errors; they do not abort the run.
type GenerateResult struct {
	CycleID   string `json:"cycleId"`
	Generated int    `json:"generated"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}

// ListRequest pages through one licence's return logs.
type ListRequest struct {
	LicenceRef  string
	IncludeVoid bool
	Pagination  pagination.Pagination
}

type ListResult struct {
	ReturnLogs []ReturnLog          `json:"returnLogs"`
	PageInfo   *pagination.PageInfo `json:"pageInfo"`
}

type Service interface {
	// GenerateForCycle materializes return logs for every requirement due
	// in the cycle containing the request date. Idempotent; re-runs skip
	// already generated logs.
	GenerateForCycle(ctx context.Context, req GenerateRequest) (GenerateResult, error)
	// GenerateForCycleTx is GenerateForCycle running on the caller's
	// transaction, so reconciliation can void and regenerate atomically.
	GenerateForCycleTx(ctx context.Context, tx *gorm.DB, req GenerateRequest) (GenerateResult, error)
	// ListByLicence returns the licence's logs ordered by identity key,
	// cursor paginated.
	ListByLicence(ctx context.Context, req ListRequest) (ListResult, error)
}

var ErrReturnLogNotFound = errors.New("return_log_not_found")
