package domain

import (
	"context"
	"errors"
	"time"
)

type GetOrCreateRequest struct {
	// Date is any date inside the wanted cycle; the service snaps it to
	// the cycle boundaries.
	Date   time.Time
	Summer bool
}

type Service interface {
	// GetOrCreate returns the cycle containing the given date, creating
	// the row if this is the first time it is needed. Idempotent.
	GetOrCreate(ctx context.Context, req GetOrCreateRequest) (*ReturnCycle, error)
	List(ctx context.Context) ([]ReturnCycle, error)
}

var ErrCycleNotFound = errors.New("return_cycle_not_found")
