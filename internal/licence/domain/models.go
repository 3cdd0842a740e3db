package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Region is reference data; its code is embedded in return log identity
// keys, so it never changes once assigned.
type Region struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Code      string       `gorm:"not null;unique"`
	Name      string       `gorm:"not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Region) TableName() string { return "regions" }

// Licence is an abstraction licence. The three end dates are set
// independently; whichever is earliest terminates the licence's reporting
// obligations.
type Licence struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	LicenceRef  string       `gorm:"not null;unique"`
	RegionID    snowflake.ID `gorm:"not null"`
	ExpiredDate *time.Time
	LapsedDate  *time.Time
	RevokedDate *time.Time
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Licence) TableName() string { return "licences" }

// EndDate returns the earliest of the licence's end dates, or nil when the
// licence is still live.
func (l *Licence) EndDate() *time.Time {
	var earliest *time.Time
	for _, candidate := range []*time.Time{l.ExpiredDate, l.LapsedDate, l.RevokedDate} {
		if candidate == nil {
			continue
		}
		if earliest == nil || candidate.Before(*earliest) {
			earliest = candidate
		}
	}
	return earliest
}

// EndReason identifies which lifecycle event ended a licence.
type EndReason string

const (
	EndReasonExpired EndReason = "expired"
	EndReasonLapsed  EndReason = "lapsed"
	EndReasonRevoked EndReason = "revoked"
)

func (r EndReason) Valid() bool {
	switch r {
	case EndReasonExpired, EndReasonLapsed, EndReasonRevoked:
		return true
	}
	return false
}

var (
	ErrLicenceNotFound  = errors.New("licence_not_found")
	ErrInvalidEndReason = errors.New("invalid_end_reason")
)
