package domain

import (
	"errors"
	"time"

	returncycledomain "github.com/openwater/returns/internal/returncycle/domain"
	returnrequirementdomain "github.com/openwater/returns/internal/returnrequirement/domain"
	"gorm.io/datatypes"
)

var (
	// ErrMissingAbstractionPeriod flags malformed legacy data; the batch
	// skips the requirement and carries on.
	ErrMissingAbstractionPeriod = errors.New("missing_abstraction_period")
	// ErrEmptyPeriod means the requirement has no reportable days inside
	// the cycle once truncation is applied.
	ErrEmptyPeriod = errors.New("empty_return_period")
)

// NewReturnLog maps one resolved requirement and its cycle into a return
// log row. Pure; all date truncation and flag derivation happens here.
func NewReturnLog(requirement returnrequirementdomain.DueRequirement, cycle returncycledomain.ReturnCycle) (*ReturnLog, error) {
	if requirement.AbstractionPeriodStartDay == nil ||
		requirement.AbstractionPeriodStartMonth == nil ||
		requirement.AbstractionPeriodEndDay == nil ||
		requirement.AbstractionPeriodEndMonth == nil {
		return nil, ErrMissingAbstractionPeriod
	}

	startDate := cycle.StartDate
	if requirement.VersionStartDate.After(startDate) {
		startDate = requirement.VersionStartDate
	}

	endDate := earliestEndDate(requirement, cycle)
	if endDate.Before(startDate) {
		return nil, ErrEmptyPeriod
	}

	metadata := Metadata{
		Description:     requirement.SiteDescription,
		IsCurrent:       requirement.VersionEndDate == nil,
		IsFinal:         endDate.Before(cycle.EndDate),
		IsSummer:        requirement.Summer,
		IsTwoPartTariff: requirement.TwoPartTariff,
		AbstractionPeriod: AbstractionPeriod{
			StartDay:   *requirement.AbstractionPeriodStartDay,
			StartMonth: *requirement.AbstractionPeriodStartMonth,
			EndDay:     *requirement.AbstractionPeriodEndDay,
			EndMonth:   *requirement.AbstractionPeriodEndMonth,
		},
		Points:   snapshotPoints(requirement.Points),
		Purposes: snapshotPurposes(requirement.Purposes),
		Version:  1,
	}

	now := time.Now().UTC()
	return &ReturnLog{
		ID:                  IdentityKey(requirement.RegionCode, requirement.LicenceRef, requirement.LegacyID, startDate, endDate),
		ReturnCycleID:       cycle.ID,
		ReturnRequirementID: requirement.RequirementID,
		LicenceRef:          requirement.LicenceRef,
		ReturnReference:     requirement.LegacyID,
		StartDate:           startDate,
		EndDate:             endDate,
		DueDate:             cycle.DueDate,
		Status:              StatusDue,
		Source:              SourceWRLS,
		Metadata:            datatypes.NewJSONType(metadata),
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// earliestEndDate picks the earliest of the licence end dates, the version
// end date and the cycle end. A termination after the cycle end is
// ignored; the log still ends at the cycle boundary.
func earliestEndDate(requirement returnrequirementdomain.DueRequirement, cycle returncycledomain.ReturnCycle) time.Time {
	endDate := cycle.EndDate
	for _, candidate := range []*time.Time{
		requirement.ExpiredDate,
		requirement.LapsedDate,
		requirement.RevokedDate,
		requirement.VersionEndDate,
	} {
		if candidate != nil && candidate.Before(endDate) {
			endDate = *candidate
		}
	}
	return endDate
}
