package domain

import (
	returnrequirementdomain "github.com/openwater/returns/internal/returnrequirement/domain"
)

// Metadata is the denormalized snapshot stored on every return log. Points
// and purposes are flattened to plain descriptive values, not foreign
// keys, so the log stays self-describing if reference data later changes.
type Metadata struct {
	Description       string            `json:"description"`
	IsCurrent         bool              `json:"isCurrent"`
	IsFinal           bool              `json:"isFinal"`
	IsSummer          bool              `json:"isSummer"`
	IsTwoPartTariff   bool              `json:"isTwoPartTariff"`
	AbstractionPeriod AbstractionPeriod `json:"abstractionPeriod"`
	Points            []PointSnapshot   `json:"points"`
	Purposes          []PurposeSnapshot `json:"purposes"`
	Version           int               `json:"version"`
}

type AbstractionPeriod struct {
	StartDay   int `json:"startDay"`
	StartMonth int `json:"startMonth"`
	EndDay     int `json:"endDay"`
	EndMonth   int `json:"endMonth"`
}

type PointSnapshot struct {
	Description     string `json:"name"`
	NationalGridRef string `json:"ngr"`
}

type PurposeSnapshot struct {
	Alias     string      `json:"alias,omitempty"`
	Primary   PurposeTier `json:"primary"`
	Secondary PurposeTier `json:"secondary"`
	Tertiary  PurposeTier `json:"tertiary"`
}

type PurposeTier struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func snapshotPoints(points []returnrequirementdomain.Point) []PointSnapshot {
	snapshots := make([]PointSnapshot, 0, len(points))
	for _, point := range points {
		snapshots = append(snapshots, PointSnapshot{
			Description:     point.Description,
			NationalGridRef: point.NGR,
		})
	}
	return snapshots
}

func snapshotPurposes(purposes []returnrequirementdomain.Purpose) []PurposeSnapshot {
	snapshots := make([]PurposeSnapshot, 0, len(purposes))
	for _, purpose := range purposes {
		snapshots = append(snapshots, PurposeSnapshot{
			Alias:     purpose.Alias,
			Primary:   PurposeTier{Code: purpose.PrimaryCode, Description: purpose.PrimaryDescription},
			Secondary: PurposeTier{Code: purpose.SecondaryCode, Description: purpose.SecondaryDescription},
			Tertiary:  PurposeTier{Code: purpose.TertiaryCode, Description: purpose.TertiaryDescription},
		})
	}
	return snapshots
}
