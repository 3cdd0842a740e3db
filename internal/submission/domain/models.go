package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Method values a submission can be reported with.
const (
	MethodAbstractionVolumes = "abstractionVolumes"
	MethodOneMeter           = "oneMeter"
)

// ReturnSubmission is one versioned dataset reported against a return log.
// Within a log, versions are strictly increasing from 1 and exactly one
// submission carries current=true.
type ReturnSubmission struct {
	ID          uuid.UUID                    `gorm:"primaryKey;type:uuid" json:"id"`
	ReturnLogID string                       `gorm:"not null;uniqueIndex:ux_return_submissions_log_version,priority:1" json:"returnLogId"`
	Version     int                          `gorm:"not null;uniqueIndex:ux_return_submissions_log_version,priority:2" json:"version"`
	Current     bool                         `gorm:"not null;default:true" json:"current"`
	NilReturn   bool                         `gorm:"not null;default:false" json:"nilReturn"`
	Notes       string                       `json:"notes,omitempty"`
	UserID      string                       `gorm:"not null" json:"userId"`
	UserType    string                       `gorm:"not null" json:"userType"`
	Metadata    datatypes.JSONType[Metadata] `gorm:"type:jsonb" json:"metadata"`
	CreatedAt   time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`

	Lines []Line `gorm:"-" json:"lines"`
}

func (ReturnSubmission) TableName() string { return "return_submissions" }

// Line is one dated quantity row within a submission, unique per
// (submission, start date, end date). Reading is never persisted; it is
// attached from the submission metadata at read time.
type Line struct {
	ID                 uuid.UUID           `gorm:"primaryKey;type:uuid" json:"id"`
	ReturnSubmissionID uuid.UUID           `gorm:"not null;index" json:"returnSubmissionId"`
	StartDate          time.Time           `gorm:"not null" json:"startDate"`
	EndDate            time.Time           `gorm:"not null" json:"endDate"`
	Quantity           decimal.NullDecimal `json:"quantity"`
	UserUnit           string              `json:"userUnit,omitempty"`
	TimePeriod         string              `gorm:"not null" json:"timePeriod"`
	CreatedAt          time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`

	Reading *float64 `gorm:"-" json:"reading,omitempty"`
}

func (Line) TableName() string { return "return_submission_lines" }

// Metadata captures how the submission was reported: units, method and any
// meter details including the per-period readings map.
type Metadata struct {
	Units  string  `json:"units,omitempty"`
	Method string  `json:"method"`
	Meters []Meter `json:"meters,omitempty"`
}

type Meter struct {
	Manufacturer string  `json:"manufacturer,omitempty"`
	SerialNumber string  `json:"serialNumber,omitempty"`
	StartReading float64 `json:"startReading,omitempty"`
	Multiplier   int     `json:"multiplier,omitempty"`
	// Readings maps "<startDate>_<endDate>" (ISO dates) to the meter
	// reading recorded for that period.
	Readings map[string]float64 `json:"readings,omitempty"`
}

// ReadingKey is how meter readings are keyed inside submission metadata.
func ReadingKey(startDate, endDate time.Time) string {
	return fmt.Sprintf("%s_%s", startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
}

// ApplyReadings joins each line against the first meter's readings map and
// attaches the matching value, or nil when absent. Volume-only submissions
// are left untouched. Presentation-time enrichment only.
func ApplyReadings(submission *ReturnSubmission) {
	if submission == nil {
		return
	}

	metadata := submission.Metadata.Data()
	if metadata.Method == MethodAbstractionVolumes || len(metadata.Meters) == 0 {
		return
	}

	readings := metadata.Meters[0].Readings
	for i := range submission.Lines {
		line := &submission.Lines[i]
		if value, ok := readings[ReadingKey(line.StartDate, line.EndDate)]; ok {
			reading := value
			line.Reading = &reading
		} else {
			line.Reading = nil
		}
	}
}
