package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusDue       Status = "due"
	StatusCompleted Status = "completed"
	StatusVoid      Status = "void"
)

// SourceWRLS tags logs generated by this system, as opposed to ones
// migrated from the legacy regional databases.
const SourceWRLS = "WRLS"

// ReturnLog is one materialized reporting obligation: one requirement in
// one cycle. Its primary key is the deterministic identity key, so
// regenerating the same requirement+cycle can never create a duplicate.
// Downstream systems parse the key by splitting on ':'; the format is
// load-bearing.
type ReturnLog struct {
	ID                  string                       `gorm:"primaryKey" json:"id"`
	ReturnCycleID       snowflake.ID                 `gorm:"not null;index" json:"returnCycleId"`
	ReturnRequirementID snowflake.ID                 `gorm:"not null" json:"returnRequirementId"`
	LicenceRef          string                       `gorm:"not null;index" json:"licenceRef"`
	ReturnReference     int                          `gorm:"not null" json:"returnReference"`
	StartDate           time.Time                    `gorm:"not null" json:"startDate"`
	EndDate             time.Time                    `gorm:"not null" json:"endDate"`
	DueDate             time.Time                    `gorm:"not null" json:"dueDate"`
	ReceivedDate        *time.Time                   `json:"receivedDate,omitempty"`
	Status              Status                       `gorm:"type:text;not null;default:'due'" json:"status"`
	UnderQuery          bool                         `gorm:"not null;default:false" json:"underQuery"`
	Source              string                       `gorm:"not null;default:'WRLS'" json:"source"`
	Metadata            datatypes.JSONType[Metadata] `gorm:"type:jsonb" json:"metadata"`
	CreatedAt           time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt           time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName sets the database table name.
func (ReturnLog) TableName() string { return "return_logs" }

// IdentityKey builds the deterministic return log key. The dates are part
// of the key on purpose: a truncated replacement log gets a new identity
// while the voided original keeps its old one.
func IdentityKey(regionCode, licenceRef string, legacyID int, startDate, endDate time.Time) string {
	return fmt.Sprintf("v1:%s:%s:%d:%s:%s",
		regionCode,
		licenceRef,
		legacyID,
		startDate.Format("2006-01-02"),
		endDate.Format("2006-01-02"),
	)
}
