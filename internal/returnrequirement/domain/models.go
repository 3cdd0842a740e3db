package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type ReturnVersionStatus string

const (
	ReturnVersionStatusCurrent    ReturnVersionStatus = "current"
	ReturnVersionStatusSuperseded ReturnVersionStatus = "superseded"
)

// ReturnVersion scopes a set of return requirements to a licence and a
// validity window. Creating a new version supersedes the previous one; the
// requirements themselves are never mutated across versions.
type ReturnVersion struct {
	ID        snowflake.ID        `gorm:"primaryKey"`
	LicenceID snowflake.ID        `gorm:"not null;index"`
	Version   int                 `gorm:"not null"`
	Status    ReturnVersionStatus `gorm:"type:text;not null;default:'current'"`
	StartDate time.Time           `gorm:"not null"`
	EndDate   *time.Time
	Reason    string
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ReturnVersion) TableName() string { return "return_versions" }

// ReturnRequirement is one standing reporting obligation within a return
// version. LegacyID is the numeric reference carried over from the
// regional legacy system; it forms part of the return log identity key.
type ReturnRequirement struct {
	ID                          snowflake.ID              `gorm:"primaryKey"`
	ReturnVersionID             snowflake.ID              `gorm:"not null;index"`
	LegacyID                    int                       `gorm:"not null"`
	Summer                      bool                      `gorm:"not null;default:false"`
	TwoPartTariff               bool                      `gorm:"not null;default:false"`
	ReportedFrequency           string                    `gorm:"type:text;not null;default:'month'"`
	AbstractionPeriodStartDay   *int
	AbstractionPeriodStartMonth *int
	AbstractionPeriodEndDay     *int
	AbstractionPeriodEndMonth   *int
	SiteDescription             string
	CreatedAt                   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt                   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ReturnRequirement) TableName() string { return "return_requirements" }

// Point is an abstraction point attached to a requirement.
type Point struct {
	ID                  snowflake.ID `gorm:"primaryKey"`
	ReturnRequirementID snowflake.ID `gorm:"not null;index"`
	Description         string       `gorm:"not null"`
	NGR                 string       `gorm:"column:ngr;not null"`
	CreatedAt           time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt           time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Point) TableName() string { return "return_requirement_points" }

// Purpose is an abstraction purpose attached to a requirement, carrying
// the three-level legacy purpose classification.
type Purpose struct {
	ID                   snowflake.ID `gorm:"primaryKey"`
	ReturnRequirementID  snowflake.ID `gorm:"not null;index"`
	Alias                string
	PrimaryCode          string    `gorm:"not null"`
	PrimaryDescription   string    `gorm:"not null"`
	SecondaryCode        string    `gorm:"not null"`
	SecondaryDescription string    `gorm:"not null"`
	TertiaryCode         string    `gorm:"not null"`
	TertiaryDescription  string    `gorm:"not null"`
	CreatedAt            time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt            time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Purpose) TableName() string { return "return_requirement_purposes" }

// DueRequirement is a resolved requirement enriched with everything the
// generator needs to build a return log without further queries.
type DueRequirement struct {
	RequirementID               snowflake.ID
	LegacyID                    int
	Summer                      bool
	TwoPartTariff               bool
	ReportedFrequency           string
	AbstractionPeriodStartDay   *int
	AbstractionPeriodStartMonth *int
	AbstractionPeriodEndDay     *int
	AbstractionPeriodEndMonth   *int
	SiteDescription             string

	VersionStartDate time.Time
	VersionEndDate   *time.Time

	LicenceID   snowflake.ID
	LicenceRef  string
	ExpiredDate *time.Time
	LapsedDate  *time.Time
	RevokedDate *time.Time

	RegionCode string

	Points   []Point   `gorm:"-"`
	Purposes []Purpose `gorm:"-"`
}
