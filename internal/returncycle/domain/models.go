package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ReturnCycle is one recurring annual reporting period. Summer cycles run
// 1 May to 31 October, all-year cycles 1 April to 31 March. Rows are
// immutable once created and unique per (start_date, summer).
type ReturnCycle struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	StartDate time.Time    `gorm:"not null;uniqueIndex:ux_return_cycles_start_summer,priority:1" json:"startDate"`
	EndDate   time.Time    `gorm:"not null" json:"endDate"`
	DueDate   time.Time    `gorm:"not null" json:"dueDate"`
	Summer    bool         `gorm:"not null;uniqueIndex:ux_return_cycles_start_summer,priority:2" json:"summer"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName sets the database table name.
func (ReturnCycle) TableName() string { return "return_cycles" }
