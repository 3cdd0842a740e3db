// Package testdb provides an in-memory sqlite database whose schema
// mirrors the embedded migrations, for service-level tests.
package testdb

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS regions (
		id BIGINT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS licences (
		id BIGINT PRIMARY KEY,
		licence_ref TEXT NOT NULL UNIQUE,
		region_id BIGINT NOT NULL,
		expired_date DATE,
		lapsed_date DATE,
		revoked_date DATE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS return_versions (
		id BIGINT PRIMARY KEY,
		licence_id BIGINT NOT NULL,
		version INT NOT NULL,
		status TEXT NOT NULL DEFAULT 'current',
		start_date DATE NOT NULL,
		end_date DATE,
		reason TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS return_requirements (
		id BIGINT PRIMARY KEY,
		return_version_id BIGINT NOT NULL,
		legacy_id INT NOT NULL,
		summer BOOLEAN NOT NULL DEFAULT FALSE,
		two_part_tariff BOOLEAN NOT NULL DEFAULT FALSE,
		reported_frequency TEXT NOT NULL DEFAULT 'month',
		abstraction_period_start_day INT,
		abstraction_period_start_month INT,
		abstraction_period_end_day INT,
		abstraction_period_end_month INT,
		site_description TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS return_requirement_points (
		id BIGINT PRIMARY KEY,
		return_requirement_id BIGINT NOT NULL,
		description TEXT NOT NULL,
		ngr TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS return_requirement_purposes (
		id BIGINT PRIMARY KEY,
		return_requirement_id BIGINT NOT NULL,
		alias TEXT,
		primary_code TEXT NOT NULL,
		primary_description TEXT NOT NULL,
		secondary_code TEXT NOT NULL,
		secondary_description TEXT NOT NULL,
		tertiary_code TEXT NOT NULL,
		tertiary_description TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS return_cycles (
		id BIGINT PRIMARY KEY,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		due_date DATE NOT NULL,
		summer BOOLEAN NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_return_cycles_start_summer ON return_cycles (start_date, summer)`,
	`CREATE TABLE IF NOT EXISTS return_logs (
		id TEXT PRIMARY KEY,
		return_cycle_id BIGINT NOT NULL,
		return_requirement_id BIGINT NOT NULL,
		licence_ref TEXT NOT NULL,
		return_reference INT NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		due_date DATE NOT NULL,
		received_date DATE,
		status TEXT NOT NULL DEFAULT 'due',
		under_query BOOLEAN NOT NULL DEFAULT FALSE,
		source TEXT NOT NULL DEFAULT 'WRLS',
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS return_submissions (
		id TEXT PRIMARY KEY,
		return_log_id TEXT NOT NULL,
		version INT NOT NULL,
		current BOOLEAN NOT NULL DEFAULT TRUE,
		nil_return BOOLEAN NOT NULL DEFAULT FALSE,
		notes TEXT,
		user_id TEXT NOT NULL,
		user_type TEXT NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_return_submissions_log_version ON return_submissions (return_log_id, version)`,
	`CREATE TABLE IF NOT EXISTS return_submission_lines (
		id TEXT PRIMARY KEY,
		return_submission_id TEXT NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		quantity NUMERIC,
		user_unit TEXT,
		time_period TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_return_submission_lines_period ON return_submission_lines (return_submission_id, start_date, end_date)`,
}

// Open returns an isolated in-memory database with the full schema
// applied.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply test schema: %v", err)
		}
	}

	return conn
}

// Fixtures seeds reference rows tests need. Each helper returns the
// generated row ID.
type Fixtures struct {
	T     *testing.T
	DB    *gorm.DB
	GenID *snowflake.Node
}

func NewFixtures(t *testing.T, conn *gorm.DB) *Fixtures {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return &Fixtures{T: t, DB: conn, GenID: node}
}

// Region returns the region with the given code, inserting it on first
// use so two licences can share a region.
func (f *Fixtures) Region(code string) snowflake.ID {
	f.T.Helper()

	var existing snowflake.ID
	err := f.DB.Raw(`SELECT id FROM regions WHERE code = ?`, code).Scan(&existing).Error
	if err != nil {
		f.T.Fatalf("look up region %q: %v", code, err)
	}
	if existing != 0 {
		return existing
	}

	id := f.GenID.Generate()
	f.exec(
		`INSERT INTO regions (id, code, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, code, "Region "+code, now(), now(),
	)
	return id
}

func (f *Fixtures) Licence(regionID snowflake.ID, licenceRef string, expired, lapsed, revoked *time.Time) snowflake.ID {
	f.T.Helper()
	id := f.GenID.Generate()
	f.exec(
		`INSERT INTO licences (id, licence_ref, region_id, expired_date, lapsed_date, revoked_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, licenceRef, regionID, expired, lapsed, revoked, now(), now(),
	)
	return id
}

func (f *Fixtures) ReturnVersion(licenceID snowflake.ID, version int, status string, startDate time.Time, endDate *time.Time) snowflake.ID {
	f.T.Helper()
	id := f.GenID.Generate()
	f.exec(
		`INSERT INTO return_versions (id, licence_id, version, status, start_date, end_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, licenceID, version, status, startDate, endDate, now(), now(),
	)
	return id
}

type RequirementOpts struct {
	LegacyID          int
	Summer            bool
	TwoPartTariff     bool
	ReportedFrequency string
	// NoAbstractionPeriod leaves the period bounds null, imitating
	// malformed legacy data.
	NoAbstractionPeriod bool
}

func (f *Fixtures) ReturnRequirement(versionID snowflake.ID, opts RequirementOpts) snowflake.ID {
	f.T.Helper()
	if opts.ReportedFrequency == "" {
		opts.ReportedFrequency = "month"
	}

	var startDay, startMonth, endDay, endMonth *int
	if !opts.NoAbstractionPeriod {
		startDay, startMonth, endDay, endMonth = intp(1), intp(4), intp(31), intp(3)
	}

	id := f.GenID.Generate()
	f.exec(
		`INSERT INTO return_requirements (
			id, return_version_id, legacy_id, summer, two_part_tariff, reported_frequency,
			abstraction_period_start_day, abstraction_period_start_month,
			abstraction_period_end_day, abstraction_period_end_month,
			site_description, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, versionID, opts.LegacyID, opts.Summer, opts.TwoPartTariff, opts.ReportedFrequency,
		startDay, startMonth, endDay, endMonth,
		"Borehole at test site", now(), now(),
	)
	return id
}

func (f *Fixtures) Point(requirementID snowflake.ID, description, ngr string) snowflake.ID {
	f.T.Helper()
	id := f.GenID.Generate()
	f.exec(
		`INSERT INTO return_requirement_points (id, return_requirement_id, description, ngr, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, requirementID, description, ngr, now(), now(),
	)
	return id
}

func (f *Fixtures) Purpose(requirementID snowflake.ID) snowflake.ID {
	f.T.Helper()
	id := f.GenID.Generate()
	f.exec(
		`INSERT INTO return_requirement_purposes (
			id, return_requirement_id, alias,
			primary_code, primary_description,
			secondary_code, secondary_description,
			tertiary_code, tertiary_description,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, requirementID, "",
		"A", "Agriculture",
		"AGR", "General Agriculture",
		"140", "General Farming & Domestic",
		now(), now(),
	)
	return id
}

func (f *Fixtures) exec(sql string, args ...any) {
	f.T.Helper()
	if err := f.DB.Exec(sql, args...).Error; err != nil {
		f.T.Fatalf("fixture insert: %v", err)
	}
}

func now() time.Time {
	return time.Now().UTC()
}

func intp(v int) *int {
	return &v
}

// Date builds a UTC calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Datep is Date returning a pointer, for nullable columns.
func Datep(year int, month time.Month, day int) *time.Time {
	d := Date(year, month, day)
	return &d
}
