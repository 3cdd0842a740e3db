package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	returncycledomain "github.com/openwater/returns/internal/returncycle/domain"
	returnlogdomain "github.com/openwater/returns/internal/returnlog/domain"
	returnlogrepository "github.com/openwater/returns/internal/returnlog/repository"
	returnrequirementrepository "github.com/openwater/returns/internal/returnrequirement/repository"
	"github.com/openwater/returns/internal/testdb"
	"github.com/openwater/returns/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type generatorFixture struct {
	svc      *Service
	conn     *gorm.DB
	fixtures *testdb.Fixtures
}

func newGeneratorFixture(t *testing.T) *generatorFixture {
	t.Helper()
	conn := testdb.Open(t)
	fixtures := testdb.NewFixtures(t, conn)

	svc := NewService(ServiceParam{
		DB:              conn,
		Log:             zap.NewNop(),
		GenID:           fixtures.GenID,
		RequirementRepo: returnrequirementrepository.Provide(),
		ReturnLogRepo:   returnlogrepository.Provide(),
	}).(*Service)

	return &generatorFixture{svc: svc, conn: conn, fixtures: fixtures}
}

// seedRequirement wires up region -> licence -> current version ->
// requirement with one point and one purpose, and returns the version ID.
func (f *generatorFixture) seedRequirement(regionCode, licenceRef string, legacyID int, expired *time.Time, opts testdb.RequirementOpts) snowflake.ID {
	regionID := f.fixtures.Region(regionCode)
	licenceID := f.fixtures.Licence(regionID, licenceRef, expired, nil, nil)
	versionID := f.fixtures.ReturnVersion(licenceID, 1, "current", testdb.Date(2022, time.April, 1), nil)
	opts.LegacyID = legacyID
	requirementID := f.fixtures.ReturnRequirement(versionID, opts)
	f.fixtures.Point(requirementID, "Borehole A", "TQ 123 456")
	f.fixtures.Purpose(requirementID)
	return versionID
}

func (f *generatorFixture) findLog(t *testing.T, id string) *returnlogdomain.ReturnLog {
	t.Helper()
	log, err := returnlogrepository.Provide().FindByID(context.Background(), f.conn, id)
	require.NoError(t, err)
	require.NotNil(t, log, "expected return log %s", id)
	return log
}

func (f *generatorFixture) countLogs(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.conn.Raw(`SELECT COUNT(*) FROM return_logs`).Scan(&count).Error)
	return count
}

func TestGenerateForCycleCreatesLog(t *testing.T) {
	f := newGeneratorFixture(t)
	f.seedRequirement("6", "01/117", 10032788, nil, testdb.RequirementOpts{})

	result, err := f.svc.GenerateForCycle(context.Background(), returnlogdomain.GenerateRequest{
		Date: testdb.Date(2024, time.June, 15),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Generated)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 0, result.Failed)

	log := f.findLog(t, "v1:6:01/117:10032788:2024-04-01:2025-03-31")
	assert.Equal(t, returnlogdomain.StatusDue, log.Status)
	assert.Equal(t, returnlogdomain.SourceWRLS, log.Source)
	assert.Equal(t, "01/117", log.LicenceRef)
	assert.Equal(t, 10032788, log.ReturnReference)
	assert.Equal(t, testdb.Date(2025, time.April, 28), returncycledomain.Date(log.DueDate))

	metadata := log.Metadata.Data()
	assert.True(t, metadata.IsCurrent)
	assert.False(t, metadata.IsFinal)
	assert.False(t, metadata.IsSummer)
	assert.Equal(t, 1, metadata.Version)
	require.Len(t, metadata.Points, 1)
	assert.Equal(t, "Borehole A", metadata.Points[0].Description)
	assert.Equal(t, "TQ 123 456", metadata.Points[0].NationalGridRef)
	require.Len(t, metadata.Purposes, 1)
	assert.Equal(t, "A", metadata.Purposes[0].Primary.Code)
}

func TestGenerateForCycleIsIdempotent(t *testing.T) {
	f := newGeneratorFixture(t)
	f.seedRequirement("6", "01/117", 10032788, nil, testdb.RequirementOpts{})

	req := returnlogdomain.GenerateRequest{Date: testdb.Date(2024, time.June, 15)}

	first, err := f.svc.GenerateForCycle(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Generated)

	second, err := f.svc.GenerateForCycle(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Generated)
	assert.Equal(t, 0, second.Failed)

	assert.EqualValues(t, 1, f.countLogs(t))
}

func TestGenerateForCycleTruncatesAtLicenceExpiry(t *testing.T) {
	f := newGeneratorFixture(t)
	f.seedRequirement("6", "01/117", 10032788, testdb.Datep(2024, time.September, 30), testdb.RequirementOpts{})

	result, err := f.svc.GenerateForCycle(context.Background(), returnlogdomain.GenerateRequest{
		Date: testdb.Date(2024, time.June, 15),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Generated)

	log := f.findLog(t, "v1:6:01/117:10032788:2024-04-01:2024-09-30")
	assert.Equal(t, testdb.Date(2024, time.September, 30), returncycledomain.Date(log.EndDate))
	assert.True(t, log.Metadata.Data().IsFinal)
}

func TestGenerateForCycleIgnoresExpiryAfterCycleEnd(t *testing.T) {
	f := newGeneratorFixture(t)
	f.seedRequirement("6", "01/117", 10032788, testdb.Datep(2026, time.January, 15), testdb.RequirementOpts{})

	result, err := f.svc.GenerateForCycle(context.Background(), returnlogdomain.GenerateRequest{
		Date: testdb.Date(2024, time.June, 15),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Generated)

	log := f.findLog(t, "v1:6:01/117:10032788:2024-04-01:2025-03-31")
	assert.False(t, log.Metadata.Data().IsFinal)
}

func TestGenerateForCycleSkipsExpiredBeforeCycleStart(t *testing.T) {
	f := newGeneratorFixture(t)
	f.seedRequirement("6", "01/117", 10032788, testdb.Datep(2024, time.January, 31), testdb.RequirementOpts{})

	result, err := f.svc.GenerateForCycle(context.Background(), returnlogdomain.GenerateRequest{
		Date: testdb.Date(2024, time.June, 15),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Generated)
	assert.EqualValues(t, 0, f.countLogs(t))
}

func TestGenerateForCycleSkipsEmptyReportingPeriod(t *testing.T) {
	f := newGeneratorFixture(t)

	// Licence revoked mid-cycle, version only starting after that: there
	// is no period left to report against.
	regionID := f.fixtures.Region("6")
	licenceID := f.fixtures.Licence(regionID, "01/117", nil, nil, testdb.Datep(2024, time.May, 31))
	versionID := f.fixtures.ReturnVersion(licenceID, 1, "current", testdb.Date(2024, time.July, 1), nil)
	requirementID := f.fixtures.ReturnRequirement(versionID, testdb.RequirementOpts{LegacyID: 10032788})
	f.fixtures.Point(requirementID, "Borehole A", "TQ 123 456")
	f.fixtures.Purpose(requirementID)

	result, err := f.svc.GenerateForCycle(context.Background(), returnlogdomain.GenerateRequest{
		Date: testdb.Date(2024, time.June, 15),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Generated)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Failed)
	assert.EqualValues(t, 0, f.countLogs(t))
}

func TestGenerateForCycleMatchesSummerFlag(t *testing.T) {
	f := newGeneratorFixture(t)
	f.seedRequirement("6", "01/117", 10032788, nil, testdb.RequirementOpts{Summer: true})

	allYear, err := f.svc.GenerateForCycle(context.Background(), returnlogdomain.GenerateRequest{
		Date: testdb.Date(2024, time.June, 15),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, allYear.Generated)

	summer, err := f.svc.GenerateForCycle(context.Background(), returnlogdomain.GenerateRequest{
		Date:   testdb.Date(2024, time.June, 15),
		Summer: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summer.Generated)

	log := f.findLog(t, "v1:6:01/117:10032788:2024-05-01:2024-10-31")
	assert.True(t, log.Metadata.Data().IsSummer)
	assert.Equal(t, testdb.Date(2024, time.November, 28), returncycledomain.Date(log.DueDate))
}

func TestGenerateForCycleFiltersByLicence(t *testing.T) {
	f := newGeneratorFixture(t)
	f.seedRequirement("6", "01/117", 10032788, nil, testdb.RequirementOpts{})
	f.seedRequirement("6", "02/200", 20000001, nil, testdb.RequirementOpts{})

	result, err := f.svc.GenerateForCycle(context.Background(), returnlogdomain.GenerateRequest{
		Date:       testdb.Date(2024, time.June, 15),
		LicenceRef: "01/117",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Generated)
	assert.EqualValues(t, 1, f.countLogs(t))
	f.findLog(t, "v1:6:01/117:10032788:2024-04-01:2025-03-31")
}

func TestGenerateForCycleContinuesPastMalformedRequirement(t *testing.T) {
	f := newGeneratorFixture(t)
	f.seedRequirement("6", "01/117", 10032788, nil, testdb.RequirementOpts{NoAbstractionPeriod: true})
	f.seedRequirement("6", "02/200", 20000001, nil, testdb.RequirementOpts{})

	result, err := f.svc.GenerateForCycle(context.Background(), returnlogdomain.GenerateRequest{
		Date: testdb.Date(2024, time.June, 15),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Generated)
	assert.Equal(t, 1, result.Failed)
	f.findLog(t, "v1:6:02/200:20000001:2024-04-01:2025-03-31")
}

func TestGenerateForCycleUsesVersionWindow(t *testing.T) {
	f := newGeneratorFixture(t)

	regionID := f.fixtures.Region("6")
	licenceID := f.fixtures.Licence(regionID, "01/117", nil, nil, nil)
	versionID := f.fixtures.ReturnVersion(licenceID, 2, "current",
		testdb.Date(2024, time.June, 1), testdb.Datep(2024, time.December, 31))
	requirementID := f.fixtures.ReturnRequirement(versionID, testdb.RequirementOpts{LegacyID: 10032788})
	f.fixtures.Point(requirementID, "Borehole A", "TQ 123 456")
	f.fixtures.Purpose(requirementID)

	result, err := f.svc.GenerateForCycle(context.Background(), returnlogdomain.GenerateRequest{
		Date: testdb.Date(2024, time.June, 15),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Generated)

	log := f.findLog(t, "v1:6:01/117:10032788:2024-06-01:2024-12-31")
	metadata := log.Metadata.Data()
	assert.False(t, metadata.IsCurrent, "bounded version window means a newer version will follow")
	assert.True(t, metadata.IsFinal)
}

func TestListByLicencePaginates(t *testing.T) {
	f := newGeneratorFixture(t)
	versionID := f.seedRequirement("6", "01/117", 10032788, nil, testdb.RequirementOpts{})
	secondRequirement := f.fixtures.ReturnRequirement(versionID, testdb.RequirementOpts{LegacyID: 10032789})
	f.fixtures.Point(secondRequirement, "Borehole B", "TQ 789 012")
	f.fixtures.Purpose(secondRequirement)

	result, err := f.svc.GenerateForCycle(context.Background(), returnlogdomain.GenerateRequest{
		Date: testdb.Date(2024, time.June, 15),
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.Generated)

	first, err := f.svc.ListByLicence(context.Background(), returnlogdomain.ListRequest{
		LicenceRef: "01/117",
		Pagination: pagination.Pagination{PageSize: 1},
	})
	require.NoError(t, err)
	require.Len(t, first.ReturnLogs, 1)
	require.True(t, first.PageInfo.HasMore)
	assert.Equal(t, "v1:6:01/117:10032788:2024-04-01:2025-03-31", first.ReturnLogs[0].ID)

	second, err := f.svc.ListByLicence(context.Background(), returnlogdomain.ListRequest{
		LicenceRef: "01/117",
		Pagination: pagination.Pagination{PageSize: 1, PageToken: first.PageInfo.NextPageToken},
	})
	require.NoError(t, err)
	require.Len(t, second.ReturnLogs, 1)
	assert.False(t, second.PageInfo.HasMore)
	assert.Equal(t, "v1:6:01/117:10032789:2024-04-01:2025-03-31", second.ReturnLogs[0].ID)
}

func TestGenerateForCycleIgnoresSupersededVersions(t *testing.T) {
	f := newGeneratorFixture(t)

	regionID := f.fixtures.Region("6")
	licenceID := f.fixtures.Licence(regionID, "01/117", nil, nil, nil)
	supersededID := f.fixtures.ReturnVersion(licenceID, 1, "superseded",
		testdb.Date(2022, time.April, 1), testdb.Datep(2024, time.May, 31))
	f.fixtures.ReturnRequirement(supersededID, testdb.RequirementOpts{LegacyID: 10032788})

	currentID := f.fixtures.ReturnVersion(licenceID, 2, "current", testdb.Date(2024, time.June, 1), nil)
	requirementID := f.fixtures.ReturnRequirement(currentID, testdb.RequirementOpts{LegacyID: 10032788})
	f.fixtures.Point(requirementID, "Borehole A", "TQ 123 456")
	f.fixtures.Purpose(requirementID)

	result, err := f.svc.GenerateForCycle(context.Background(), returnlogdomain.GenerateRequest{
		Date: testdb.Date(2024, time.June, 15),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Generated)
	assert.EqualValues(t, 1, f.countLogs(t))
	f.findLog(t, "v1:6:01/117:10032788:2024-06-01:2025-03-31")
}
