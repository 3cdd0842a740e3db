package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/openwater/returns/internal/clock"
	returnlogdomain "github.com/openwater/returns/internal/returnlog/domain"
	returnlogrepository "github.com/openwater/returns/internal/returnlog/repository"
	returnlogservice "github.com/openwater/returns/internal/returnlog/service"
	returnrequirementrepository "github.com/openwater/returns/internal/returnrequirement/repository"
	"github.com/openwater/returns/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newScheduler(t *testing.T, now time.Time) (*Scheduler, *gorm.DB) {
	t.Helper()
	conn := testdb.Open(t)
	fixtures := testdb.NewFixtures(t, conn)

	// Seed one all-year and one summer requirement on separate licences.
	regionID := fixtures.Region("6")
	allYearLicence := fixtures.Licence(regionID, "01/117", nil, nil, nil)
	allYearVersion := fixtures.ReturnVersion(allYearLicence, 1, "current", testdb.Date(2022, time.April, 1), nil)
	allYearRequirement := fixtures.ReturnRequirement(allYearVersion, testdb.RequirementOpts{LegacyID: 10032788})
	fixtures.Point(allYearRequirement, "Borehole A", "TQ 123 456")
	fixtures.Purpose(allYearRequirement)

	summerLicence := fixtures.Licence(regionID, "02/200", nil, nil, nil)
	summerVersion := fixtures.ReturnVersion(summerLicence, 1, "current", testdb.Date(2022, time.April, 1), nil)
	summerRequirement := fixtures.ReturnRequirement(summerVersion, testdb.RequirementOpts{LegacyID: 20000001, Summer: true})
	fixtures.Point(summerRequirement, "Borehole B", "TQ 789 012")
	fixtures.Purpose(summerRequirement)

	returnLogSvc := returnlogservice.NewService(returnlogservice.ServiceParam{
		DB:              conn,
		Log:             zap.NewNop(),
		GenID:           fixtures.GenID,
		RequirementRepo: returnrequirementrepository.Provide(),
		ReturnLogRepo:   returnlogrepository.Provide(),
	})

	s, err := New(Params{
		Log:          zap.NewNop(),
		Clock:        clock.NewFakeClock(now),
		ReturnLogSvc: returnLogSvc,
	})
	require.NoError(t, err)
	return s, conn
}

func TestRunGenerationCoversBothCycles(t *testing.T) {
	s, conn := newScheduler(t, testdb.Date(2024, time.June, 15))

	s.RunGeneration(context.Background())

	repo := returnlogrepository.Provide()
	ctx := context.Background()

	allYear, err := repo.FindByID(ctx, conn, "v1:6:01/117:10032788:2024-04-01:2025-03-31")
	require.NoError(t, err)
	require.NotNil(t, allYear)
	assert.Equal(t, returnlogdomain.StatusDue, allYear.Status)

	summer, err := repo.FindByID(ctx, conn, "v1:6:02/200:20000001:2024-05-01:2024-10-31")
	require.NoError(t, err)
	require.NotNil(t, summer)
	assert.True(t, summer.Metadata.Data().IsSummer)
}

func TestRunGenerationIsIdempotent(t *testing.T) {
	s, conn := newScheduler(t, testdb.Date(2024, time.June, 15))

	s.RunGeneration(context.Background())
	s.RunGeneration(context.Background())

	var count int64
	require.NoError(t, conn.Raw(`SELECT COUNT(*) FROM return_logs`).Scan(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultConfig(), cfg)

	custom := Config{Schedule: "30 3 * * *", JobTimeout: time.Hour}.withDefaults()
	assert.Equal(t, "30 3 * * *", custom.Schedule)
	assert.Equal(t, time.Hour, custom.JobTimeout)
}
