package service

import (
	"context"
	"testing"
	"time"

	returnlogdomain "github.com/openwater/returns/internal/returnlog/domain"
	returnlogrepository "github.com/openwater/returns/internal/returnlog/repository"
	submissiondomain "github.com/openwater/returns/internal/submission/domain"
	submissionrepository "github.com/openwater/returns/internal/submission/repository"
	"github.com/openwater/returns/internal/testdb"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type submissionFixture struct {
	svc  *Service
	conn *gorm.DB
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()
	conn := testdb.Open(t)

	svc := NewService(ServiceParam{
		DB:             conn,
		Log:            zap.NewNop(),
		SubmissionRepo: submissionrepository.Provide(),
		ReturnLogRepo:  returnlogrepository.Provide(),
	}).(*Service)

	return &submissionFixture{svc: svc, conn: conn}
}

// seedReturnLog inserts a minimal log row to submit against.
func (f *submissionFixture) seedReturnLog(t *testing.T, id string, status returnlogdomain.Status) {
	t.Helper()
	fixtures := testdb.NewFixtures(t, f.conn)
	now := time.Now().UTC()
	err := returnlogrepository.Provide().Insert(context.Background(), f.conn, &returnlogdomain.ReturnLog{
		ID:                  id,
		ReturnCycleID:       fixtures.GenID.Generate(),
		ReturnRequirementID: fixtures.GenID.Generate(),
		LicenceRef:          "01/117",
		ReturnReference:     10032788,
		StartDate:           testdb.Date(2024, time.April, 1),
		EndDate:             testdb.Date(2025, time.March, 31),
		DueDate:             testdb.Date(2025, time.April, 28),
		Status:              status,
		Source:              returnlogdomain.SourceWRLS,
		CreatedAt:           now,
		UpdatedAt:           now,
	})
	require.NoError(t, err)
}

func quantity(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}

func monthLine(year int, month time.Month, v float64) submissiondomain.LineInput {
	start := testdb.Date(year, month, 1)
	end := start.AddDate(0, 1, -1)
	return submissiondomain.LineInput{
		StartDate:  start,
		EndDate:    end,
		Quantity:   quantity(v),
		UserUnit:   "m³",
		TimePeriod: "month",
	}
}

const logID = "v1:6:01/117:10032788:2024-04-01:2025-03-31"

func TestCreateAssignsSequentialVersions(t *testing.T) {
	f := newSubmissionFixture(t)
	f.seedReturnLog(t, logID, returnlogdomain.StatusDue)
	ctx := context.Background()

	for expected := 1; expected <= 3; expected++ {
		submission, err := f.svc.Create(ctx, submissiondomain.CreateRequest{
			ReturnLogID: logID,
			UserID:      "user@example.com",
			UserType:    "external",
			Metadata:    submissiondomain.Metadata{Method: submissiondomain.MethodAbstractionVolumes},
			Lines:       []submissiondomain.LineInput{monthLine(2024, time.April, float64(expected) * 10)},
		})
		require.NoError(t, err)
		assert.Equal(t, expected, submission.Version)
		assert.True(t, submission.Current)
	}

	// Exactly one current submission, the latest one.
	var currentCount int64
	require.NoError(t, f.conn.Raw(
		`SELECT COUNT(*) FROM return_submissions WHERE return_log_id = ? AND current = ?`,
		logID, true,
	).Scan(&currentCount).Error)
	assert.EqualValues(t, 1, currentCount)

	current, err := f.svc.GetCurrent(ctx, logID)
	require.NoError(t, err)
	assert.Equal(t, 3, current.Version)
	require.Len(t, current.Lines, 1)
	assert.Equal(t, "30", current.Lines[0].Quantity.Decimal.String())
}

func TestCreateKeepsSupersededVersionsReadable(t *testing.T) {
	f := newSubmissionFixture(t)
	f.seedReturnLog(t, logID, returnlogdomain.StatusDue)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		_, err := f.svc.Create(ctx, submissiondomain.CreateRequest{
			ReturnLogID: logID,
			UserID:      "user@example.com",
			UserType:    "external",
			Metadata:    submissiondomain.Metadata{Method: submissiondomain.MethodAbstractionVolumes},
			Lines:       []submissiondomain.LineInput{monthLine(2024, time.April, float64(i))},
		})
		require.NoError(t, err)
	}

	first, err := f.svc.GetByVersion(ctx, logID, 1)
	require.NoError(t, err)
	assert.False(t, first.Current)
	require.Len(t, first.Lines, 1)
	assert.Equal(t, "1", first.Lines[0].Quantity.Decimal.String())
}

func TestCreateRejectsVoidReturnLog(t *testing.T) {
	f := newSubmissionFixture(t)
	f.seedReturnLog(t, logID, returnlogdomain.StatusVoid)

	_, err := f.svc.Create(context.Background(), submissiondomain.CreateRequest{
		ReturnLogID: logID,
		UserID:      "user@example.com",
		UserType:    "external",
	})
	assert.ErrorIs(t, err, submissiondomain.ErrReturnLogVoid)
}

func TestCreateRejectsUnknownReturnLog(t *testing.T) {
	f := newSubmissionFixture(t)

	_, err := f.svc.Create(context.Background(), submissiondomain.CreateRequest{
		ReturnLogID: "v1:6:99/999:1:2024-04-01:2025-03-31",
		UserID:      "user@example.com",
		UserType:    "external",
	})
	assert.ErrorIs(t, err, returnlogdomain.ErrReturnLogNotFound)
}

func TestCreateRejectsDuplicateLinePeriods(t *testing.T) {
	f := newSubmissionFixture(t)
	f.seedReturnLog(t, logID, returnlogdomain.StatusDue)

	_, err := f.svc.Create(context.Background(), submissiondomain.CreateRequest{
		ReturnLogID: logID,
		UserID:      "user@example.com",
		UserType:    "external",
		Lines: []submissiondomain.LineInput{
			monthLine(2024, time.April, 10),
			monthLine(2024, time.April, 20),
		},
	})
	assert.ErrorIs(t, err, submissiondomain.ErrDuplicateLine)
}

func TestCreateNilReturnWithoutLines(t *testing.T) {
	f := newSubmissionFixture(t)
	f.seedReturnLog(t, logID, returnlogdomain.StatusDue)

	submission, err := f.svc.Create(context.Background(), submissiondomain.CreateRequest{
		ReturnLogID: logID,
		UserID:      "user@example.com",
		UserType:    "internal",
		NilReturn:   true,
		Notes:       "no abstraction this year",
	})
	require.NoError(t, err)

	assert.True(t, submission.NilReturn)
	assert.Equal(t, 1, submission.Version)
	assert.Empty(t, submission.Lines)
}

func TestGetCurrentAttachesMeterReadings(t *testing.T) {
	f := newSubmissionFixture(t)
	f.seedReturnLog(t, logID, returnlogdomain.StatusDue)
	ctx := context.Background()

	april := monthLine(2024, time.April, 100)
	may := monthLine(2024, time.May, 200)

	_, err := f.svc.Create(ctx, submissiondomain.CreateRequest{
		ReturnLogID: logID,
		UserID:      "user@example.com",
		UserType:    "external",
		Metadata: submissiondomain.Metadata{
			Units:  "m³",
			Method: submissiondomain.MethodOneMeter,
			Meters: []submissiondomain.Meter{{
				Manufacturer: "Siemens",
				SerialNumber: "SN-100",
				Multiplier:   1,
				Readings: map[string]float64{
					submissiondomain.ReadingKey(april.StartDate, april.EndDate): 1234,
				},
			}},
		},
		Lines: []submissiondomain.LineInput{april, may},
	})
	require.NoError(t, err)

	current, err := f.svc.GetCurrent(ctx, logID)
	require.NoError(t, err)
	require.Len(t, current.Lines, 2)

	// Lines come back ordered by start date: April then May.
	require.NotNil(t, current.Lines[0].Reading)
	assert.Equal(t, float64(1234), *current.Lines[0].Reading)
	assert.Nil(t, current.Lines[1].Reading)
}

func TestGetCurrentLeavesVolumeSubmissionsUntouched(t *testing.T) {
	f := newSubmissionFixture(t)
	f.seedReturnLog(t, logID, returnlogdomain.StatusDue)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, submissiondomain.CreateRequest{
		ReturnLogID: logID,
		UserID:      "user@example.com",
		UserType:    "external",
		Metadata:    submissiondomain.Metadata{Method: submissiondomain.MethodAbstractionVolumes},
		Lines:       []submissiondomain.LineInput{monthLine(2024, time.April, 100)},
	})
	require.NoError(t, err)

	current, err := f.svc.GetCurrent(ctx, logID)
	require.NoError(t, err)
	require.Len(t, current.Lines, 1)
	assert.Nil(t, current.Lines[0].Reading)
}

func TestGetCurrentUnknownSubmission(t *testing.T) {
	f := newSubmissionFixture(t)
	f.seedReturnLog(t, logID, returnlogdomain.StatusDue)

	_, err := f.svc.GetCurrent(context.Background(), logID)
	assert.ErrorIs(t, err, submissiondomain.ErrSubmissionNotFound)
}

func TestGetByVersionUnknownVersion(t *testing.T) {
	f := newSubmissionFixture(t)
	f.seedReturnLog(t, logID, returnlogdomain.StatusDue)

	_, err := f.svc.GetByVersion(context.Background(), logID, 4)
	assert.ErrorIs(t, err, submissiondomain.ErrSubmissionNotFound)
}
