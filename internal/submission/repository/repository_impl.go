package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	submissiondomain "github.com/openwater/returns/internal/submission/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() submissiondomain.Repository {
	return &repo{}
}

const selectColumns = `id, return_log_id, version, current, nil_return, notes, user_id, user_type, metadata, created_at`

func (r *repo) MaxVersion(ctx context.Context, conn *gorm.DB, returnLogID string) (int, error) {
	var version int
	err := conn.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(version), 0)
		 FROM return_submissions
		 WHERE return_log_id = ?`,
		returnLogID,
	).Scan(&version).Error
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (r *repo) SupersedeCurrent(ctx context.Context, conn *gorm.DB, returnLogID string) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE return_submissions
		 SET current = ?
		 WHERE return_log_id = ? AND current = ?`,
		false,
		returnLogID,
		true,
	).Error
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, submission *submissiondomain.ReturnSubmission) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO return_submissions (
			id, return_log_id, version, current, nil_return, notes, user_id, user_type, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		submission.ID,
		submission.ReturnLogID,
		submission.Version,
		submission.Current,
		submission.NilReturn,
		submission.Notes,
		submission.UserID,
		submission.UserType,
		submission.Metadata,
		submission.CreatedAt,
	).Error
}

func (r *repo) InsertLines(ctx context.Context, conn *gorm.DB, lines []submissiondomain.Line) error {
	now := time.Now().UTC()
	for _, line := range lines {
		if line.CreatedAt.IsZero() {
			line.CreatedAt = now
		}
		err := conn.WithContext(ctx).Exec(
			`INSERT INTO return_submission_lines (
				id, return_submission_id, start_date, end_date, quantity, user_unit, time_period, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			line.ID,
			line.ReturnSubmissionID,
			line.StartDate,
			line.EndDate,
			line.Quantity,
			line.UserUnit,
			line.TimePeriod,
			line.CreatedAt,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindCurrent(ctx context.Context, conn *gorm.DB, returnLogID string) (*submissiondomain.ReturnSubmission, error) {
	var submission submissiondomain.ReturnSubmission
	err := conn.WithContext(ctx).Raw(
		`SELECT `+selectColumns+`
		 FROM return_submissions
		 WHERE return_log_id = ? AND current = ?`,
		returnLogID,
		true,
	).Scan(&submission).Error
	if err != nil {
		return nil, err
	}
	if submission.ID == uuid.Nil {
		return nil, nil
	}
	return &submission, nil
}

func (r *repo) FindByVersion(ctx context.Context, conn *gorm.DB, returnLogID string, version int) (*submissiondomain.ReturnSubmission, error) {
	var submission submissiondomain.ReturnSubmission
	err := conn.WithContext(ctx).Raw(
		`SELECT `+selectColumns+`
		 FROM return_submissions
		 WHERE return_log_id = ? AND version = ?`,
		returnLogID,
		version,
	).Scan(&submission).Error
	if err != nil {
		return nil, err
	}
	if submission.ID == uuid.Nil {
		return nil, nil
	}
	return &submission, nil
}

func (r *repo) FindLines(ctx context.Context, conn *gorm.DB, submissionID uuid.UUID) ([]submissiondomain.Line, error) {
	var lines []submissiondomain.Line
	err := conn.WithContext(ctx).Raw(
		`SELECT id, return_submission_id, start_date, end_date, quantity, user_unit, time_period, created_at
		 FROM return_submission_lines
		 WHERE return_submission_id = ?
		 ORDER BY start_date`,
		submissionID,
	).Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}
