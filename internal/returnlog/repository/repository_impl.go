package repository

import (
	"context"
	"time"

	returnlogdomain "github.com/openwater/returns/internal/returnlog/domain"
	"github.com/openwater/returns/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() returnlogdomain.Repository {
	return &repo{}
}

const selectColumns = `id, return_cycle_id, return_requirement_id, licence_ref, return_reference,
	start_date, end_date, due_date, received_date, status, under_query, source, metadata,
	created_at, updated_at`

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, log *returnlogdomain.ReturnLog) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO return_logs (
			id, return_cycle_id, return_requirement_id, licence_ref, return_reference,
			start_date, end_date, due_date, status, under_query, source, metadata,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID,
		log.ReturnCycleID,
		log.ReturnRequirementID,
		log.LicenceRef,
		log.ReturnReference,
		log.StartDate,
		log.EndDate,
		log.DueDate,
		log.Status,
		log.UnderQuery,
		log.Source,
		log.Metadata,
		log.CreatedAt,
		log.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id string) (*returnlogdomain.ReturnLog, error) {
	return r.findByID(conn.WithContext(ctx), id)
}

func (r *repo) LockByID(ctx context.Context, conn *gorm.DB, id string) (*returnlogdomain.ReturnLog, error) {
	return r.findByID(db.ForUpdate(conn.WithContext(ctx)), id)
}

func (r *repo) findByID(stmt *gorm.DB, id string) (*returnlogdomain.ReturnLog, error) {
	var log returnlogdomain.ReturnLog
	err := stmt.
		Table("return_logs").
		Select(selectColumns).
		Where("id = ?", id).
		Limit(1).
		Scan(&log).Error
	if err != nil {
		return nil, err
	}
	if log.ID == "" {
		return nil, nil
	}
	return &log, nil
}

func (r *repo) FindByLicence(ctx context.Context, conn *gorm.DB, licenceRef string, includeVoid bool) ([]returnlogdomain.ReturnLog, error) {
	stmt := conn.WithContext(ctx).
		Table("return_logs").
		Select(selectColumns).
		Where("licence_ref = ?", licenceRef)
	if !includeVoid {
		stmt = stmt.Where("status != ?", returnlogdomain.StatusVoid)
	}

	var logs []returnlogdomain.ReturnLog
	if err := stmt.Order("start_date, end_date").Scan(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *repo) ListByLicence(ctx context.Context, conn *gorm.DB, query returnlogdomain.ListQuery) ([]returnlogdomain.ReturnLog, error) {
	stmt := conn.WithContext(ctx).
		Table("return_logs").
		Select(selectColumns).
		Where("licence_ref = ?", query.LicenceRef)
	if !query.IncludeVoid {
		stmt = stmt.Where("status != ?", returnlogdomain.StatusVoid)
	}
	if query.AfterID != "" {
		stmt = stmt.Where("id > ?", query.AfterID)
	}
	if query.Limit > 0 {
		// One extra row so the caller can tell whether a further page exists.
		stmt = stmt.Limit(query.Limit + 1)
	}

	var logs []returnlogdomain.ReturnLog
	if err := stmt.Order("id").Scan(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *repo) VoidEndingAfter(ctx context.Context, conn *gorm.DB, licenceRef string, after time.Time) ([]returnlogdomain.VoidedLog, error) {
	var affected []returnlogdomain.VoidedLog
	err := conn.WithContext(ctx).Raw(
		`SELECT id, return_cycle_id, start_date, end_date
		 FROM return_logs
		 WHERE licence_ref = ? AND status != ? AND end_date > ?
		 ORDER BY start_date`,
		licenceRef,
		returnlogdomain.StatusVoid,
		after,
	).Scan(&affected).Error
	if err != nil {
		return nil, err
	}
	if len(affected) == 0 {
		return affected, nil
	}

	ids := make([]string, 0, len(affected))
	for _, log := range affected {
		ids = append(ids, log.ID)
	}

	err = conn.WithContext(ctx).Exec(
		`UPDATE return_logs SET status = ?, updated_at = ? WHERE id IN ?`,
		returnlogdomain.StatusVoid,
		time.Now().UTC(),
		ids,
	).Error
	if err != nil {
		return nil, err
	}
	return affected, nil
}

func (r *repo) VoidByID(ctx context.Context, conn *gorm.DB, id string) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE return_logs SET status = ?, updated_at = ? WHERE id = ?`,
		returnlogdomain.StatusVoid,
		time.Now().UTC(),
		id,
	).Error
}
