package repository

import (
	"context"
	"fmt"
	"time"

	licencedomain "github.com/openwater/returns/internal/licence/domain"
	"github.com/openwater/returns/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() licencedomain.Repository {
	return &repo{}
}

func (r *repo) FindByRef(ctx context.Context, conn *gorm.DB, licenceRef string) (*licencedomain.Licence, error) {
	return r.findByRef(conn.WithContext(ctx), licenceRef)
}

func (r *repo) LockByRef(ctx context.Context, conn *gorm.DB, licenceRef string) (*licencedomain.Licence, error) {
	return r.findByRef(db.ForUpdate(conn.WithContext(ctx)), licenceRef)
}

func (r *repo) findByRef(stmt *gorm.DB, licenceRef string) (*licencedomain.Licence, error) {
	var licence licencedomain.Licence
	err := stmt.
		Table("licences").
		Where("licence_ref = ?", licenceRef).
		Select("id, licence_ref, region_id, expired_date, lapsed_date, revoked_date, created_at, updated_at").
		Limit(1).
		Scan(&licence).Error
	if err != nil {
		return nil, err
	}
	if licence.ID == 0 {
		return nil, nil
	}
	return &licence, nil
}

func (r *repo) SetEndDate(ctx context.Context, conn *gorm.DB, licenceRef string, reason licencedomain.EndReason, endDate time.Time) error {
	if !reason.Valid() {
		return licencedomain.ErrInvalidEndReason
	}

	column := fmt.Sprintf("%s_date", reason)
	result := conn.WithContext(ctx).Exec(
		fmt.Sprintf(`UPDATE licences SET %s = ?, updated_at = ? WHERE licence_ref = ?`, column),
		endDate,
		time.Now().UTC(),
		licenceRef,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return licencedomain.ErrLicenceNotFound
	}
	return nil
}
