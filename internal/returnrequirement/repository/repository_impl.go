package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	returnrequirementdomain "github.com/openwater/returns/internal/returnrequirement/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() returnrequirementdomain.Repository {
	return &repo{}
}

func (r *repo) FetchDue(ctx context.Context, db *gorm.DB, query returnrequirementdomain.FetchDueQuery) ([]returnrequirementdomain.DueRequirement, error) {
	sql := `SELECT
			rr.id AS requirement_id,
			rr.legacy_id,
			rr.summer,
			rr.two_part_tariff,
			rr.reported_frequency,
			rr.abstraction_period_start_day,
			rr.abstraction_period_start_month,
			rr.abstraction_period_end_day,
			rr.abstraction_period_end_month,
			rr.site_description,
			rv.start_date AS version_start_date,
			rv.end_date AS version_end_date,
			l.id AS licence_id,
			l.licence_ref,
			l.expired_date,
			l.lapsed_date,
			l.revoked_date,
			rg.code AS region_code
		 FROM return_requirements rr
		 JOIN return_versions rv ON rv.id = rr.return_version_id
		 JOIN licences l ON l.id = rv.licence_id
		 JOIN regions rg ON rg.id = l.region_id
		 WHERE rr.summer = ?
		   AND rv.status = ?
		   AND rv.start_date <= ?
		   AND (rv.end_date IS NULL OR rv.end_date >= ?)
		   AND (l.expired_date IS NULL OR l.expired_date >= ?)
		   AND (l.lapsed_date IS NULL OR l.lapsed_date >= ?)
		   AND (l.revoked_date IS NULL OR l.revoked_date >= ?)
		   AND NOT EXISTS (
			SELECT 1
			FROM return_logs rl
			WHERE rl.return_cycle_id = ?
			  AND rl.licence_ref = l.licence_ref
			  AND rl.return_reference = rr.legacy_id
			  AND rl.status != 'void'
		   )`
	args := []any{
		query.Summer,
		returnrequirementdomain.ReturnVersionStatusCurrent,
		query.CycleEndDate,
		query.CycleStartDate,
		query.CycleStartDate,
		query.CycleStartDate,
		query.CycleStartDate,
		query.CycleID,
	}

	if query.LicenceRef != "" {
		sql += ` AND l.licence_ref = ?`
		args = append(args, query.LicenceRef)
	}
	sql += ` ORDER BY l.licence_ref, rr.legacy_id`

	var requirements []returnrequirementdomain.DueRequirement
	if err := db.WithContext(ctx).Raw(sql, args...).Scan(&requirements).Error; err != nil {
		return nil, err
	}
	if len(requirements) == 0 {
		return requirements, nil
	}

	ids := make([]snowflake.ID, 0, len(requirements))
	for _, requirement := range requirements {
		ids = append(ids, requirement.RequirementID)
	}

	points, err := r.fetchPoints(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	purposes, err := r.fetchPurposes(ctx, db, ids)
	if err != nil {
		return nil, err
	}

	for i := range requirements {
		id := requirements[i].RequirementID
		requirements[i].Points = points[id]
		requirements[i].Purposes = purposes[id]
	}

	return requirements, nil
}

func (r *repo) fetchPoints(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID][]returnrequirementdomain.Point, error) {
	var points []returnrequirementdomain.Point
	err := db.WithContext(ctx).Raw(
		`SELECT id, return_requirement_id, description, ngr, created_at, updated_at
		 FROM return_requirement_points
		 WHERE return_requirement_id IN ?
		 ORDER BY id`,
		ids,
	).Scan(&points).Error
	if err != nil {
		return nil, err
	}

	grouped := make(map[snowflake.ID][]returnrequirementdomain.Point, len(ids))
	for _, point := range points {
		grouped[point.ReturnRequirementID] = append(grouped[point.ReturnRequirementID], point)
	}
	return grouped, nil
}

func (r *repo) fetchPurposes(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID][]returnrequirementdomain.Purpose, error) {
	var purposes []returnrequirementdomain.Purpose
	err := db.WithContext(ctx).Raw(
		`SELECT id, return_requirement_id, alias,
			primary_code, primary_description,
			secondary_code, secondary_description,
			tertiary_code, tertiary_description,
			created_at, updated_at
		 FROM return_requirement_purposes
		 WHERE return_requirement_id IN ?
		 ORDER BY id`,
		ids,
	).Scan(&purposes).Error
	if err != nil {
		return nil, err
	}

	grouped := make(map[snowflake.ID][]returnrequirementdomain.Purpose, len(ids))
	for _, purpose := range purposes {
		grouped[purpose.ReturnRequirementID] = append(grouped[purpose.ReturnRequirementID], purpose)
	}
	return grouped, nil
}
