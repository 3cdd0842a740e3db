package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	returncycledomain "github.com/openwater/returns/internal/returncycle/domain"
	returncycleservice "github.com/openwater/returns/internal/returncycle/service"
	returnlogdomain "github.com/openwater/returns/internal/returnlog/domain"
	returnrequirementdomain "github.com/openwater/returns/internal/returnrequirement/domain"
	"github.com/openwater/returns/pkg/db"
	"github.com/openwater/returns/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node

	RequirementRepo returnrequirementdomain.Repository
	ReturnLogRepo   returnlogdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node

	requirementRepo returnrequirementdomain.Repository
	returnLogRepo   returnlogdomain.Repository
}

func NewService(p ServiceParam) returnlogdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("returnlog.service"),
		genID: p.GenID,

		requirementRepo: p.RequirementRepo,
		returnLogRepo:   p.ReturnLogRepo,
	}
}

func (s *Service) GenerateForCycle(ctx context.Context, req returnlogdomain.GenerateRequest) (returnlogdomain.GenerateResult, error) {
	return s.GenerateForCycleTx(ctx, s.db, req)
}

func (s *Service) GenerateForCycleTx(ctx context.Context, tx *gorm.DB, req returnlogdomain.GenerateRequest) (returnlogdomain.GenerateResult, error) {
	var result returnlogdomain.GenerateResult

	cycle, err := returncycleservice.GetOrCreate(ctx, tx, s.genID, req.Date, req.Summer)
	if err != nil {
		return result, err
	}
	result.CycleID = cycle.ID.String()

	requirements, err := s.requirementRepo.FetchDue(ctx, tx, returnrequirementdomain.FetchDueQuery{
		CycleID:        cycle.ID,
		CycleStartDate: cycle.StartDate,
		CycleEndDate:   cycle.EndDate,
		Summer:         cycle.Summer,
		LicenceRef:     req.LicenceRef,
	})
	if err != nil {
		return result, err
	}

	for _, requirement := range requirements {
		generated, err := s.generateOne(ctx, tx, requirement, *cycle)
		if err != nil {
			// A single bad requirement must not sink the whole batch.
			result.Failed++
			s.log.Error("return log generation failed",
				zap.String("licence_ref", requirement.LicenceRef),
				zap.Int("return_reference", requirement.LegacyID),
				zap.String("cycle_start", cycle.StartDate.Format(returncycledomain.DateOnly)),
				zap.Bool("summer", cycle.Summer),
				zap.Error(err),
			)
			continue
		}
		if generated {
			result.Generated++
		} else {
			result.Skipped++
		}
	}

	return result, nil
}

func (s *Service) ListByLicence(ctx context.Context, req returnlogdomain.ListRequest) (returnlogdomain.ListResult, error) {
	var result returnlogdomain.ListResult

	limit := req.Pagination.PageSize
	if limit < 1 {
		limit = 50
	}
	if limit > 250 {
		limit = 250
	}

	var afterID string
	if req.Pagination.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.Pagination.PageToken)
		if err != nil {
			return result, err
		}
		afterID = cursor.ID
	}

	logs, err := s.returnLogRepo.ListByLicence(ctx, s.db, returnlogdomain.ListQuery{
		LicenceRef:  req.LicenceRef,
		IncludeVoid: req.IncludeVoid,
		AfterID:     afterID,
		Limit:       limit,
	})
	if err != nil {
		return result, err
	}

	page, pageInfo, err := pagination.BuildPage(logs, limit, func(log returnlogdomain.ReturnLog) string {
		return log.ID
	})
	if err != nil {
		return result, err
	}

	result.ReturnLogs = page
	result.PageInfo = pageInfo
	return result, nil
}

// generateOne builds and inserts one return log. Returns false when the
// log was skipped rather than created.
func (s *Service) generateOne(ctx context.Context, tx *gorm.DB, requirement returnrequirementdomain.DueRequirement, cycle returncycledomain.ReturnCycle) (bool, error) {
	log, err := returnlogdomain.NewReturnLog(requirement, cycle)
	if err != nil {
		if errors.Is(err, returnlogdomain.ErrEmptyPeriod) {
			// Version starts after the licence ends; nothing to report.
			return false, nil
		}
		return false, err
	}

	if err := s.returnLogRepo.Insert(ctx, tx, log); err != nil {
		if db.IsDuplicateKeyErr(err) {
			// Identity key already present: an earlier run generated this
			// log. Treat as done so re-runs stay idempotent.
			return false, nil
		}
		return false, err
	}

	return true, nil
}
