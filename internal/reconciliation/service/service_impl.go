package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	licencedomain "github.com/openwater/returns/internal/licence/domain"
	reconciliationdomain "github.com/openwater/returns/internal/reconciliation/domain"
	returncycledomain "github.com/openwater/returns/internal/returncycle/domain"
	returnlogdomain "github.com/openwater/returns/internal/returnlog/domain"
	returnrequirementdomain "github.com/openwater/returns/internal/returnrequirement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger

	LicenceRepo   licencedomain.Repository
	ReturnLogRepo returnlogdomain.Repository
	ReturnLogSvc  returnlogdomain.Service
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	licenceRepo   licencedomain.Repository
	returnLogRepo returnlogdomain.Repository
	returnLogSvc  returnlogdomain.Service
}

func NewService(p ServiceParam) reconciliationdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("reconciliation.service"),

		licenceRepo:   p.LicenceRepo,
		returnLogRepo: p.ReturnLogRepo,
		returnLogSvc:  p.ReturnLogSvc,
	}
}

func (s *Service) HandleLicenceEnd(ctx context.Context, req reconciliationdomain.LicenceEndRequest) (reconciliationdomain.Result, error) {
	result := reconciliationdomain.Result{LicenceRef: req.LicenceRef}
	if !req.Reason.Valid() {
		return result, licencedomain.ErrInvalidEndReason
	}
	endDate := returncycledomain.Date(req.EndDate)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		licence, err := s.licenceRepo.LockByRef(ctx, tx, req.LicenceRef)
		if err != nil {
			return err
		}
		if licence == nil {
			return licencedomain.ErrLicenceNotFound
		}

		if err := s.licenceRepo.SetEndDate(ctx, tx, req.LicenceRef, req.Reason, endDate); err != nil {
			return err
		}

		voided, err := s.returnLogRepo.VoidEndingAfter(ctx, tx, req.LicenceRef, endDate)
		if err != nil {
			return err
		}
		result.Voided = len(voided)

		cycles, err := s.cyclesByID(ctx, tx, cycleIDs(voided))
		if err != nil {
			return err
		}

		for _, cycle := range cycles {
			if cycle.StartDate.After(endDate) {
				// Cycle begins after the licence ends; the void stands
				// with no replacement.
				continue
			}
			if err := s.regenerate(ctx, tx, cycle, req.LicenceRef, &result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return reconciliationdomain.Result{LicenceRef: req.LicenceRef}, err
	}

	s.log.Info("licence end reconciled",
		zap.String("licence_ref", req.LicenceRef),
		zap.String("reason", string(req.Reason)),
		zap.String("end_date", endDate.Format(returncycledomain.DateOnly)),
		zap.Int("voided", result.Voided),
		zap.Int("generated", result.Generated),
	)
	return result, nil
}

func (s *Service) ReconcileLicence(ctx context.Context, licenceRef string) (reconciliationdomain.Result, error) {
	result := reconciliationdomain.Result{LicenceRef: licenceRef}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		licence, err := s.licenceRepo.LockByRef(ctx, tx, licenceRef)
		if err != nil {
			return err
		}
		if licence == nil {
			return licencedomain.ErrLicenceNotFound
		}

		var voided []returnlogdomain.VoidedLog
		if endDate := licence.EndDate(); endDate != nil {
			voided, err = s.returnLogRepo.VoidEndingAfter(ctx, tx, licenceRef, *endDate)
			if err != nil {
				return err
			}
		}

		superseded, err := s.voidPastVersionEnd(ctx, tx, licenceRef)
		if err != nil {
			return err
		}
		voided = append(voided, superseded...)
		result.Voided = len(voided)

		cycles, err := s.candidateCycles(ctx, tx, licenceRef, cycleIDs(voided))
		if err != nil {
			return err
		}

		for _, cycle := range cycles {
			if endDate := licence.EndDate(); endDate != nil && cycle.StartDate.After(*endDate) {
				continue
			}
			if err := s.regenerate(ctx, tx, cycle, licenceRef, &result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return reconciliationdomain.Result{LicenceRef: licenceRef}, err
	}

	s.log.Info("licence reconciled",
		zap.String("licence_ref", licenceRef),
		zap.Int("voided", result.Voided),
		zap.Int("generated", result.Generated),
	)
	return result, nil
}

func (s *Service) regenerate(ctx context.Context, tx *gorm.DB, cycle returncycledomain.ReturnCycle, licenceRef string, result *reconciliationdomain.Result) error {
	generated, err := s.returnLogSvc.GenerateForCycleTx(ctx, tx, returnlogdomain.GenerateRequest{
		Date:       cycle.StartDate,
		Summer:     cycle.Summer,
		LicenceRef: licenceRef,
	})
	if err != nil {
		return err
	}
	if generated.Failed > 0 {
		// Unlike batch generation, reconciliation cannot skip past a bad
		// requirement: the voids are part of this transaction, and
		// committing them without the replacement leaves a gap in the
		// licence's log sequence that a retry would never close.
		return fmt.Errorf("%w: licence %s, cycle starting %s",
			reconciliationdomain.ErrRegenerationFailed,
			licenceRef,
			cycle.StartDate.Format(returncycledomain.DateOnly),
		)
	}
	result.Generated += generated.Generated
	result.Skipped += generated.Skipped
	return nil
}

// voidPastVersionEnd voids logs that outlive their return version. This is
// what a version supersession leaves behind: the old version gets an end
// date and any log extending past it is no longer valid.
func (s *Service) voidPastVersionEnd(ctx context.Context, tx *gorm.DB, licenceRef string) ([]returnlogdomain.VoidedLog, error) {
	var affected []returnlogdomain.VoidedLog
	err := tx.WithContext(ctx).Raw(
		`SELECT rl.id, rl.return_cycle_id, rl.start_date, rl.end_date
		 FROM return_logs rl
		 JOIN return_requirements rr ON rr.id = rl.return_requirement_id
		 JOIN return_versions rv ON rv.id = rr.return_version_id
		 WHERE rl.licence_ref = ?
		   AND rl.status != ?
		   AND rv.end_date IS NOT NULL
		   AND rl.end_date > rv.end_date
		 ORDER BY rl.start_date`,
		licenceRef,
		returnlogdomain.StatusVoid,
	).Scan(&affected).Error
	if err != nil {
		return nil, err
	}

	for _, log := range affected {
		if err := s.returnLogRepo.VoidByID(ctx, tx, log.ID); err != nil {
			return nil, err
		}
	}
	return affected, nil
}

// candidateCycles collects the cycles worth regenerating: those touched by
// a void plus every cycle overlapping one of the licence's current
// versions.
func (s *Service) candidateCycles(ctx context.Context, tx *gorm.DB, licenceRef string, voidedCycleIDs []snowflake.ID) ([]returncycledomain.ReturnCycle, error) {
	var overlapping []returncycledomain.ReturnCycle
	err := tx.WithContext(ctx).Raw(
		`SELECT DISTINCT rc.id, rc.start_date, rc.end_date, rc.due_date, rc.summer
		 FROM return_cycles rc
		 JOIN return_versions rv ON rv.start_date <= rc.end_date
			AND (rv.end_date IS NULL OR rv.end_date >= rc.start_date)
		 JOIN licences l ON l.id = rv.licence_id
		 WHERE l.licence_ref = ? AND rv.status = ?
		 ORDER BY rc.start_date`,
		licenceRef,
		returnrequirementdomain.ReturnVersionStatusCurrent,
	).Scan(&overlapping).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[snowflake.ID]bool, len(overlapping))
	for _, cycle := range overlapping {
		seen[cycle.ID] = true
	}

	var missing []snowflake.ID
	for _, id := range voidedCycleIDs {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		extra, err := s.cyclesByID(ctx, tx, missing)
		if err != nil {
			return nil, err
		}
		overlapping = append(overlapping, extra...)
	}

	return overlapping, nil
}

func (s *Service) cyclesByID(ctx context.Context, tx *gorm.DB, ids []snowflake.ID) ([]returncycledomain.ReturnCycle, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var cycles []returncycledomain.ReturnCycle
	err := tx.WithContext(ctx).Raw(
		`SELECT id, start_date, end_date, due_date, summer
		 FROM return_cycles
		 WHERE id IN ?
		 ORDER BY start_date`,
		ids,
	).Scan(&cycles).Error
	if err != nil {
		return nil, err
	}
	return cycles, nil
}

func cycleIDs(voided []returnlogdomain.VoidedLog) []snowflake.ID {
	seen := make(map[snowflake.ID]bool, len(voided))
	var ids []snowflake.ID
	for _, log := range voided {
		if seen[log.ReturnCycleID] {
			continue
		}
		seen[log.ReturnCycleID] = true
		ids = append(ids, log.ReturnCycleID)
	}
	return ids
}
