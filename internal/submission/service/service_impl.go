package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	returncycledomain "github.com/openwater/returns/internal/returncycle/domain"
	returnlogdomain "github.com/openwater/returns/internal/returnlog/domain"
	submissiondomain "github.com/openwater/returns/internal/submission/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger

	SubmissionRepo submissiondomain.Repository
	ReturnLogRepo  returnlogdomain.Repository
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	submissionRepo submissiondomain.Repository
	returnLogRepo  returnlogdomain.Repository
}

func NewService(p ServiceParam) submissiondomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("submission.service"),

		submissionRepo: p.SubmissionRepo,
		returnLogRepo:  p.ReturnLogRepo,
	}
}

func (s *Service) Create(ctx context.Context, req submissiondomain.CreateRequest) (*submissiondomain.ReturnSubmission, error) {
	if err := validateLines(req.Lines); err != nil {
		return nil, err
	}

	var submission *submissiondomain.ReturnSubmission
	err := s.db.Transaction(func(tx *gorm.DB) error {
		returnLog, err := s.returnLogRepo.LockByID(ctx, tx, req.ReturnLogID)
		if err != nil {
			return err
		}
		if returnLog == nil {
			return returnlogdomain.ErrReturnLogNotFound
		}
		if returnLog.Status == returnlogdomain.StatusVoid {
			return submissiondomain.ErrReturnLogVoid
		}

		maxVersion, err := s.submissionRepo.MaxVersion(ctx, tx, req.ReturnLogID)
		if err != nil {
			return err
		}

		if err := s.submissionRepo.SupersedeCurrent(ctx, tx, req.ReturnLogID); err != nil {
			return err
		}

		now := time.Now().UTC()
		submission = &submissiondomain.ReturnSubmission{
			ID:          uuid.New(),
			ReturnLogID: req.ReturnLogID,
			Version:     maxVersion + 1,
			Current:     true,
			NilReturn:   req.NilReturn,
			Notes:       req.Notes,
			UserID:      req.UserID,
			UserType:    req.UserType,
			Metadata:    datatypes.NewJSONType(req.Metadata),
			CreatedAt:   now,
		}
		if err := s.submissionRepo.Insert(ctx, tx, submission); err != nil {
			return err
		}

		lines := make([]submissiondomain.Line, 0, len(req.Lines))
		for _, input := range req.Lines {
			lines = append(lines, submissiondomain.Line{
				ID:                 uuid.New(),
				ReturnSubmissionID: submission.ID,
				StartDate:          returncycledomain.Date(input.StartDate),
				EndDate:            returncycledomain.Date(input.EndDate),
				Quantity:           input.Quantity,
				UserUnit:           input.UserUnit,
				TimePeriod:         input.TimePeriod,
				CreatedAt:          now,
			})
		}
		if err := s.submissionRepo.InsertLines(ctx, tx, lines); err != nil {
			return err
		}
		submission.Lines = lines

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("return submission created",
		zap.String("return_log_id", submission.ReturnLogID),
		zap.Int("version", submission.Version),
		zap.Bool("nil_return", submission.NilReturn),
	)
	return submission, nil
}

func (s *Service) GetCurrent(ctx context.Context, returnLogID string) (*submissiondomain.ReturnSubmission, error) {
	submission, err := s.submissionRepo.FindCurrent(ctx, s.db, returnLogID)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, submissiondomain.ErrSubmissionNotFound
	}
	return s.attachLines(ctx, submission)
}

func (s *Service) GetByVersion(ctx context.Context, returnLogID string, version int) (*submissiondomain.ReturnSubmission, error) {
	submission, err := s.submissionRepo.FindByVersion(ctx, s.db, returnLogID, version)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, submissiondomain.ErrSubmissionNotFound
	}
	return s.attachLines(ctx, submission)
}

func (s *Service) attachLines(ctx context.Context, submission *submissiondomain.ReturnSubmission) (*submissiondomain.ReturnSubmission, error) {
	lines, err := s.submissionRepo.FindLines(ctx, s.db, submission.ID)
	if err != nil {
		return nil, err
	}
	submission.Lines = lines
	submissiondomain.ApplyReadings(submission)
	return submission, nil
}

func validateLines(lines []submissiondomain.LineInput) error {
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		key := submissiondomain.ReadingKey(line.StartDate, line.EndDate)
		if seen[key] {
			return submissiondomain.ErrDuplicateLine
		}
		seen[key] = true
	}
	return nil
}
