package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	returncycledomain "github.com/openwater/returns/internal/returncycle/domain"
	"github.com/openwater/returns/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p ServiceParam) returncycledomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("returncycle.service"),
		genID: p.GenID,
	}
}

func (s *Service) GetOrCreate(ctx context.Context, req returncycledomain.GetOrCreateRequest) (*returncycledomain.ReturnCycle, error) {
	return GetOrCreate(ctx, s.db, s.genID, req.Date, req.Summer)
}

// GetOrCreate snaps date to its cycle and ensures the row exists. The
// unique (start_date, summer) index makes concurrent callers converge on
// one row: a duplicate-key insert resolves to a re-read.
func GetOrCreate(ctx context.Context, conn *gorm.DB, genID *snowflake.Node, date time.Time, summer bool) (*returncycledomain.ReturnCycle, error) {
	startDate := returncycledomain.CycleStartDate(date, summer)

	existing, err := find(ctx, conn, startDate, summer)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	cycle := &returncycledomain.ReturnCycle{
		ID:        genID.Generate(),
		StartDate: startDate,
		EndDate:   returncycledomain.CycleEndDate(date, summer),
		DueDate:   returncycledomain.CycleDueDate(date, summer),
		Summer:    summer,
	}
	now := time.Now().UTC()
	cycle.CreatedAt = now
	cycle.UpdatedAt = now

	if err := conn.WithContext(ctx).Create(cycle).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return find(ctx, conn, startDate, summer)
		}
		return nil, err
	}

	return cycle, nil
}

func find(ctx context.Context, conn *gorm.DB, startDate time.Time, summer bool) (*returncycledomain.ReturnCycle, error) {
	var cycle returncycledomain.ReturnCycle
	err := conn.WithContext(ctx).Raw(
		`SELECT id, start_date, end_date, due_date, summer, created_at, updated_at
		 FROM return_cycles
		 WHERE start_date = ? AND summer = ?`,
		startDate,
		summer,
	).Scan(&cycle).Error
	if err != nil {
		return nil, err
	}
	if cycle.ID == 0 {
		return nil, nil
	}
	return &cycle, nil
}

func (s *Service) List(ctx context.Context) ([]returncycledomain.ReturnCycle, error) {
	var cycles []returncycledomain.ReturnCycle
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, start_date, end_date, due_date, summer, created_at, updated_at
		 FROM return_cycles
		 ORDER BY start_date DESC, summer`,
	).Scan(&cycles).Error
	if err != nil {
		return nil, err
	}
	return cycles, nil
}
