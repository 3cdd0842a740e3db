package scheduler

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/openwater/returns/internal/clock"
	obsmetrics "github.com/openwater/returns/internal/observability/metrics"
	returncycledomain "github.com/openwater/returns/internal/returncycle/domain"
	returnlogdomain "github.com/openwater/returns/internal/returnlog/domain"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler missing required dependency")

type Params struct {
	fx.In

	Log          *zap.Logger
	Clock        clock.Clock
	ReturnLogSvc returnlogdomain.Service
	Config       Config `optional:"true"`
}

// Scheduler runs the nightly return log generation for both cycle kinds.
// Generation is idempotent, so an errored run is simply retried by the
// next tick.
type Scheduler struct {
	log          *zap.Logger
	cfg          Config
	clock        clock.Clock
	returnLogSvc returnlogdomain.Service
	cron         *cron.Cron
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.ReturnLogSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:          p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:          p.Config.withDefaults(),
		clock:        p.Clock,
		returnLogSvc: p.ReturnLogSvc,
		cron:         cron.New(),
	}, nil
}

func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		s.RunGeneration(context.Background())
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("scheduler started", zap.String("schedule", s.cfg.Schedule))
	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunGeneration generates return logs for the cycles containing today's
// date, summer and all-year.
func (s *Scheduler) RunGeneration(parent context.Context) {
	runID := ulid.Make().String()
	now := s.clock.Now()

	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	log := s.log.With(zap.String("job", "generate_return_logs"), zap.String("run_id", runID))
	obsmetrics.IncJobRun("generate_return_logs")

	for _, summer := range []bool{false, true} {
		result, err := s.returnLogSvc.GenerateForCycle(ctx, returnlogdomain.GenerateRequest{
			Date:   now,
			Summer: summer,
		})
		if err != nil {
			obsmetrics.IncJobError("generate_return_logs")
			log.Error("generation run failed",
				zap.Bool("summer", summer),
				zap.Error(err),
			)
			continue
		}

		obsmetrics.AddLogsGenerated(summer, result.Generated)
		log.Info("generation run complete",
			zap.Bool("summer", summer),
			zap.String("cycle_start", returncycledomain.CycleStartDate(now, summer).Format(returncycledomain.DateOnly)),
			zap.Int("generated", result.Generated),
			zap.Int("skipped", result.Skipped),
			zap.Int("failed", result.Failed),
		)
	}
}
