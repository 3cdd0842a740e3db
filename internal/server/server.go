package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openwater/returns/internal/config"
	reconciliationdomain "github.com/openwater/returns/internal/reconciliation/domain"
	returncycledomain "github.com/openwater/returns/internal/returncycle/domain"
	returnlogdomain "github.com/openwater/returns/internal/returnlog/domain"
	submissiondomain "github.com/openwater/returns/internal/submission/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServerParams struct {
	fx.In

	Config config.Config
	Log    *zap.Logger

	ReturnCycleSvc    returncycledomain.Service
	ReturnLogSvc      returnlogdomain.Service
	ReconciliationSvc reconciliationdomain.Service
	SubmissionSvc     submissiondomain.Service
}

type Server struct {
	cfg config.Config
	log *zap.Logger

	returnCycleSvc    returncycledomain.Service
	returnLogSvc      returnlogdomain.Service
	reconciliationSvc reconciliationdomain.Service
	submissionSvc     submissiondomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		cfg: p.Config,
		log: p.Log.Named("server"),

		returnCycleSvc:    p.ReturnCycleSvc,
		returnLogSvc:      p.ReturnLogSvc,
		reconciliationSvc: p.ReconciliationSvc,
		submissionSvc:     p.SubmissionSvc,
	}
}

func registerGin(cfg config.Config) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())
	return r
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/return-cycles", s.ListReturnCycles)
	r.GET("/return-logs", s.ListReturnLogs)
	r.POST("/return-logs/generate", s.GenerateReturnLogs)
	r.POST("/licences/end", s.EndLicence)
	r.POST("/licences/reconcile", s.ReconcileLicence)
	r.POST("/return-submissions", s.CreateSubmission)
	r.GET("/return-submissions/current", s.GetCurrentSubmission)
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine, s *Server) {
	s.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_ = ctx
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(RunHTTP),
)
