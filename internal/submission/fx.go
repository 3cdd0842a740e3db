package submission

import (
	"github.com/openwater/returns/internal/submission/repository"
	"github.com/openwater/returns/internal/submission/service"
	"go.uber.org/fx"
)

var Module = fx.Module("submission.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
