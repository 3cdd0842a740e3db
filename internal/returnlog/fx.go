package returnlog

import (
	"github.com/openwater/returns/internal/returnlog/repository"
	"github.com/openwater/returns/internal/returnlog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("returnlog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
