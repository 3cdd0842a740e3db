package returncycle

import (
	"github.com/openwater/returns/internal/returncycle/service"
	"go.uber.org/fx"
)

var Module = fx.Module("returncycle.service",
	fx.Provide(service.NewService),
)
