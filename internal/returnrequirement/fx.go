package returnrequirement

import (
	"github.com/openwater/returns/internal/returnrequirement/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("returnrequirement.repository",
	fx.Provide(repository.Provide),
)
