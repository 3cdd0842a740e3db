package licence

import (
	"github.com/openwater/returns/internal/licence/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("licence.repository",
	fx.Provide(repository.Provide),
)
