package contracttemplate

import (
	"github.com/hubspaces/billing/internal/contracttemplate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("contracttemplate.service",
	fx.Provide(service.NewService),
)
