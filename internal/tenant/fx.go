package tenant

import (
	"github.com/hubspaces/billing/internal/tenant/repository"
	"github.com/hubspaces/billing/internal/tenant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tenant.service",
	fx.Provide(repository.New),
	fx.Provide(service.NewService),
)
