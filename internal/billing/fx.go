package billing

import (
	"github.com/hubspaces/billing/internal/billing/service"
	"github.com/hubspaces/billing/internal/tenant"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	tenant.Module,
	fx.Provide(service.NewService),
)
