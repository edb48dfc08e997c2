package migration

import (
	billingdomain "github.com/hubspaces/billing/internal/billing/domain"
	"github.com/hubspaces/billing/internal/config"
	templatedomain "github.com/hubspaces/billing/internal/contracttemplate/domain"
	tenantdomain "github.com/hubspaces/billing/internal/tenant/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}
		return AutoMigrate(conn)
	}),
)

// AutoMigrate builds the schema directly from the models. Used for sqlite,
// where the versioned postgres migrations do not apply.
func AutoMigrate(conn *gorm.DB) error {
	for _, typ := range tenantdomain.Types() {
		if err := conn.Table(typ.Table()).AutoMigrate(&tenantdomain.Tenant{}); err != nil {
			return err
		}
	}
	if err := conn.AutoMigrate(&billingdomain.Record{}); err != nil {
		return err
	}
	return conn.AutoMigrate(&templatedomain.ContractTemplate{})
}
