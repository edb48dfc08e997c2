package repository

import (
	"context"
	"errors"

	tenantdomain "github.com/hubspaces/billing/internal/tenant/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) tenantdomain.Repository {
	return &repository{db: db}
}

func (r *repository) table(ctx context.Context, typ tenantdomain.Type) *gorm.DB {
	return r.db.WithContext(ctx).Table(typ.Table()).Model(&tenantdomain.Tenant{})
}

func (r *repository) List(ctx context.Context, typ tenantdomain.Type, filter tenantdomain.ListFilter) ([]tenantdomain.Tenant, error) {
	stmt := r.table(ctx, typ)
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}

	var tenants []tenantdomain.Tenant
	if err := stmt.Order("created_at ASC").Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

func (r *repository) Get(ctx context.Context, typ tenantdomain.Type, id string) (*tenantdomain.Tenant, error) {
	var tenant tenantdomain.Tenant
	err := r.table(ctx, typ).Where("id = ?", id).First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *repository) Create(ctx context.Context, typ tenantdomain.Type, tenant *tenantdomain.Tenant) error {
	return r.table(ctx, typ).Create(tenant).Error
}

func (r *repository) Update(ctx context.Context, typ tenantdomain.Type, id string, tenant *tenantdomain.Tenant) error {
	return r.table(ctx, typ).
		Where("id = ?", id).
		Select("*").
		Omit("id", "created_at").
		Updates(tenant).Error
}

func (r *repository) Delete(ctx context.Context, typ tenantdomain.Type, id string) error {
	return r.table(ctx, typ).Where("id = ?", id).Delete(&tenantdomain.Tenant{}).Error
}
