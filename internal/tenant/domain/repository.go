package domain

import "context"

// ListFilter narrows tenant listings.
type ListFilter struct {
	Status Status
}

// Repository persists tenants across the three type tables.
type Repository interface {
	List(ctx context.Context, typ Type, filter ListFilter) ([]Tenant, error)
	Get(ctx context.Context, typ Type, id string) (*Tenant, error)
	Create(ctx context.Context, typ Type, tenant *Tenant) error
	Update(ctx context.Context, typ Type, id string, tenant *Tenant) error
	Delete(ctx context.Context, typ Type, id string) error
}
