package domain

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("tenant_not_found")
	ErrInvalidName  = errors.New("tenant_name_required")
	ErrInvalidType  = errors.New("invalid_tenant_type")
	ErrTypeConflict = errors.New("tenant_selection_conflict")
)

// CreateRequest carries a new tenant record.
type CreateRequest struct {
	Name            string          `json:"name"`
	Company         string          `json:"company"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	Address         string          `json:"address"`
	Status          string          `json:"status"`
	SelectedSeats   []string        `json:"selectedSeats"`
	SelectedOffices []string        `json:"selectedOffices"`
	Billing         BillingSettings `json:"billing"`
}

type Service interface {
	List(ctx context.Context, typ Type, filter ListFilter) ([]Tenant, error)
	ListActive(ctx context.Context, typ Type) ([]Tenant, error)
	Get(ctx context.Context, typ Type, id string) (*Tenant, error)
	Create(ctx context.Context, typ Type, req CreateRequest) (*Tenant, error)
	Update(ctx context.Context, typ Type, id string, req CreateRequest) (*Tenant, error)
	Delete(ctx context.Context, typ Type, id string) error
}
