// Package domain contains persistence models for contract templates.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	tenantdomain "github.com/hubspaces/billing/internal/tenant/domain"
)

var (
	ErrNotFound    = errors.New("contract_template_not_found")
	ErrInvalidName = errors.New("contract_template_name_required")
	ErrInvalidBody = errors.New("contract_template_body_required")
)

// ContractTemplate is an uploaded contract document with placeholder markers.
// At most one template per tenant type is active at a time.
type ContractTemplate struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name       string            `gorm:"type:text;not null" json:"name"`
	TenantType tenantdomain.Type `gorm:"type:text;not null;index" json:"tenantType"`
	Active     bool              `gorm:"not null;default:false;index" json:"active"`
	FileRef    string            `gorm:"type:text" json:"fileRef"`
	Body       string            `gorm:"type:text;not null" json:"body"`
	CreatedAt  time.Time         `gorm:"not null" json:"createdAt"`
	UpdatedAt  time.Time         `gorm:"not null" json:"updatedAt"`
}

// TableName keeps the legacy collection name.
func (ContractTemplate) TableName() string { return "contract_templates" }

// CreateRequest carries a new template upload.
type CreateRequest struct {
	Name       string `json:"name"`
	TenantType string `json:"tenantType"`
	Body       string `json:"body"`
	FileRef    string `json:"fileRef"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*ContractTemplate, error)
	List(ctx context.Context, typ tenantdomain.Type) ([]ContractTemplate, error)
	GetByID(ctx context.Context, id string) (*ContractTemplate, error)
	Delete(ctx context.Context, id string) error

	// Activate makes the template the single active one for its tenant type.
	Activate(ctx context.Context, id string) (*ContractTemplate, error)
	// Render substitutes tenant fields into the template body.
	Render(ctx context.Context, templateID string, typ tenantdomain.Type, tenantID string) (string, error)
}
