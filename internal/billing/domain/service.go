package domain

import (
	"context"
	"errors"

	tenantdomain "github.com/hubspaces/billing/internal/tenant/domain"
)

var (
	ErrRecordNotFound    = errors.New("billing_record_not_found")
	ErrTenantNotFound    = errors.New("billing_tenant_not_found")
	ErrInvalidMonth      = errors.New("invalid_billing_month")
	ErrInvalidStatus     = errors.New("invalid_billing_status")
	ErrInvalidTransition = errors.New("invalid_status_transition")
	ErrAlreadyBilled     = errors.New("billing_record_exists")
)

// CollectionError records a per-tenant-type failure during a generation run.
// A failing collection never aborts the run; it is reported here instead.
type CollectionError struct {
	Collection string `json:"collection"`
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
}

// RunReport aggregates the outcome of one monthly generation run.
// TotalForMonth counts every record the month holds after the run, including
// ones earlier runs created.
type RunReport struct {
	BillingMonth   string            `json:"billingMonth"`
	Records        []Record          `json:"billingRecords"`
	Errors         []CollectionError `json:"errors"`
	TotalGenerated int               `json:"totalGenerated"`
	TotalErrors    int               `json:"totalErrors"`
	TotalForMonth  int64             `json:"totalForMonth"`
}

// ListRequest narrows billing record listings. A Limit of zero means no cap.
type ListRequest struct {
	Month    string
	Status   Status
	TenantID string
	Limit    int
}

// UpdateFeesRequest adds or replaces post-generation fees on a record.
type UpdateFeesRequest struct {
	PenaltyFee float64 `json:"penaltyFee"`
	DamageFee  float64 `json:"damageFee"`
	Notes      string  `json:"notes"`
}

// StatusBucket sums records sharing a lifecycle state.
type StatusBucket struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// Stats is the read-side monthly reduction.
type Stats struct {
	Month        string                             `json:"month"`
	TotalRecords int                                `json:"totalRecords"`
	TotalBilled  float64                            `json:"totalBilled"`
	TotalPaid    float64                            `json:"totalPaid"`
	ByStatus     map[Status]StatusBucket            `json:"byStatus"`
	ByTenantType map[tenantdomain.Type]StatusBucket `json:"byTenantType"`
}

type Service interface {
	// GenerateMonthly runs generation for every active tenant across the
	// three tenant-type collections. An empty month means the current one.
	GenerateMonthly(ctx context.Context, month string) (RunReport, error)
	// GenerateForTenant is the manual single-tenant trigger.
	GenerateForTenant(ctx context.Context, typ tenantdomain.Type, tenantID, month string) (*Record, error)

	List(ctx context.Context, req ListRequest) ([]Record, error)
	GetByID(ctx context.Context, id string) (*Record, error)

	UpdateStatus(ctx context.Context, id string, status Status, paymentDetails string) (*Record, error)
	UpdateFees(ctx context.Context, id string, req UpdateFeesRequest) (*Record, error)
	SweepOverdue(ctx context.Context) ([]string, error)
	Statistics(ctx context.Context, month string) (Stats, error)
}
