// Package domain contains the billing engine: record model, amount
// calculator, record generator and the service contract.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	tenantdomain "github.com/hubspaces/billing/internal/tenant/domain"
	"gorm.io/datatypes"
)

// Status represents billing record lifecycle states.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	default:
		return false
	}
}

// transitions encodes the lifecycle state machine. Paid is terminal; a
// cancelled record stays cancelled.
var transitions = map[Status][]Status{
	StatusPending: {StatusPaid, StatusOverdue, StatusCancelled},
	StatusOverdue: {StatusPaid, StatusCancelled},
}

// CanTransition reports whether a record may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// LineItem is one entry on a billing record's itemized list.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Amount      float64 `json:"amount"`
}

// Record is one invoice-equivalent for one tenant for one calendar month.
type Record struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	TenantID   snowflake.ID      `gorm:"not null;index;uniqueIndex:ux_billing_tenant_month" json:"tenantId"`
	TenantType tenantdomain.Type `gorm:"type:text;not null;index" json:"tenantType"`
	TenantName string            `gorm:"type:text" json:"tenantName"`

	BillingMonth string    `gorm:"type:text;not null;index;uniqueIndex:ux_billing_tenant_month" json:"billingMonth"`
	BillingDate  time.Time `gorm:"not null" json:"billingDate"`
	DueDate      time.Time `gorm:"not null;index" json:"dueDate"`

	BaseRate   float64 `gorm:"not null;default:0" json:"baseRate"`
	Quantity   int     `gorm:"not null;default:1" json:"quantity"`
	CusaFee    float64 `gorm:"not null;default:0" json:"cusaFee"`
	ParkingFee float64 `gorm:"not null;default:0" json:"parkingFee"`
	PenaltyFee float64 `gorm:"not null;default:0" json:"penaltyFee"`
	DamageFee  float64 `gorm:"not null;default:0" json:"damageFee"`
	Subtotal   float64 `gorm:"not null;default:0" json:"subtotal"`
	VAT        float64 `gorm:"column:vat;not null;default:0" json:"vat"`
	Total      float64 `gorm:"not null;default:0" json:"total"`
	Currency   string  `gorm:"type:text;not null;default:'PHP'" json:"currency"`

	Items datatypes.JSONSlice[LineItem] `gorm:"column:items" json:"items"`

	Status         Status     `gorm:"type:text;not null;default:'pending';index" json:"status"`
	PaymentMethod  string     `gorm:"type:text" json:"paymentMethod"`
	PaymentDetails string     `gorm:"type:text" json:"paymentDetails"`
	Notes          string     `gorm:"type:text" json:"notes"`
	PaidAt         *time.Time `gorm:"" json:"paidAt"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

// TableName keeps the legacy collection name.
func (Record) TableName() string { return "billing" }
