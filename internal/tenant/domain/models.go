// Package domain contains persistence models for tenants.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Type identifies which occupancy product a tenant is on. It determines the
// table the tenant lives in and the quantity rule used when billing.
type Type string

const (
	TypeDedicatedDesk Type = "dedicated_desk"
	TypePrivateOffice Type = "private_office"
	TypeVirtualOffice Type = "virtual_office"
)

// Types returns all tenant types in generation order.
func Types() []Type {
	return []Type{TypeDedicatedDesk, TypePrivateOffice, TypeVirtualOffice}
}

// Table returns the backing table for a tenant type. The names mirror the
// collections used by the legacy document store.
func (t Type) Table() string {
	switch t {
	case TypeDedicatedDesk:
		return "seat_map"
	case TypePrivateOffice:
		return "private_office"
	case TypeVirtualOffice:
		return "virtual_office"
	default:
		return ""
	}
}

// ParseType normalizes a user-supplied tenant type.
func ParseType(raw string) (Type, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
	switch normalized {
	case string(TypeDedicatedDesk), "dedicated", "desk":
		return TypeDedicatedDesk, nil
	case string(TypePrivateOffice), "private":
		return TypePrivateOffice, nil
	case string(TypeVirtualOffice), "virtual":
		return TypeVirtualOffice, nil
	default:
		return "", fmt.Errorf("unknown tenant type %q", raw)
	}
}

// Status gates whether a tenant participates in monthly billing generation.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// BillingSettings is the per-tenant billing configuration sub-record.
type BillingSettings struct {
	Rate          float64    `gorm:"column:rate;not null;default:0" json:"rate"`
	CusaFee       float64    `gorm:"column:cusa_fee;not null;default:0" json:"cusaFee"`
	ParkingFee    float64    `gorm:"column:parking_fee;not null;default:0" json:"parkingFee"`
	PenaltyFee    float64    `gorm:"column:penalty_fee;not null;default:0" json:"penaltyFee"`
	DamageFee     float64    `gorm:"column:damage_fee;not null;default:0" json:"damageFee"`
	Currency      string     `gorm:"column:currency;type:text;not null;default:'PHP'" json:"currency"`
	PaymentMethod string     `gorm:"column:payment_method;type:text" json:"paymentMethod"`
	Plan          string     `gorm:"column:plan;type:text" json:"plan"`
	MonthsToAvail int        `gorm:"column:months_to_avail;not null;default:0" json:"monthsToAvail"`
	StartDate     *time.Time `gorm:"column:start_date" json:"startDate"`
	BillingStart  *time.Time `gorm:"column:period_start" json:"billingStartDate"`
	BillingEnd    *time.Time `gorm:"column:period_end" json:"billingEndDate"`
}

// Tenant represents an occupant of a dedicated desk, private office or
// virtual office. The struct is shared across the three type tables; the
// repository binds it to the right one.
type Tenant struct {
	ID              snowflake.ID                 `gorm:"primaryKey" json:"id"`
	Name            string                       `gorm:"type:text;not null" json:"name"`
	Company         string                       `gorm:"type:text" json:"company"`
	Email           string                       `gorm:"type:text" json:"email"`
	Phone           string                       `gorm:"type:text" json:"phone"`
	Address         string                       `gorm:"type:text" json:"address"`
	Status          Status                       `gorm:"type:text;not null;default:'active';index" json:"status"`
	SelectedSeats   datatypes.JSONSlice[string]  `gorm:"column:selected_seats" json:"selectedSeats"`
	SelectedOffices datatypes.JSONSlice[string]  `gorm:"column:selected_offices" json:"selectedOffices"`
	Billing         BillingSettings              `gorm:"embedded;embeddedPrefix:billing_" json:"billing"`
	CreatedAt       time.Time                    `gorm:"not null" json:"createdAt"`
	UpdatedAt       time.Time                    `gorm:"not null" json:"updatedAt"`
}

// Quantity returns the billable unit count: seats for dedicated desks,
// offices for private offices, one for virtual offices.
func (t Tenant) Quantity() int {
	if len(t.SelectedSeats) > 0 {
		return len(t.SelectedSeats)
	}
	if len(t.SelectedOffices) > 0 {
		return len(t.SelectedOffices)
	}
	return 1
}

// InferType derives the tenant type from which selection list is populated.
func (t Tenant) InferType() Type {
	if len(t.SelectedSeats) > 0 {
		return TypeDedicatedDesk
	}
	if len(t.SelectedOffices) > 0 {
		return TypePrivateOffice
	}
	return TypeVirtualOffice
}
