package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	tenantdomain "github.com/hubspaces/billing/internal/tenant/domain"
	"gorm.io/datatypes"
)

// DueTerm is the fixed payment term applied to every record.
const DueTerm = 30 * 24 * time.Hour

// Line item descriptions. The penalty and damage descriptions are also what
// UpdateFees matches on when it rewrites the items list.
const (
	ItemMonthlyRental = "Monthly Rental"
	ItemCusaFee       = "CUSA Fee"
	ItemParkingFee    = "Parking Fee"
	ItemPenaltyFee    = "Late Payment Penalty"
	ItemDamageFee     = "Damage Fee"
)

const defaultPaymentMethod = "credit"

// NewRecord assembles a persistable billing record for one tenant and one
// month. It performs no I/O; the caller persists the result.
//
// The due date counts 30 days from the tenant's contract start date when one
// is set, falling back to the generation timestamp.
func NewRecord(id snowflake.ID, tenant tenantdomain.Tenant, typ tenantdomain.Type, billingMonth string, billingDate time.Time) Record {
	breakdown := CalculateAmount(tenant)

	dueBase := billingDate
	if tenant.Billing.StartDate != nil {
		dueBase = *tenant.Billing.StartDate
	}

	paymentMethod := tenant.Billing.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = defaultPaymentMethod
	}

	currency := tenant.Billing.Currency
	if currency == "" {
		currency = "PHP"
	}

	return Record{
		ID:            id,
		TenantID:      tenant.ID,
		TenantType:    typ,
		TenantName:    tenant.Name,
		BillingMonth:  billingMonth,
		BillingDate:   billingDate,
		DueDate:       dueBase.Add(DueTerm),
		BaseRate:      sanitizeAmount(tenant.Billing.Rate),
		Quantity:      breakdown.Quantity,
		CusaFee:       breakdown.CusaFee,
		ParkingFee:    breakdown.ParkingFee,
		PenaltyFee:    breakdown.PenaltyFee,
		DamageFee:     breakdown.DamageFee,
		Subtotal:      breakdown.Subtotal,
		VAT:           breakdown.VAT,
		Total:         breakdown.Total,
		Currency:      currency,
		Items:         datatypes.JSONSlice[LineItem](BuildItems(breakdown)),
		Status:        StatusPending,
		PaymentMethod: paymentMethod,
	}
}

// BuildItems produces the ordered line list for a breakdown: the base rental
// line always, each fee line only when its amount is positive.
func BuildItems(b Breakdown) []LineItem {
	items := []LineItem{{
		Description: ItemMonthlyRental,
		Quantity:    b.Quantity,
		UnitPrice:   unitPrice(b.BaseAmount, b.Quantity),
		Amount:      b.BaseAmount,
	}}

	for _, fee := range []struct {
		description string
		amount      float64
	}{
		{ItemCusaFee, b.CusaFee},
		{ItemParkingFee, b.ParkingFee},
		{ItemPenaltyFee, b.PenaltyFee},
		{ItemDamageFee, b.DamageFee},
	} {
		if fee.amount > 0 {
			items = append(items, LineItem{
				Description: fee.description,
				Quantity:    1,
				UnitPrice:   fee.amount,
				Amount:      fee.amount,
			})
		}
	}
	return items
}

func unitPrice(amount float64, quantity int) float64 {
	if quantity <= 0 {
		return amount
	}
	return Round2(amount / float64(quantity))
}
