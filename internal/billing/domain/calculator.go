package domain

import (
	"math"

	tenantdomain "github.com/hubspaces/billing/internal/tenant/domain"
)

// VATRate is the fixed Value-Added Tax rate applied to every subtotal.
const VATRate = 0.12

// Breakdown is the structured cost breakdown for one tenant for one month.
type Breakdown struct {
	BaseAmount float64 `json:"baseAmount"`
	Quantity   int     `json:"quantity"`
	CusaFee    float64 `json:"cusaFee"`
	ParkingFee float64 `json:"parkingFee"`
	PenaltyFee float64 `json:"penaltyFee"`
	DamageFee  float64 `json:"damageFee"`
	Subtotal   float64 `json:"subtotal"`
	VAT        float64 `json:"vat"`
	Total      float64 `json:"total"`
}

// CalculateAmount computes a tenant's monthly cost breakdown. It is pure and
// never fails: tenant data is user-entered and frequently incomplete, so
// missing or invalid numeric inputs degrade to zero instead of erroring.
func CalculateAmount(tenant tenantdomain.Tenant) Breakdown {
	quantity := tenant.Quantity()
	rate := sanitizeAmount(tenant.Billing.Rate)
	cusa := sanitizeAmount(tenant.Billing.CusaFee)
	parking := sanitizeAmount(tenant.Billing.ParkingFee)
	penalty := sanitizeAmount(tenant.Billing.PenaltyFee)
	damage := sanitizeAmount(tenant.Billing.DamageFee)

	base := rate * float64(quantity)
	subtotal := base + cusa + parking + penalty + damage
	vat := Round2(subtotal * VATRate)

	return Breakdown{
		BaseAmount: Round2(base),
		Quantity:   quantity,
		CusaFee:    cusa,
		ParkingFee: parking,
		PenaltyFee: penalty,
		DamageFee:  damage,
		Subtotal:   Round2(subtotal),
		VAT:        vat,
		Total:      Round2(subtotal + vat),
	}
}

// Round2 rounds to two decimal places, the smallest unit we bill in.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func sanitizeAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
