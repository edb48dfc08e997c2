package domain

import (
	"math"
	"testing"

	tenantdomain "github.com/hubspaces/billing/internal/tenant/domain"
	"github.com/stretchr/testify/assert"
)

func TestCalculateAmount_BaseRateOnly(t *testing.T) {
	tenant := tenantdomain.Tenant{
		Billing: tenantdomain.BillingSettings{Rate: 8000},
	}

	b := CalculateAmount(tenant)

	assert.Equal(t, 1, b.Quantity)
	assert.Equal(t, 8000.0, b.BaseAmount)
	assert.Equal(t, 8000.0, b.Subtotal)
	assert.Equal(t, 960.0, b.VAT)
	assert.Equal(t, 8960.0, b.Total)
}

func TestCalculateAmount_SeatsAndFees(t *testing.T) {
	tenant := tenantdomain.Tenant{
		SelectedSeats: []string{"A1", "A2", "A3"},
		Billing: tenantdomain.BillingSettings{
			Rate:       5000,
			CusaFee:    500,
			ParkingFee: 200,
		},
	}

	b := CalculateAmount(tenant)

	assert.Equal(t, 3, b.Quantity)
	assert.Equal(t, 15000.0, b.BaseAmount)
	assert.Equal(t, 15700.0, b.Subtotal)
	assert.Equal(t, 1884.0, b.VAT)
	assert.Equal(t, 17584.0, b.Total)
}

func TestCalculateAmount_OfficesQuantity(t *testing.T) {
	tenant := tenantdomain.Tenant{
		SelectedOffices: []string{"201", "202"},
		Billing:         tenantdomain.BillingSettings{Rate: 20000},
	}

	b := CalculateAmount(tenant)

	assert.Equal(t, 2, b.Quantity)
	assert.Equal(t, 40000.0, b.BaseAmount)
}

func TestCalculateAmount_InvalidInputsDegradeToZero(t *testing.T) {
	tenant := tenantdomain.Tenant{
		Billing: tenantdomain.BillingSettings{
			Rate:       math.NaN(),
			CusaFee:    -500,
			ParkingFee: math.Inf(1),
			DamageFee:  1000,
		},
	}

	b := CalculateAmount(tenant)

	assert.Equal(t, 0.0, b.BaseAmount)
	assert.Equal(t, 0.0, b.CusaFee)
	assert.Equal(t, 0.0, b.ParkingFee)
	assert.Equal(t, 1000.0, b.DamageFee)
	assert.Equal(t, 1000.0, b.Subtotal)
	assert.Equal(t, 120.0, b.VAT)
	assert.Equal(t, 1120.0, b.Total)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.12, Round2(0.1234))
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, 1884.0, Round2(15700*0.12))
}
