package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseType(t *testing.T) {
	cases := map[string]Type{
		"dedicated_desk": TypeDedicatedDesk,
		"dedicated-desk": TypeDedicatedDesk,
		"Dedicated":      TypeDedicatedDesk,
		"desk":           TypeDedicatedDesk,
		"private_office": TypePrivateOffice,
		"private":        TypePrivateOffice,
		"virtual_office": TypeVirtualOffice,
		" Virtual ":      TypeVirtualOffice,
	}
	for raw, want := range cases {
		got, err := ParseType(raw)
		assert.NoError(t, err, "input %q", raw)
		assert.Equal(t, want, got, "input %q", raw)
	}

	for _, raw := range []string{"", "hot_desk", "office"} {
		_, err := ParseType(raw)
		assert.Error(t, err, "input %q", raw)
	}
}

func TestTypeTable(t *testing.T) {
	assert.Equal(t, "seat_map", TypeDedicatedDesk.Table())
	assert.Equal(t, "private_office", TypePrivateOffice.Table())
	assert.Equal(t, "virtual_office", TypeVirtualOffice.Table())
}

func TestTenantQuantity(t *testing.T) {
	assert.Equal(t, 3, Tenant{SelectedSeats: []string{"A1", "A2", "A3"}}.Quantity())
	assert.Equal(t, 2, Tenant{SelectedOffices: []string{"301", "302"}}.Quantity())
	assert.Equal(t, 1, Tenant{}.Quantity())
}

func TestTenantInferType(t *testing.T) {
	assert.Equal(t, TypeDedicatedDesk, Tenant{SelectedSeats: []string{"A1"}}.InferType())
	assert.Equal(t, TypePrivateOffice, Tenant{SelectedOffices: []string{"301"}}.InferType())
	assert.Equal(t, TypeVirtualOffice, Tenant{}.InferType())
}
