package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonthOf(t *testing.T) {
	assert.Equal(t, "2024-03", MonthOf(time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, "2024-12", MonthOf(time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)))
}

func TestParseMonth(t *testing.T) {
	month, err := ParseMonth(" 2024-03 ")
	assert.NoError(t, err)
	assert.Equal(t, "2024-03", month)

	for _, raw := range []string{"", "2024", "2024-13", "03-2024", "2024-3", "march"} {
		_, err := ParseMonth(raw)
		assert.ErrorIs(t, err, ErrInvalidMonth, "input %q", raw)
	}
}
