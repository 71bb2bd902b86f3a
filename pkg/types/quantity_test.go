package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestQuantityFits(t *testing.T) {
	cases := map[string]bool{
		"0":                   true,
		"12":                  true,
		"0.001":               true,
		"-2.5":                true,
		"1.2300":              true,
		"0.0004":              false,
		"3.1415":              false,
		"999999999999999.999": true,
		"1000000000000000":    false,
		"-1000000000000000":   false,
	}
	for raw, want := range cases {
		require.Equal(t, want, QuantityFits(decimal.RequireFromString(raw)), raw)
	}
}
