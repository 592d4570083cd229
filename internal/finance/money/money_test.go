package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"2493.150684", "2493.15"},
		{"0.125", "0.13"},
		{"0.135", "0.14"},
		{"-0.125", "-0.13"},
		{"8333.333333", "8333.33"},
		{"10", "10"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Round(decimal.RequireFromString(tt.in))
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(got), "got %s", got)
		})
	}
}

func TestRateAndSum(t *testing.T) {
	assert.True(t, Rate(decimal.NewFromInt(12)).Equal(decimal.RequireFromString("0.12")))
	assert.True(t, Sum().IsZero())
	assert.True(t, Sum(decimal.NewFromInt(1), Unit(), Unit()).Equal(decimal.RequireFromString("1.02")))
}

func TestFloor(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"0.0269", "0.02"},
		{"8333.339", "8333.33"},
		{"0.005", "0"},
		{"10", "10"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Floor(decimal.RequireFromString(tt.in))
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(got), "got %s", got)
		})
	}
}
