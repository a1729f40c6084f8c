package calculation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRMDBelowStartAge(t *testing.T) {
	calculator := NewRMDCalculator()

	for age := 50; age < 73; age++ {
		rmd := calculator.Required(age, decimal.NewFromInt(1000000))
		assert.True(t, rmd.IsZero(), "age %d should have no RMD, got %s", age, rmd)
	}
}

func TestRMDAtStartAge(t *testing.T) {
	calculator := NewRMDCalculator()

	rmd := calculator.Required(73, decimal.NewFromInt(1000000))
	// 1000000 / 26.5
	expected := decimal.NewFromInt(1000000).Div(decimal.NewFromFloat(26.5))
	assert.True(t, rmd.Equal(expected), "expected %s, got %s", expected, rmd)
}

func TestRMDDivisorsNonIncreasing(t *testing.T) {
	calculator := NewRMDCalculator()

	prev := calculator.Divisor(73)
	for age := 74; age <= 100; age++ {
		d := calculator.Divisor(age)
		assert.True(t, d.LessThanOrEqual(prev),
			"divisor rose at age %d: %s > %s", age, d, prev)
		prev = d
	}
}

func TestRMDFallbackPastTable(t *testing.T) {
	calculator := NewRMDCalculator()

	d := calculator.Divisor(105)
	assert.True(t, d.Equal(decimal.NewFromFloat(6.4)))
}

func TestRMDZeroBalance(t *testing.T) {
	calculator := NewRMDCalculator()

	assert.True(t, calculator.Required(80, decimal.Zero).IsZero())
	assert.True(t, calculator.Required(80, decimal.NewFromInt(-5)).IsZero())
}

func TestRMDGrowsWithAge(t *testing.T) {
	calculator := NewRMDCalculator()

	balance := decimal.NewFromInt(500000)
	prev := decimal.Zero
	for age := 73; age <= 100; age++ {
		rmd := calculator.Required(age, balance)
		assert.True(t, rmd.GreaterThan(prev),
			"RMD should rise with age for a fixed balance (age %d)", age)
		prev = rmd
	}
}
