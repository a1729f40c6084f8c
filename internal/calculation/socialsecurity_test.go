package calculation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPrimaryInsuranceAmountBendPoints(t *testing.T) {
	calculator := NewSocialSecurityCalculator()

	tests := []struct {
		name     string
		aime     decimal.Decimal
		expected decimal.Decimal
	}{
		{
			name: "below first bend point",
			aime: decimal.NewFromInt(1000),
			// 1000 * 0.90
			expected: decimal.NewFromInt(900),
		},
		{
			name: "at first bend point",
			aime: decimal.NewFromInt(1226),
			// 1226 * 0.90
			expected: decimal.NewFromFloat(1103.4),
		},
		{
			name: "between bend points",
			aime: decimal.NewFromInt(5000),
			// 1226*0.90 + (5000-1226)*0.32
			expected: decimal.NewFromFloat(2311.08),
		},
		{
			name: "above second bend point",
			aime: decimal.NewFromInt(10000),
			// 1226*0.90 + (7391-1226)*0.32 + (10000-7391)*0.15
			expected: decimal.NewFromFloat(3467.55),
		},
		{
			name:     "zero",
			aime:     decimal.Zero,
			expected: decimal.Zero,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pia := calculator.PrimaryInsuranceAmount(tt.aime)
			assert.True(t, pia.Equal(tt.expected),
				"expected %s, got %s", tt.expected, pia)
		})
	}
}

func TestClaimingAdjustmentAtFRA(t *testing.T) {
	calculator := NewSocialSecurityCalculator()

	adj := calculator.ClaimingAdjustment(67)
	assert.True(t, adj.Equal(decimal.NewFromInt(1)))
}

func TestClaimingAdjustmentEarly(t *testing.T) {
	calculator := NewSocialSecurityCalculator()

	// Claiming at 62 with FRA 67 is 60 months early: 36 months at 5/9 of
	// 1% plus 24 months at 5/12 of 1% = 30% reduction.
	adj := calculator.ClaimingAdjustment(62)
	expected := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(0.30))
	diff := adj.Sub(expected).Abs()
	assert.True(t, diff.LessThan(decimal.NewFromFloat(0.0001)),
		"expected about %s, got %s", expected, adj)
}

func TestClaimingAdjustmentDelayed(t *testing.T) {
	calculator := NewSocialSecurityCalculator()

	// Claiming at 70 earns 36 months of 2/3 of 1% = 24% credit.
	adj := calculator.ClaimingAdjustment(70)
	expected := decimal.NewFromFloat(1.24)
	diff := adj.Sub(expected).Abs()
	assert.True(t, diff.LessThan(decimal.NewFromFloat(0.0001)),
		"expected about %s, got %s", expected, adj)
}

func TestClaimingAdjustmentMonotonicity(t *testing.T) {
	calculator := NewSocialSecurityCalculator()

	prev := decimal.Zero
	for age := 62; age <= 70; age++ {
		adj := calculator.ClaimingAdjustment(age)
		assert.True(t, adj.GreaterThan(prev),
			"adjustment must rise with claiming age (age %d: %s <= %s)", age, adj, prev)
		prev = adj
	}
}

func TestClaimingAdjustmentClampsOutOfRange(t *testing.T) {
	calculator := NewSocialSecurityCalculator()

	assert.True(t, calculator.ClaimingAdjustment(55).Equal(calculator.ClaimingAdjustment(62)))
	assert.True(t, calculator.ClaimingAdjustment(80).Equal(calculator.ClaimingAdjustment(70)))
}

func TestEstimateAIMECapsAtWageBase(t *testing.T) {
	calculator := NewSocialSecurityCalculator()

	capped := calculator.EstimateAIME(decimal.NewFromInt(500000))
	atBase := calculator.EstimateAIME(decimal.NewFromInt(176100))
	assert.True(t, capped.Equal(atBase))
}

func TestAnnualBenefit(t *testing.T) {
	calculator := NewSocialSecurityCalculator()

	// 60000/12 = 5000 AIME: 1226*0.90 + 3774*0.32 = 2311.08 monthly at FRA.
	annual := calculator.AnnualBenefit(decimal.NewFromInt(60000), 67)
	expected := decimal.NewFromFloat(2311.08).Mul(decimal.NewFromInt(12))
	assert.True(t, annual.Equal(expected), "expected %s, got %s", expected, annual)
}
