package calculation

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsim/retirement-engine/internal/domain"
)

func wealthyParams() *domain.SimulationParams {
	p := singleFilerParams()
	p.TaxableBalance = decimal.NewFromInt(5000000)
	p.TaxableCostBasis = decimal.NewFromInt(4000000)
	p.PreTaxBalance = decimal.NewFromInt(3000000)
	p.WithdrawalRate = decimal.NewFromFloat(0.02)
	return p
}

func TestOptimizeWealthyPlan(t *testing.T) {
	params := wealthyParams()

	opt := NewOptimizer()
	result, err := opt.Optimize(context.Background(), params)
	require.NoError(t, err)

	assert.True(t, result.Converged)
	assert.True(t, result.SurplusAnnual.GreaterThanOrEqual(decimal.Zero),
		"an overfunded plan has non-negative surplus, got %s", result.SurplusAnnual)
	assert.True(t, result.SurplusMonthly.Equal(result.SurplusAnnual.Div(decimal.NewFromInt(12))))
	assert.True(t, result.MaxSplurge.GreaterThan(decimal.Zero),
		"an overfunded plan supports a splurge, got %s", result.MaxSplurge)
}

func TestEarliestRetirementAgeFloor(t *testing.T) {
	// So overfunded that even retiring next year passes: the search must
	// stop at current age + 1, never at or below the current age.
	params := wealthyParams()
	params.TaxableBalance = decimal.NewFromInt(20000000)
	params.TaxableCostBasis = decimal.NewFromInt(15000000)

	opt := NewOptimizer()
	result, err := opt.Optimize(context.Background(), params)
	require.NoError(t, err)

	require.True(t, result.Converged)
	assert.Equal(t, params.YoungerAge()+1, result.EarliestRetirementAge)
	assert.Equal(t, params.RetirementAge-result.EarliestRetirementAge, result.YearsEarlier)
}

func TestOptimizeUnderfundedPlan(t *testing.T) {
	// No Social Security and a 20% draw against 2% returns: every path
	// ruins, and because spending scales with the portfolio no amount of
	// extra saving can fix the rate.
	params := singleFilerParams()
	params.Spouses[0].AnnualIncome = decimal.Zero
	params.TaxableBalance = decimal.NewFromInt(50000)
	params.TaxableCostBasis = decimal.NewFromInt(50000)
	params.PreTaxBalance = decimal.NewFromInt(50000)
	params.RothBalance = decimal.Zero
	params.NominalReturn = decimal.NewFromFloat(0.02)
	params.WithdrawalRate = decimal.NewFromFloat(0.20)
	params.LifeExpectancy = 95

	opt := NewOptimizer()
	result, err := opt.Optimize(context.Background(), params)
	require.NoError(t, err)

	assert.False(t, result.Converged)
	assert.True(t, result.SurplusAnnual.LessThan(decimal.Zero),
		"an underfunded plan reports a shortfall, got %s", result.SurplusAnnual)
	// Goal-seeks that assume a passing baseline stay at their configured
	// values.
	assert.Equal(t, params.RetirementAge, result.EarliestRetirementAge)
	assert.True(t, result.MaxSplurge.IsZero())
}

func TestOptimizeInvalidParams(t *testing.T) {
	params := singleFilerParams()
	params.Filing = "household"

	opt := NewOptimizer()
	_, err := opt.Optimize(context.Background(), params)
	assert.Error(t, err)
}

func TestOptimizeCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opt := NewOptimizer()
	_, err := opt.Optimize(ctx, wealthyParams())
	assert.ErrorIs(t, err, context.Canceled)
}
