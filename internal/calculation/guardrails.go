package calculation

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/finsim/retirement-engine/internal/domain"
)

// referenceReduction is the spending cut the preventability schedule was
// calibrated at. Other cuts scale linearly against it.
var referenceReduction = decimal.NewFromFloat(0.10)

// preventability maps how early a path failed to the estimated chance that a
// dynamic spending cut would have saved it. Early failures are sequence-of-
// returns driven and respond well; late failures usually reflect a plan that
// was never viable.
var preventability = []struct {
	beforeYear int
	chance     decimal.Decimal
}{
	{5, decimal.NewFromFloat(0.90)},
	{10, decimal.NewFromFloat(0.65)},
	{15, decimal.NewFromFloat(0.40)},
	{20, decimal.NewFromFloat(0.20)},
	{25, decimal.NewFromFloat(0.08)},
}

var latePreventability = decimal.NewFromFloat(0.02)

// EstimateGuardrails estimates the success-rate uplift a guardrails policy
// (cutting spending by spendingReduction when markets turn against the plan)
// would deliver, without re-running the batch. Each failed path contributes
// its preventability chance to the recovered count.
func EstimateGuardrails(batch *domain.BatchResult, spendingReduction decimal.Decimal) (*domain.GuardrailsResult, error) {
	if batch == nil || batch.PathCount == 0 {
		return nil, fmt.Errorf("guardrails estimation requires a completed batch")
	}
	if spendingReduction.LessThanOrEqual(decimal.Zero) || spendingReduction.GreaterThanOrEqual(one) {
		return nil, fmt.Errorf("spending reduction must be in (0, 1), got %s", spendingReduction)
	}

	scale := spendingReduction.Div(referenceReduction)

	failed := lo.Filter(batch.Paths, func(p domain.PathSummary, _ int) bool { return p.Ruined })
	recovered := decimal.Zero
	for _, p := range failed {
		// Failure timing is measured from retirement, not from today.
		intoRetirement := p.SurvivalYears - batch.YearsToRetirement
		if intoRetirement < 0 {
			intoRetirement = 0
		}
		chance := failureChance(intoRetirement).Mul(scale)
		if chance.GreaterThan(one) {
			chance = one
		}
		recovered = recovered.Add(chance)
	}

	total := decimal.NewFromInt(int64(batch.PathCount))
	baseline := batch.SuccessRate()
	adjusted := baseline.Add(recovered.Div(total))
	if adjusted.GreaterThan(one) {
		adjusted = one
	}

	return &domain.GuardrailsResult{
		BaselineSuccessRate: baseline,
		AdjustedSuccessRate: adjusted,
		RecoveredPaths:      recovered,
		SpendingReduction:   spendingReduction,
		FailedPaths:         len(failed),
	}, nil
}

func failureChance(survivalYears int) decimal.Decimal {
	for _, tier := range preventability {
		if survivalYears < tier.beforeYear {
			return tier.chance
		}
	}
	return latePreventability
}
