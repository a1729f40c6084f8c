package calculation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/finsim/retirement-engine/internal/config"
	"github.com/finsim/retirement-engine/internal/domain"
)

// Optimizer search parameters. Searches on dollar amounts stop when the
// bracket narrows below dollarTolerance or after maxSearchIterations splits,
// whichever comes first; the best passing value found so far is reported.
const (
	optimizerPathCount  = 400
	maxSearchIterations = 32
)

var (
	ruinTolerance   = decimal.NewFromFloat(0.05)
	dollarTolerance = decimal.NewFromInt(100)
)

// Optimizer answers goal-seeking questions about a plan by re-running
// reduced Monte Carlo batches against a pass criterion: ruin probability
// under the tolerance.
type Optimizer struct {
	policy *config.Policy
	hist   *config.HistoricalReturns
	logger Logger
}

// NewOptimizer creates an optimizer over the built-in policy and historical
// series.
func NewOptimizer() *Optimizer {
	return NewOptimizerWithConfig(config.DefaultPolicy(), config.DefaultHistoricalReturns(), nil)
}

// NewOptimizerWithConfig creates an optimizer with explicit policy tables
// and historical data. A nil logger disables logging.
func NewOptimizerWithConfig(policy *config.Policy, hist *config.HistoricalReturns, logger Logger) *Optimizer {
	if logger == nil {
		logger = &NopLogger{}
	}
	return &Optimizer{policy: policy, hist: hist, logger: logger}
}

// Optimize runs all three searches: annual surplus or shortfall, maximum
// one-time splurge, and earliest viable retirement age.
func (o *Optimizer) Optimize(ctx context.Context, params *domain.SimulationParams) (*domain.OptimizationResult, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid optimization parameters: %w", err)
	}

	basePasses, err := o.passes(ctx, params)
	if err != nil {
		return nil, err
	}

	result := &domain.OptimizationResult{
		EarliestRetirementAge: params.RetirementAge,
		Converged:             basePasses,
	}

	surplus, err := o.searchSurplus(ctx, params, basePasses)
	if err != nil {
		return nil, err
	}
	result.SurplusAnnual = surplus
	result.SurplusMonthly = surplus.Div(twelve)

	if basePasses {
		splurge, err := o.searchSplurge(ctx, params)
		if err != nil {
			return nil, err
		}
		result.MaxSplurge = splurge

		age, err := o.searchRetirementAge(ctx, params)
		if err != nil {
			return nil, err
		}
		result.EarliestRetirementAge = age
		result.YearsEarlier = params.RetirementAge - age
	}

	return result, nil
}

// passes runs a reduced batch and applies the ruin criterion.
func (o *Optimizer) passes(ctx context.Context, params *domain.SimulationParams) (bool, error) {
	runner := NewBatchRunnerWithConfig(o.policy, o.hist, o.logger)
	runner.PathCount = optimizerPathCount
	batch, err := runner.Run(ctx, params)
	if err != nil {
		return false, err
	}
	return batch.RuinProbability.LessThan(ruinTolerance), nil
}

// searchSurplus finds how much annual saving the plan can give up while
// still passing (positive surplus), or how much extra saving it needs to
// pass (negative). The search brackets the smallest contribution delta that
// passes; surplus is its negation.
func (o *Optimizer) searchSurplus(ctx context.Context, params *domain.SimulationParams, basePasses bool) (decimal.Decimal, error) {
	contributions := params.TotalAnnualContributions()

	var lo, hi decimal.Decimal
	if basePasses {
		// Deltas in [-contributions, 0]: lo passes iff surplus covers it.
		lo = contributions.Neg()
		hi = decimal.Zero
		loPasses, err := o.passes(ctx, o.withContributionDelta(params, lo))
		if err != nil {
			return decimal.Zero, err
		}
		if loPasses {
			// Passes with zero saving; surplus is the full contribution.
			return contributions, nil
		}
	} else {
		// Positive deltas only: grow hi until the plan passes.
		lo = decimal.Zero
		hi = contributions.Add(decimal.NewFromInt(10000))
		for i := 0; i < maxSearchIterations; i++ {
			hiPasses, err := o.passes(ctx, o.withContributionDelta(params, hi))
			if err != nil {
				return decimal.Zero, err
			}
			if hiPasses {
				break
			}
			hi = hi.Mul(decimal.NewFromInt(2))
			if i == maxSearchIterations-1 {
				// No attainable contribution fixes the plan.
				return hi.Neg(), nil
			}
		}
	}

	// Invariant: lo fails, hi passes.
	for i := 0; i < maxSearchIterations && hi.Sub(lo).GreaterThan(dollarTolerance); i++ {
		mid := lo.Add(hi).Div(decimal.NewFromInt(2))
		midPasses, err := o.passes(ctx, o.withContributionDelta(params, mid))
		if err != nil {
			return decimal.Zero, err
		}
		if midPasses {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi.Neg(), nil
}

// searchSplurge finds the largest one-time spend from today's taxable
// balance that leaves the plan passing.
func (o *Optimizer) searchSplurge(ctx context.Context, params *domain.SimulationParams) (decimal.Decimal, error) {
	hi := params.TaxableBalance
	if hi.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, nil
	}

	hiPasses, err := o.passes(ctx, o.withSplurge(params, hi))
	if err != nil {
		return decimal.Zero, err
	}
	if hiPasses {
		return hi, nil
	}

	// Invariant: lo passes, hi fails.
	lo := decimal.Zero
	for i := 0; i < maxSearchIterations && hi.Sub(lo).GreaterThan(dollarTolerance); i++ {
		mid := lo.Add(hi).Div(decimal.NewFromInt(2))
		midPasses, err := o.passes(ctx, o.withSplurge(params, mid))
		if err != nil {
			return decimal.Zero, err
		}
		if midPasses {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo, nil
}

// searchRetirementAge finds the earliest retirement age, at or after next
// year, that still passes. Viability is monotone in age, so the age axis
// binary-searches cleanly.
func (o *Optimizer) searchRetirementAge(ctx context.Context, params *domain.SimulationParams) (int, error) {
	floor := params.YoungerAge() + 1
	if params.RetirementAge <= floor {
		return params.RetirementAge, nil
	}

	lo, hi := floor, params.RetirementAge
	loPasses, err := o.passes(ctx, o.withRetirementAge(params, lo))
	if err != nil {
		return 0, err
	}
	if loPasses {
		return lo, nil
	}

	// Invariant: lo fails, hi passes.
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		midPasses, err := o.passes(ctx, o.withRetirementAge(params, mid))
		if err != nil {
			return 0, err
		}
		if midPasses {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi, nil
}

// withContributionDelta clones params with total annual contributions
// shifted by delta. Positive deltas add taxable saving; negative deltas
// scale every contribution line down proportionally.
func (o *Optimizer) withContributionDelta(params *domain.SimulationParams, delta decimal.Decimal) *domain.SimulationParams {
	clone := *params
	clone.Spouses = make([]domain.Spouse, len(params.Spouses))
	copy(clone.Spouses, params.Spouses)

	if delta.GreaterThanOrEqual(decimal.Zero) {
		clone.Spouses[0].ContributionTaxable = clone.Spouses[0].ContributionTaxable.Add(delta)
		return &clone
	}

	total := params.TotalAnnualContributions()
	if total.LessThanOrEqual(decimal.Zero) {
		return &clone
	}
	scale := total.Add(delta).Div(total)
	if scale.LessThan(decimal.Zero) {
		scale = decimal.Zero
	}
	for i := range clone.Spouses {
		s := &clone.Spouses[i]
		s.ContributionTaxable = s.ContributionTaxable.Mul(scale)
		s.ContributionPreTax = s.ContributionPreTax.Mul(scale)
		s.ContributionRoth = s.ContributionRoth.Mul(scale)
		s.EmployerMatch = s.EmployerMatch.Mul(scale)
	}
	return &clone
}

// withSplurge clones params with the splurge removed from today's taxable
// balance, proportionally shrinking basis.
func (o *Optimizer) withSplurge(params *domain.SimulationParams, amount decimal.Decimal) *domain.SimulationParams {
	clone := *params
	if params.TaxableBalance.GreaterThan(decimal.Zero) {
		keep := params.TaxableBalance.Sub(amount).Div(params.TaxableBalance)
		clone.TaxableBalance = params.TaxableBalance.Sub(amount)
		clone.TaxableCostBasis = params.TaxableCostBasis.Mul(keep)
	}
	return &clone
}

// withRetirementAge clones params with a different retirement age.
func (o *Optimizer) withRetirementAge(params *domain.SimulationParams, age int) *domain.SimulationParams {
	clone := *params
	clone.RetirementAge = age
	return &clone
}
