package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/finsim/retirement-engine/internal/config"
	"github.com/finsim/retirement-engine/internal/domain"
)

// RothPlanner evaluates bracket-filling Roth conversion strategies against a
// no-conversion baseline on a deterministic path. The comparison uses fixed
// expected returns so the tax difference is attributable to the strategy,
// not to market noise.
type RothPlanner struct {
	policy *config.Policy
	hist   *config.HistoricalReturns
	logger Logger
}

// NewRothPlanner creates a planner over the built-in policy and historical
// series.
func NewRothPlanner() *RothPlanner {
	return NewRothPlannerWithConfig(config.DefaultPolicy(), config.DefaultHistoricalReturns(), nil)
}

// NewRothPlannerWithConfig creates a planner with explicit policy tables and
// historical data. A nil logger disables logging.
func NewRothPlannerWithConfig(policy *config.Policy, hist *config.HistoricalReturns, logger Logger) *RothPlanner {
	if logger == nil {
		logger = &NopLogger{}
	}
	return &RothPlanner{policy: policy, hist: hist, logger: logger}
}

// Plan compares lifetime taxes without conversions against each candidate
// target bracket and recommends the best, if any candidate saves money.
// When the caller configured a target bracket only that bracket is
// evaluated.
func (rp *RothPlanner) Plan(params *domain.SimulationParams) (*domain.RothPlanResult, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid conversion parameters: %w", err)
	}
	if params.PreTaxBalance.LessThanOrEqual(decimal.Zero) {
		return &domain.RothPlanResult{
			HasRecommendation: false,
			Reason:            "no pre-tax balance to convert",
		}, nil
	}
	if params.YoungerAge() >= rp.policy.RMDStartAge {
		return &domain.RothPlanResult{
			HasRecommendation: false,
			Reason:            "household is already past the RMD start age; the conversion window has closed",
		}, nil
	}

	baseline, err := rp.deterministicRun(params, domain.RothConversionPolicy{})
	if err != nil {
		return nil, err
	}

	candidates := rp.candidateRates(params)
	var best *domain.PathResult
	for _, rate := range candidates {
		run, err := rp.deterministicRun(params, domain.RothConversionPolicy{
			Enabled:           true,
			TargetBracketRate: rate,
		})
		if err != nil {
			return nil, err
		}
		if run.TotalConverted.LessThanOrEqual(decimal.Zero) {
			continue
		}
		if best == nil || run.LifetimeTax.LessThan(best.LifetimeTax) {
			best = run
		}
	}

	if best == nil || best.LifetimeTax.GreaterThanOrEqual(baseline.LifetimeTax) {
		return &domain.RothPlanResult{
			HasRecommendation:   false,
			Reason:              "conversions do not reduce lifetime taxes for this plan",
			BaselineLifetimeTax: baseline.LifetimeTax,
		}, nil
	}

	savings := baseline.LifetimeTax.Sub(best.LifetimeTax)
	improvement := decimal.Zero
	if baseline.LifetimeTax.GreaterThan(decimal.Zero) {
		improvement = savings.Div(baseline.LifetimeTax)
	}

	rp.logger.Infof("roth plan: %s lifetime tax savings over %d conversion years",
		savings.StringFixed(0), best.ConversionYears)

	return &domain.RothPlanResult{
		HasRecommendation:        true,
		BaselineLifetimeTax:      baseline.LifetimeTax,
		OptimizedLifetimeTax:     best.LifetimeTax,
		LifetimeTaxSavings:       savings,
		TotalConverted:           best.TotalConverted,
		RMDReduction:             baseline.TotalRMDs.Sub(best.TotalRMDs),
		EffectiveRateImprovement: improvement,
		ConversionYears:          best.ConversionYears,
	}, nil
}

// candidateRates returns the bracket rates to evaluate: the configured
// target when set, otherwise every bounded ordinary bracket above the
// lowest.
func (rp *RothPlanner) candidateRates(params *domain.SimulationParams) []decimal.Decimal {
	if params.RothConversion.Enabled && params.RothConversion.TargetBracketRate.GreaterThan(decimal.Zero) {
		return []decimal.Decimal{params.RothConversion.TargetBracketRate}
	}
	filing := rp.policy.Filing(params.Married())
	var rates []decimal.Decimal
	for i, bracket := range filing.OrdinaryBrackets {
		if i == 0 || bracket.Unbounded() {
			continue
		}
		rates = append(rates, bracket.Rate)
	}
	return rates
}

// deterministicRun simulates one fixed-return path with the given conversion
// policy.
func (rp *RothPlanner) deterministicRun(params *domain.SimulationParams, conv domain.RothConversionPolicy) (*domain.PathResult, error) {
	clone := *params
	clone.ReturnMode = domain.ReturnFixed
	clone.RothConversion = conv
	sim := NewPathSimulatorWithConfig(&clone, rp.policy, rp.hist, rp.logger)
	return sim.Run(clone.Seed)
}
