package domain

import "github.com/shopspring/decimal"

// AccountBalances is the mutable per-path account state. Each in-flight path
// owns exactly one instance; balances are never shared across paths.
type AccountBalances struct {
	Taxable   decimal.Decimal `json:"taxable"`
	PreTax    decimal.Decimal `json:"preTax"`
	Roth      decimal.Decimal `json:"roth"`
	CostBasis decimal.Decimal `json:"costBasis"`
}

// Total returns the combined nominal balance across the three buckets.
func (a *AccountBalances) Total() decimal.Decimal {
	return a.Taxable.Add(a.PreTax).Add(a.Roth)
}

// ClampNonNegative floors every bucket at zero. Rounding in withdrawal and
// tax math can briefly push a bucket negative; that is a modeled depletion,
// not an error.
func (a *AccountBalances) ClampNonNegative() {
	if a.Taxable.IsNegative() {
		a.Taxable = decimal.Zero
	}
	if a.PreTax.IsNegative() {
		a.PreTax = decimal.Zero
	}
	if a.Roth.IsNegative() {
		a.Roth = decimal.Zero
	}
	if a.CostBasis.IsNegative() {
		a.CostBasis = decimal.Zero
	}
	if a.CostBasis.GreaterThan(a.Taxable) {
		a.CostBasis = a.Taxable
	}
}

// UnrealizedGainRatio is the share of the taxable bucket that is gain rather
// than basis, used to split a taxable draw into gain and return of capital.
func (a *AccountBalances) UnrealizedGainRatio() decimal.Decimal {
	if a.Taxable.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	gain := a.Taxable.Sub(a.CostBasis)
	if gain.IsNegative() {
		return decimal.Zero
	}
	return gain.Div(a.Taxable)
}

// YearlyState is one year's trajectory snapshot, with end-of-year balances
// both in total and per bucket.
type YearlyState struct {
	Age             int             `json:"age"`
	NominalBalance  decimal.Decimal `json:"nominalBalance"`
	RealBalance     decimal.Decimal `json:"realBalance"`
	InflationFactor decimal.Decimal `json:"inflationFactor"`

	Taxable decimal.Decimal `json:"taxable"`
	PreTax  decimal.Decimal `json:"preTax"`
	Roth    decimal.Decimal `json:"roth"`
}

// PathResult is the outcome of one simulated path.
type PathResult struct {
	Trajectory []YearlyState `json:"trajectory"`

	TerminalRealWealth     decimal.Decimal `json:"terminalRealWealth"`
	FirstYearNetWithdrawal decimal.Decimal `json:"firstYearNetWithdrawal"`

	// Lifetime aggregates across the drawdown phase, in nominal dollars.
	LifetimeTax     decimal.Decimal `json:"lifetimeTax"`
	TotalRMDs       decimal.Decimal `json:"totalRMDs"`
	TotalConverted  decimal.Decimal `json:"totalConverted"`
	ConversionYears int             `json:"conversionYears"`

	Ruined        bool `json:"ruined"`
	SurvivalYears int  `json:"survivalYears"`
}

// Summary reduces the path to what the guardrails estimator and ruin
// statistics need long-term.
func (p *PathResult) Summary() PathSummary {
	return PathSummary{Ruined: p.Ruined, SurvivalYears: p.SurvivalYears}
}

// PathSummary is the durable per-path record inside a BatchResult.
type PathSummary struct {
	Ruined        bool `json:"ruined"`
	SurvivalYears int  `json:"survivalYears"`
}

// YearBand is one year's trimmed percentile band across all paths.
type YearBand struct {
	Age        int             `json:"age"`
	RealP10    decimal.Decimal `json:"realP10"`
	RealP50    decimal.Decimal `json:"realP50"`
	RealP90    decimal.Decimal `json:"realP90"`
	NominalP10 decimal.Decimal `json:"nominalP10"`
	NominalP50 decimal.Decimal `json:"nominalP50"`
	NominalP90 decimal.Decimal `json:"nominalP90"`
}

// Quartiles is a trimmed 25/50/75 summary of a terminal distribution.
type Quartiles struct {
	P25 decimal.Decimal `json:"p25"`
	P50 decimal.Decimal `json:"p50"`
	P75 decimal.Decimal `json:"p75"`
}

// BatchResult aggregates N paths. It is derived once from the completed set
// of PathResults and never mutated afterwards.
type BatchResult struct {
	Bands []YearBand `json:"bands"`

	TerminalWealth      Quartiles `json:"terminalWealth"`
	FirstYearWithdrawal Quartiles `json:"firstYearWithdrawal"`

	// RuinProbability is the untrimmed fraction of paths flagged ruined.
	RuinProbability decimal.Decimal `json:"ruinProbability"`

	PathCount int           `json:"pathCount"`
	Paths     []PathSummary `json:"paths"`

	// YearsToRetirement locates the drawdown phase inside each path's
	// survival count.
	YearsToRetirement int `json:"yearsToRetirement"`
}

// SuccessRate is 1 − ruin probability.
func (b *BatchResult) SuccessRate() decimal.Decimal {
	return decimal.NewFromInt(1).Sub(b.RuinProbability)
}

// OptimizationResult carries the three goal-seeking scalars.
type OptimizationResult struct {
	SurplusAnnual         decimal.Decimal `json:"surplusAnnual"`
	SurplusMonthly        decimal.Decimal `json:"surplusMonthly"`
	MaxSplurge            decimal.Decimal `json:"maxSplurge"`
	EarliestRetirementAge int             `json:"earliestRetirementAge"`
	YearsEarlier          int             `json:"yearsEarlier"`
	Converged             bool            `json:"converged"`
}

// GuardrailsResult reports the heuristic success-rate uplift from a dynamic
// spending-reduction policy.
type GuardrailsResult struct {
	BaselineSuccessRate decimal.Decimal `json:"baselineSuccessRate"`
	AdjustedSuccessRate decimal.Decimal `json:"adjustedSuccessRate"`
	RecoveredPaths      decimal.Decimal `json:"recoveredPaths"`
	SpendingReduction   decimal.Decimal `json:"spendingReduction"`
	FailedPaths         int             `json:"failedPaths"`
}

// RothPlanResult compares the no-conversion baseline against a
// bracket-filling conversion strategy.
type RothPlanResult struct {
	HasRecommendation bool   `json:"hasRecommendation"`
	Reason            string `json:"reason,omitempty"`

	BaselineLifetimeTax      decimal.Decimal `json:"baselineLifetimeTax"`
	OptimizedLifetimeTax     decimal.Decimal `json:"optimizedLifetimeTax"`
	LifetimeTaxSavings       decimal.Decimal `json:"lifetimeTaxSavings"`
	TotalConverted           decimal.Decimal `json:"totalConverted"`
	RMDReduction             decimal.Decimal `json:"rmdReduction"`
	EffectiveRateImprovement decimal.Decimal `json:"effectiveRateImprovement"`
	ConversionYears          int             `json:"conversionYears"`
}

// LegacyParams configures the multi-generation perpetuity simulation.
type LegacyParams struct {
	FundBalance        decimal.Decimal `yaml:"fund_balance" json:"fundBalance"`
	RealReturn         decimal.Decimal `yaml:"real_return" json:"realReturn"`
	AnnualSupport      decimal.Decimal `yaml:"annual_support" json:"annualSupport"`
	HeirsPerGeneration int             `yaml:"heirs_per_generation" json:"heirsPerGeneration"`
	GenerationYears    int             `yaml:"generation_years" json:"generationYears"`
	MaxGenerations     int             `yaml:"max_generations" json:"maxGenerations"`
}

// LegacyResult reports how long the dynasty fund sustains its draws.
type LegacyResult struct {
	YearsSustained       int             `json:"yearsSustained"`
	GenerationsSupported int             `json:"generationsSupported"`
	Depleted             bool            `json:"depleted"`
	Perpetual            bool            `json:"perpetual"`
	FinalBalance         decimal.Decimal `json:"finalBalance"`
}
