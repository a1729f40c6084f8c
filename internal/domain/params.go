package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FilingStatus selects the tax tables applied to the household.
type FilingStatus string

const (
	Single       FilingStatus = "single"
	MarriedJoint FilingStatus = "married"
)

// ReturnMode selects how the annual growth-factor sequence is produced.
type ReturnMode string

const (
	// ReturnFixed repeats 1+nominalReturn every year.
	ReturnFixed ReturnMode = "fixed"
	// ReturnBootstrap resamples the historical series with a seeded generator.
	ReturnBootstrap ReturnMode = "bootstrap"
	// ReturnHistorical plays the historical series sequentially from a start
	// year, wrapping when the horizon outruns the data.
	ReturnHistorical ReturnMode = "historical"
)

// Spouse describes one earner in the household.
type Spouse struct {
	CurrentAge int `yaml:"current_age" json:"currentAge"`

	// AnnualIncome is the benefit-basis income used to estimate the Social
	// Security primary insurance amount.
	AnnualIncome decimal.Decimal `yaml:"annual_income" json:"annualIncome"`

	// Annual contribution line items while working, split by destination.
	ContributionTaxable decimal.Decimal `yaml:"contribution_taxable" json:"contributionTaxable"`
	ContributionPreTax  decimal.Decimal `yaml:"contribution_pretax" json:"contributionPreTax"`
	ContributionRoth    decimal.Decimal `yaml:"contribution_roth" json:"contributionRoth"`
	EmployerMatch       decimal.Decimal `yaml:"employer_match" json:"employerMatch"`

	SSClaimAge int `yaml:"ss_claim_age" json:"ssClaimAge"`
}

// Healthcare carries the drawdown-phase medical cost assumptions.
type Healthcare struct {
	MedicarePremiumMonthly decimal.Decimal `yaml:"medicare_premium_monthly" json:"medicarePremiumMonthly"`
	MedicalInflation       decimal.Decimal `yaml:"medical_inflation" json:"medicalInflation"`

	// Long-term care: probability-weighted annual cost applied across the
	// configured age window.
	LTCProbability decimal.Decimal `yaml:"ltc_probability" json:"ltcProbability"`
	LTCAnnualCost  decimal.Decimal `yaml:"ltc_annual_cost" json:"ltcAnnualCost"`
	LTCStartAge    int             `yaml:"ltc_start_age" json:"ltcStartAge"`
	LTCEndAge      int             `yaml:"ltc_end_age" json:"ltcEndAge"`
}

// RothConversionPolicy enables in-simulation strategic conversions that fill
// ordinary-income headroom up to the target bracket rate.
type RothConversionPolicy struct {
	Enabled           bool            `yaml:"enabled" json:"enabled"`
	TargetBracketRate decimal.Decimal `yaml:"target_bracket_rate" json:"targetBracketRate"`
}

// SimulationParams is the immutable configuration for one request. It is
// constructed once per host command and never mutated by the engine; path
// workers copy what they need.
type SimulationParams struct {
	Filing  FilingStatus `yaml:"filing" json:"filing"`
	Spouses []Spouse     `yaml:"spouses" json:"spouses"`

	RetirementAge  int `yaml:"retirement_age" json:"retirementAge"`
	LifeExpectancy int `yaml:"life_expectancy" json:"lifeExpectancy"`

	TaxableBalance   decimal.Decimal `yaml:"taxable_balance" json:"taxableBalance"`
	TaxableCostBasis decimal.Decimal `yaml:"taxable_cost_basis" json:"taxableCostBasis"`
	PreTaxBalance    decimal.Decimal `yaml:"pretax_balance" json:"preTaxBalance"`
	RothBalance      decimal.Decimal `yaml:"roth_balance" json:"rothBalance"`

	// Rates are decimal fractions (0.06 = 6%).
	NominalReturn     decimal.Decimal `yaml:"nominal_return" json:"nominalReturn"`
	Inflation         decimal.Decimal `yaml:"inflation" json:"inflation"`
	DividendYield     decimal.Decimal `yaml:"dividend_yield" json:"dividendYield"`
	StateTaxRate      decimal.Decimal `yaml:"state_tax_rate" json:"stateTaxRate"`
	WithdrawalRate    decimal.Decimal `yaml:"withdrawal_rate" json:"withdrawalRate"`
	IncomeGrowthRate  decimal.Decimal `yaml:"income_growth_rate" json:"incomeGrowthRate"`
	GrowContributions bool            `yaml:"grow_contributions" json:"growContributions"`

	ReturnMode          ReturnMode `yaml:"return_mode" json:"returnMode"`
	Seed                int64      `yaml:"seed" json:"seed"`
	HistoricalStartYear int        `yaml:"historical_start_year" json:"historicalStartYear"`
	// RealReturns converts each sampled nominal percentage to a real growth
	// factor before use.
	RealReturns bool `yaml:"real_returns" json:"realReturns"`

	Healthcare     Healthcare           `yaml:"healthcare" json:"healthcare"`
	RothConversion RothConversionPolicy `yaml:"roth_conversion" json:"rothConversion"`
}

// DefaultLifeExpectancy is the terminal modeling age when none is supplied.
const DefaultLifeExpectancy = 95

// ApplyDefaults fills optional fields a host may omit. Validate never
// mutates the receiver; hosts normalize params before validating them.
func (p *SimulationParams) ApplyDefaults() {
	if p.LifeExpectancy == 0 {
		p.LifeExpectancy = DefaultLifeExpectancy
	}
}

// YoungerAge returns the younger spouse's current age; phase transitions and
// the horizon key off it.
func (p *SimulationParams) YoungerAge() int {
	age := 0
	for i, s := range p.Spouses {
		if i == 0 || s.CurrentAge < age {
			age = s.CurrentAge
		}
	}
	return age
}

// Horizon is the number of simulated years, current age through life
// expectancy inclusive of the final year.
func (p *SimulationParams) Horizon() int {
	return p.LifeExpectancy - p.YoungerAge()
}

// TotalAnnualContributions sums every contribution line item across spouses.
func (p *SimulationParams) TotalAnnualContributions() decimal.Decimal {
	total := decimal.Zero
	for _, s := range p.Spouses {
		total = total.Add(s.ContributionTaxable).
			Add(s.ContributionPreTax).
			Add(s.ContributionRoth).
			Add(s.EmployerMatch)
	}
	return total
}

// Married reports whether the household files jointly.
func (p *SimulationParams) Married() bool { return p.Filing == MarriedJoint }

// Validate rejects fatally inconsistent input. A violation here fails the
// whole request; it is never clamped into range.
func (p *SimulationParams) Validate() error {
	switch p.Filing {
	case Single:
		if len(p.Spouses) != 1 {
			return fmt.Errorf("single filing requires exactly one spouse, got %d", len(p.Spouses))
		}
	case MarriedJoint:
		if len(p.Spouses) != 2 {
			return fmt.Errorf("married filing requires exactly two spouses, got %d", len(p.Spouses))
		}
	default:
		return fmt.Errorf("unknown filing status %q", p.Filing)
	}
	for i, s := range p.Spouses {
		if s.CurrentAge <= 0 || s.CurrentAge >= 110 {
			return fmt.Errorf("spouse %d current age %d is out of range", i, s.CurrentAge)
		}
		if s.AnnualIncome.IsNegative() {
			return fmt.Errorf("spouse %d annual income cannot be negative", i)
		}
	}
	if p.RetirementAge <= p.YoungerAge() {
		return fmt.Errorf("retirement age %d must exceed current age %d", p.RetirementAge, p.YoungerAge())
	}
	if p.LifeExpectancy <= p.RetirementAge {
		return fmt.Errorf("life expectancy %d must exceed retirement age %d", p.LifeExpectancy, p.RetirementAge)
	}
	for name, bal := range map[string]decimal.Decimal{
		"taxable":    p.TaxableBalance,
		"pre-tax":    p.PreTaxBalance,
		"roth":       p.RothBalance,
		"cost basis": p.TaxableCostBasis,
	} {
		if bal.IsNegative() {
			return fmt.Errorf("%s balance cannot be negative", name)
		}
	}
	if p.TaxableCostBasis.GreaterThan(p.TaxableBalance) {
		return fmt.Errorf("taxable cost basis cannot exceed the taxable balance")
	}
	if p.WithdrawalRate.IsNegative() || p.WithdrawalRate.GreaterThan(decimal.NewFromFloat(0.25)) {
		return fmt.Errorf("withdrawal rate must be between 0 and 25%%")
	}
	if p.Inflation.LessThan(decimal.NewFromFloat(-0.10)) || p.Inflation.GreaterThan(decimal.NewFromFloat(0.20)) {
		return fmt.Errorf("inflation must be between -10%% and 20%%")
	}
	switch p.ReturnMode {
	case ReturnFixed, ReturnBootstrap, ReturnHistorical, "":
	default:
		return fmt.Errorf("unknown return mode %q", p.ReturnMode)
	}
	if p.RothConversion.Enabled && p.RothConversion.TargetBracketRate.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("roth conversion target bracket rate must be positive when enabled")
	}
	return nil
}
