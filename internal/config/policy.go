package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Policy bundles every jurisdiction table the engine consumes: progressive
// bracket schedules, deductions, RMD divisors, Social Security bend points,
// NIIT parameters and IRMAA tiers. The engine never hard-codes these; a
// point-in-time default set is compiled in and a YAML file can override it.
type Policy struct {
	Year int `yaml:"year"`

	Single       FilingPolicy `yaml:"single"`
	MarriedJoint FilingPolicy `yaml:"married_joint"`

	NIITRate decimal.Decimal `yaml:"niit_rate"`

	RMDStartAge        int             `yaml:"rmd_start_age"`
	RMDDivisors        []RMDDivisor    `yaml:"rmd_divisors"`
	RMDFallbackDivisor decimal.Decimal `yaml:"rmd_fallback_divisor"`

	SocialSecurity SocialSecurityPolicy `yaml:"social_security"`

	MedicareBasePremiumMonthly decimal.Decimal `yaml:"medicare_base_premium_monthly"`
	IRMAAMonthlySurcharge      decimal.Decimal `yaml:"irmaa_monthly_surcharge"`
}

// FilingPolicy holds the per-filing-status tables.
type FilingPolicy struct {
	StandardDeduction    decimal.Decimal `yaml:"standard_deduction"`
	OrdinaryBrackets     []Bracket       `yaml:"ordinary_brackets"`
	CapitalGainsBrackets []Bracket       `yaml:"capital_gains_brackets"`
	NIITThreshold        decimal.Decimal `yaml:"niit_threshold"`
	IRMAAThreshold       decimal.Decimal `yaml:"irmaa_threshold"`
}

// Bracket is one progressive bracket. A zero Max marks the unbounded top
// bracket.
type Bracket struct {
	Min  decimal.Decimal `yaml:"min"`
	Max  decimal.Decimal `yaml:"max"`
	Rate decimal.Decimal `yaml:"rate"`
}

// Unbounded reports whether the bracket has no upper edge.
func (b Bracket) Unbounded() bool { return b.Max.IsZero() }

// RMDDivisor is one row of the uniform lifetime table.
type RMDDivisor struct {
	Age     int             `yaml:"age"`
	Divisor decimal.Decimal `yaml:"divisor"`
}

// SocialSecurityPolicy holds the PIA bend points (monthly amounts) and the
// marginal replacement rates, plus the claiming-age window.
type SocialSecurityPolicy struct {
	BendPoint1        decimal.Decimal `yaml:"bend_point_1"`
	BendPoint2        decimal.Decimal `yaml:"bend_point_2"`
	Rate1             decimal.Decimal `yaml:"rate_1"`
	Rate2             decimal.Decimal `yaml:"rate_2"`
	Rate3             decimal.Decimal `yaml:"rate_3"`
	FullRetirementAge int             `yaml:"full_retirement_age"`
	EarliestClaimAge  int             `yaml:"earliest_claim_age"`
	LatestClaimAge    int             `yaml:"latest_claim_age"`
	TaxableWageBase   decimal.Decimal `yaml:"taxable_wage_base"`
}

// LoadPolicy reads a Policy from a YAML file and validates it.
func LoadPolicy(filename string) (*Policy, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file %s: %w", filename, err)
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse policy YAML: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("policy validation failed: %w", err)
	}
	return &p, nil
}

// Validate checks internal consistency of the tables. A malformed table is a
// fatal configuration error, never silently patched.
func (p *Policy) Validate() error {
	if p.Year == 0 {
		return fmt.Errorf("policy year is required")
	}
	for name, fp := range map[string]FilingPolicy{"single": p.Single, "married_joint": p.MarriedJoint} {
		if err := fp.validate(); err != nil {
			return fmt.Errorf("%s tables invalid: %w", name, err)
		}
	}
	if p.NIITRate.IsNegative() {
		return fmt.Errorf("NIIT rate cannot be negative")
	}
	if p.RMDStartAge <= 0 {
		return fmt.Errorf("RMD start age is required")
	}
	if len(p.RMDDivisors) == 0 {
		return fmt.Errorf("RMD divisor table is empty")
	}
	prev := decimal.NewFromInt(1000)
	prevAge := 0
	for _, row := range p.RMDDivisors {
		if row.Age <= prevAge {
			return fmt.Errorf("RMD divisor table ages must be strictly increasing (age %d)", row.Age)
		}
		if row.Divisor.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("RMD divisor for age %d must be positive", row.Age)
		}
		if row.Divisor.GreaterThan(prev) {
			return fmt.Errorf("RMD divisors must be non-increasing with age (age %d)", row.Age)
		}
		prev = row.Divisor
		prevAge = row.Age
	}
	if p.RMDFallbackDivisor.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("RMD fallback divisor must be positive")
	}
	ss := p.SocialSecurity
	if ss.BendPoint1.LessThanOrEqual(decimal.Zero) || ss.BendPoint2.LessThanOrEqual(ss.BendPoint1) {
		return fmt.Errorf("social security bend points must satisfy 0 < bp1 < bp2")
	}
	if ss.EarliestClaimAge >= ss.FullRetirementAge || ss.FullRetirementAge >= ss.LatestClaimAge {
		return fmt.Errorf("social security claiming ages must satisfy earliest < FRA < latest")
	}
	if ss.TaxableWageBase.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("social security taxable wage base must be positive")
	}
	return nil
}

func (fp FilingPolicy) validate() error {
	if fp.StandardDeduction.IsNegative() {
		return fmt.Errorf("standard deduction cannot be negative")
	}
	if err := validateBrackets(fp.OrdinaryBrackets); err != nil {
		return fmt.Errorf("ordinary brackets: %w", err)
	}
	if err := validateBrackets(fp.CapitalGainsBrackets); err != nil {
		return fmt.Errorf("capital gains brackets: %w", err)
	}
	return nil
}

func validateBrackets(brackets []Bracket) error {
	if len(brackets) == 0 {
		return fmt.Errorf("no brackets supplied")
	}
	prevMax := decimal.Zero
	for i, b := range brackets {
		if !b.Min.Equal(prevMax) {
			return fmt.Errorf("bracket %d must start where the previous one ends", i)
		}
		if b.Unbounded() {
			if i != len(brackets)-1 {
				return fmt.Errorf("only the top bracket may be unbounded")
			}
			return nil
		}
		if b.Max.LessThanOrEqual(b.Min) {
			return fmt.Errorf("bracket %d has non-positive width", i)
		}
		prevMax = b.Max
	}
	return nil
}

// DefaultPolicy returns the compiled-in 2025 tables.
func DefaultPolicy() *Policy {
	return &Policy{
		Year: 2025,
		Single: FilingPolicy{
			StandardDeduction: decimal.NewFromInt(15000),
			OrdinaryBrackets: []Bracket{
				{decimal.Zero, decimal.NewFromInt(11925), decimal.NewFromFloat(0.10)},
				{decimal.NewFromInt(11925), decimal.NewFromInt(48475), decimal.NewFromFloat(0.12)},
				{decimal.NewFromInt(48475), decimal.NewFromInt(103350), decimal.NewFromFloat(0.22)},
				{decimal.NewFromInt(103350), decimal.NewFromInt(197300), decimal.NewFromFloat(0.24)},
				{decimal.NewFromInt(197300), decimal.NewFromInt(250525), decimal.NewFromFloat(0.32)},
				{decimal.NewFromInt(250525), decimal.NewFromInt(626350), decimal.NewFromFloat(0.35)},
				{decimal.NewFromInt(626350), decimal.Zero, decimal.NewFromFloat(0.37)},
			},
			CapitalGainsBrackets: []Bracket{
				{decimal.Zero, decimal.NewFromInt(48350), decimal.Zero},
				{decimal.NewFromInt(48350), decimal.NewFromInt(533400), decimal.NewFromFloat(0.15)},
				{decimal.NewFromInt(533400), decimal.Zero, decimal.NewFromFloat(0.20)},
			},
			NIITThreshold:  decimal.NewFromInt(200000),
			IRMAAThreshold: decimal.NewFromInt(106000),
		},
		MarriedJoint: FilingPolicy{
			StandardDeduction: decimal.NewFromInt(30000),
			OrdinaryBrackets: []Bracket{
				{decimal.Zero, decimal.NewFromInt(23850), decimal.NewFromFloat(0.10)},
				{decimal.NewFromInt(23850), decimal.NewFromInt(96950), decimal.NewFromFloat(0.12)},
				{decimal.NewFromInt(96950), decimal.NewFromInt(206700), decimal.NewFromFloat(0.22)},
				{decimal.NewFromInt(206700), decimal.NewFromInt(394600), decimal.NewFromFloat(0.24)},
				{decimal.NewFromInt(394600), decimal.NewFromInt(501050), decimal.NewFromFloat(0.32)},
				{decimal.NewFromInt(501050), decimal.NewFromInt(751600), decimal.NewFromFloat(0.35)},
				{decimal.NewFromInt(751600), decimal.Zero, decimal.NewFromFloat(0.37)},
			},
			CapitalGainsBrackets: []Bracket{
				{decimal.Zero, decimal.NewFromInt(96700), decimal.Zero},
				{decimal.NewFromInt(96700), decimal.NewFromInt(600050), decimal.NewFromFloat(0.15)},
				{decimal.NewFromInt(600050), decimal.Zero, decimal.NewFromFloat(0.20)},
			},
			NIITThreshold:  decimal.NewFromInt(250000),
			IRMAAThreshold: decimal.NewFromInt(212000),
		},
		NIITRate:    decimal.NewFromFloat(0.038),
		RMDStartAge: 73,
		RMDDivisors: []RMDDivisor{
			{73, decimal.NewFromFloat(26.5)},
			{74, decimal.NewFromFloat(25.5)},
			{75, decimal.NewFromFloat(24.6)},
			{76, decimal.NewFromFloat(23.7)},
			{77, decimal.NewFromFloat(22.9)},
			{78, decimal.NewFromFloat(22.0)},
			{79, decimal.NewFromFloat(21.1)},
			{80, decimal.NewFromFloat(20.2)},
			{81, decimal.NewFromFloat(19.4)},
			{82, decimal.NewFromFloat(18.5)},
			{83, decimal.NewFromFloat(17.7)},
			{84, decimal.NewFromFloat(16.8)},
			{85, decimal.NewFromFloat(16.0)},
			{86, decimal.NewFromFloat(15.2)},
			{87, decimal.NewFromFloat(14.4)},
			{88, decimal.NewFromFloat(13.7)},
			{89, decimal.NewFromFloat(12.9)},
			{90, decimal.NewFromFloat(12.2)},
			{91, decimal.NewFromFloat(11.5)},
			{92, decimal.NewFromFloat(10.8)},
			{93, decimal.NewFromFloat(10.1)},
			{94, decimal.NewFromFloat(9.5)},
			{95, decimal.NewFromFloat(8.9)},
			{96, decimal.NewFromFloat(8.4)},
			{97, decimal.NewFromFloat(7.8)},
			{98, decimal.NewFromFloat(7.3)},
			{99, decimal.NewFromFloat(6.8)},
			{100, decimal.NewFromFloat(6.4)},
		},
		RMDFallbackDivisor: decimal.NewFromFloat(6.4),
		SocialSecurity: SocialSecurityPolicy{
			BendPoint1:        decimal.NewFromInt(1226),
			BendPoint2:        decimal.NewFromInt(7391),
			Rate1:             decimal.NewFromFloat(0.90),
			Rate2:             decimal.NewFromFloat(0.32),
			Rate3:             decimal.NewFromFloat(0.15),
			FullRetirementAge: 67,
			EarliestClaimAge:  62,
			LatestClaimAge:    70,
			TaxableWageBase:   decimal.NewFromInt(176100),
		},
		MedicareBasePremiumMonthly: decimal.NewFromFloat(185.00),
		IRMAAMonthlySurcharge:      decimal.NewFromFloat(74.00),
	}
}

// Filing returns the tables for a filing status key ("single" or "married").
func (p *Policy) Filing(married bool) FilingPolicy {
	if married {
		return p.MarriedJoint
	}
	return p.Single
}
