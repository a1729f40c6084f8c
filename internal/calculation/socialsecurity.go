package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/finsim/retirement-engine/internal/config"
)

// SocialSecurityCalculator estimates benefits from career earnings using the
// policy's bend-point formula and applies early/delayed claiming adjustments.
type SocialSecurityCalculator struct {
	policy *config.Policy
}

// NewSocialSecurityCalculator creates a calculator over the built-in
// current-year policy.
func NewSocialSecurityCalculator() *SocialSecurityCalculator {
	return &SocialSecurityCalculator{policy: config.DefaultPolicy()}
}

// NewSocialSecurityCalculatorWithPolicy creates a calculator over a loaded
// policy file.
func NewSocialSecurityCalculatorWithPolicy(policy *config.Policy) *SocialSecurityCalculator {
	return &SocialSecurityCalculator{policy: policy}
}

var twelve = decimal.NewFromInt(12)

// EstimateAIME approximates average indexed monthly earnings from current
// annual income. Earnings above the taxable wage base do not raise the
// benefit.
func (ssc *SocialSecurityCalculator) EstimateAIME(annualIncome decimal.Decimal) decimal.Decimal {
	ss := ssc.policy.SocialSecurity
	capped := decimal.Min(annualIncome, ss.TaxableWageBase)
	return capped.Div(twelve)
}

// PrimaryInsuranceAmount applies the progressive bend-point formula to AIME,
// yielding the monthly benefit at full retirement age.
func (ssc *SocialSecurityCalculator) PrimaryInsuranceAmount(aime decimal.Decimal) decimal.Decimal {
	if aime.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	ss := ssc.policy.SocialSecurity

	pia := decimal.Min(aime, ss.BendPoint1).Mul(ss.Rate1)
	if aime.GreaterThan(ss.BendPoint1) {
		band := decimal.Min(aime, ss.BendPoint2).Sub(ss.BendPoint1)
		pia = pia.Add(band.Mul(ss.Rate2))
	}
	if aime.GreaterThan(ss.BendPoint2) {
		pia = pia.Add(aime.Sub(ss.BendPoint2).Mul(ss.Rate3))
	}
	return pia
}

// ClaimingAdjustment returns the multiplier applied to the full-retirement
// benefit for a given claiming age. Early claims are reduced 5/9 of 1% per
// month for the first 36 months and 5/12 of 1% beyond; delayed claims earn
// 2/3 of 1% per month up to age 70. Ages outside the claimable window are
// clamped.
func (ssc *SocialSecurityCalculator) ClaimingAdjustment(claimAge int) decimal.Decimal {
	ss := ssc.policy.SocialSecurity
	if claimAge < ss.EarliestClaimAge {
		claimAge = ss.EarliestClaimAge
	}
	if claimAge > ss.LatestClaimAge {
		claimAge = ss.LatestClaimAge
	}

	fra := ss.FullRetirementAge
	if claimAge < fra {
		monthsEarly := (fra - claimAge) * 12
		var reduction decimal.Decimal
		if monthsEarly <= 36 {
			reduction = decimal.NewFromFloat(5.0 / 9.0 / 100.0).Mul(decimal.NewFromInt(int64(monthsEarly)))
		} else {
			first := decimal.NewFromFloat(5.0 / 9.0 / 100.0).Mul(decimal.NewFromInt(36))
			extra := decimal.NewFromFloat(5.0 / 12.0 / 100.0).Mul(decimal.NewFromInt(int64(monthsEarly - 36)))
			reduction = first.Add(extra)
		}
		return one.Sub(reduction)
	}

	if claimAge > fra {
		monthsDelayed := (claimAge - fra) * 12
		credit := decimal.NewFromFloat(2.0 / 3.0 / 100.0).Mul(decimal.NewFromInt(int64(monthsDelayed)))
		return one.Add(credit)
	}

	return one
}

// AnnualBenefit estimates the annual Social Security benefit for someone with
// the given current annual income claiming at claimAge.
func (ssc *SocialSecurityCalculator) AnnualBenefit(annualIncome decimal.Decimal, claimAge int) decimal.Decimal {
	aime := ssc.EstimateAIME(annualIncome)
	pia := ssc.PrimaryInsuranceAmount(aime)
	monthly := pia.Mul(ssc.ClaimingAdjustment(claimAge))
	return monthly.Mul(twelve)
}
