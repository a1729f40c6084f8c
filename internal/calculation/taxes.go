package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/finsim/retirement-engine/internal/config"
	"github.com/finsim/retirement-engine/internal/domain"
)

// TaxCalculator computes federal ordinary, capital-gains, and net investment
// income taxes for a household under a single year's policy tables. Brackets
// are not inflation-indexed across projection years; state tax is a flat rate
// supplied per simulation, not part of the policy.
type TaxCalculator struct {
	policy *config.Policy
}

// NewTaxCalculator creates a calculator over the built-in current-year policy.
func NewTaxCalculator() *TaxCalculator {
	return &TaxCalculator{policy: config.DefaultPolicy()}
}

// NewTaxCalculatorWithPolicy creates a calculator over a loaded policy file.
func NewTaxCalculatorWithPolicy(policy *config.Policy) *TaxCalculator {
	return &TaxCalculator{policy: policy}
}

// Policy exposes the underlying policy tables.
func (tc *TaxCalculator) Policy() *config.Policy {
	return tc.policy
}

// OrdinaryTax computes federal tax on ordinary income after the standard
// deduction, walking the progressive brackets.
func (tc *TaxCalculator) OrdinaryTax(grossIncome decimal.Decimal, status domain.FilingStatus) decimal.Decimal {
	filing := tc.policy.Filing(status == domain.MarriedJoint)
	taxable := grossIncome.Sub(filing.StandardDeduction)
	if taxable.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return bracketTax(taxable, filing.OrdinaryBrackets)
}

// MarginalOrdinaryTax computes the additional ordinary tax caused by stacking
// extra income on top of a base. Withdrawal taxes are charged this way: the
// base (Social Security and other ordinary income) fills the lower brackets
// first.
func (tc *TaxCalculator) MarginalOrdinaryTax(base, extra decimal.Decimal, status domain.FilingStatus) decimal.Decimal {
	if extra.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	withExtra := tc.OrdinaryTax(base.Add(extra), status)
	baseOnly := tc.OrdinaryTax(base, status)
	return withExtra.Sub(baseOnly)
}

// CapitalGainsTax computes federal tax on long-term gains stacked on top of
// ordinary taxable income. Gains fill the preferential brackets starting at
// the taxpayer's ordinary taxable income, so a retiree with low ordinary
// income can realize gains at the zero rate.
func (tc *TaxCalculator) CapitalGainsTax(ordinaryTaxableIncome, gains decimal.Decimal, status domain.FilingStatus) decimal.Decimal {
	if gains.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	filing := tc.policy.Filing(status == domain.MarriedJoint)

	stackBase := ordinaryTaxableIncome
	if stackBase.LessThan(decimal.Zero) {
		stackBase = decimal.Zero
	}

	tax := decimal.Zero
	remaining := gains
	for _, bracket := range filing.CapitalGainsBrackets {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		top := bracket.Max
		if bracket.Unbounded() {
			top = stackBase.Add(remaining)
		}
		// Room left in this bracket above everything already stacked.
		floor := decimal.Max(bracket.Min, stackBase)
		room := top.Sub(floor)
		if room.LessThanOrEqual(decimal.Zero) {
			continue
		}
		taxed := decimal.Min(remaining, room)
		tax = tax.Add(taxed.Mul(bracket.Rate))
		stackBase = stackBase.Add(taxed)
		remaining = remaining.Sub(taxed)
	}
	return tax
}

// NetInvestmentIncomeTax computes the 3.8% surtax on investment income to the
// extent modified AGI exceeds the filing threshold.
func (tc *TaxCalculator) NetInvestmentIncomeTax(investmentIncome, magi decimal.Decimal, status domain.FilingStatus) decimal.Decimal {
	if investmentIncome.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	filing := tc.policy.Filing(status == domain.MarriedJoint)
	excess := magi.Sub(filing.NIITThreshold)
	if excess.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	base := decimal.Min(investmentIncome, excess)
	return base.Mul(tc.policy.NIITRate)
}

// StateTax computes a flat state income tax on the given income.
func (tc *TaxCalculator) StateTax(income, rate decimal.Decimal) decimal.Decimal {
	if income.LessThanOrEqual(decimal.Zero) || rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return income.Mul(rate)
}

// EffectiveRate returns total tax divided by gross income, zero when income
// is zero.
func EffectiveRate(totalTax, grossIncome decimal.Decimal) decimal.Decimal {
	if grossIncome.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return totalTax.Div(grossIncome)
}

// bracketTax walks progressive brackets over an already-reduced taxable
// amount.
func bracketTax(taxable decimal.Decimal, brackets []config.Bracket) decimal.Decimal {
	tax := decimal.Zero
	for _, bracket := range brackets {
		if taxable.LessThanOrEqual(bracket.Min) {
			break
		}
		top := bracket.Max
		if bracket.Unbounded() || taxable.LessThan(top) {
			top = taxable
		}
		tax = tax.Add(top.Sub(bracket.Min).Mul(bracket.Rate))
	}
	return tax
}
