package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/finsim/retirement-engine/internal/config"
	"github.com/finsim/retirement-engine/internal/domain"
)

// Share of Social Security benefits treated as ordinary taxable income.
var taxableSSShare = decimal.NewFromFloat(0.85)

var half = decimal.NewFromFloat(0.5)

// PathSimulator runs one household path year by year: an accumulation phase
// of contributions and growth, then a drawdown phase of withdrawals, taxes,
// required minimum distributions, Social Security and healthcare costs. All
// flows are annual; contributions earn half a year of growth.
type PathSimulator struct {
	params *domain.SimulationParams
	policy *config.Policy
	hist   *config.HistoricalReturns

	tax        *TaxCalculator
	rmd        *RMDCalculator
	ss         *SocialSecurityCalculator
	healthcare *HealthcareCalculator

	logger Logger
}

// NewPathSimulator wires a simulator for the given parameters over the
// built-in policy and historical series.
func NewPathSimulator(params *domain.SimulationParams) *PathSimulator {
	return NewPathSimulatorWithConfig(params, config.DefaultPolicy(), config.DefaultHistoricalReturns(), nil)
}

// NewPathSimulatorWithConfig wires a simulator with explicit policy tables
// and historical data. A nil logger disables logging.
func NewPathSimulatorWithConfig(params *domain.SimulationParams, policy *config.Policy, hist *config.HistoricalReturns, logger Logger) *PathSimulator {
	if logger == nil {
		logger = &NopLogger{}
	}
	return &PathSimulator{
		params:     params,
		policy:     policy,
		hist:       hist,
		tax:        NewTaxCalculatorWithPolicy(policy),
		rmd:        NewRMDCalculatorWithPolicy(policy),
		ss:         NewSocialSecurityCalculatorWithPolicy(policy),
		healthcare: NewHealthcareCalculatorWithPolicy(policy),
		logger:     logger,
	}
}

// Run simulates one path using the given seed for return generation.
func (ps *PathSimulator) Run(seed int64) (*domain.PathResult, error) {
	p := ps.params
	horizon := p.Horizon()
	if horizon <= 0 {
		return nil, fmt.Errorf("life expectancy %d does not exceed current age %d", p.LifeExpectancy, p.YoungerAge())
	}

	series, err := GenerateReturnSeries(p, ps.hist, seed, horizon)
	if err != nil {
		return nil, err
	}

	balances := domain.AccountBalances{
		Taxable:   p.TaxableBalance,
		PreTax:    p.PreTaxBalance,
		Roth:      p.RothBalance,
		CostBasis: p.TaxableCostBasis,
	}

	result := &domain.PathResult{
		Trajectory: make([]domain.YearlyState, 0, horizon),
	}

	inflFactor := one
	inflFactorAtRetirement := decimal.Zero
	baseSpend := decimal.Zero
	younger := p.YoungerAge()
	ruined := false

	for i := 0; i < horizon; i++ {
		age := younger + i + 1
		factor := series.Factors[i]
		inflFactor = inflFactor.Mul(one.Add(p.Inflation))

		if ruined {
			result.Trajectory = append(result.Trajectory, domain.YearlyState{
				Age:             age,
				NominalBalance:  decimal.Zero,
				RealBalance:     decimal.Zero,
				InflationFactor: inflFactor,
			})
			continue
		}

		if age <= p.RetirementAge {
			balances = ps.accumulationYear(balances, factor, i)
		} else {
			// Growth for the year happens before the withdrawal.
			balances = ps.growYear(balances, factor, age)
			if inflFactorAtRetirement.IsZero() {
				inflFactorAtRetirement = inflFactor
				baseSpend = balances.Total().Mul(p.WithdrawalRate)
			}
			balances, ruined = ps.drawdownYear(balances, age, inflFactor, inflFactorAtRetirement, baseSpend, result)
		}

		nominal := balances.Total()
		if ruined {
			nominal = decimal.Zero
			result.Ruined = true
			result.SurvivalYears = i
			ps.logger.Debugf("path ruined at age %d after %d years", age, i)
		}
		result.Trajectory = append(result.Trajectory, domain.YearlyState{
			Age:             age,
			NominalBalance:  nominal,
			RealBalance:     nominal.Div(inflFactor),
			InflationFactor: inflFactor,
			Taxable:         balances.Taxable,
			PreTax:          balances.PreTax,
			Roth:            balances.Roth,
		})
	}

	if !result.Ruined {
		result.SurvivalYears = horizon
		final := result.Trajectory[len(result.Trajectory)-1]
		result.TerminalRealWealth = final.RealBalance
	}
	return result, nil
}

// accumulationYear grows balances and adds the year's contributions with a
// half-year growth convention. Taxable dividends are taxed annually and
// reinvested, raising the cost basis.
func (ps *PathSimulator) accumulationYear(b domain.AccountBalances, factor decimal.Decimal, yearIndex int) domain.AccountBalances {
	p := ps.params

	contribGrowth := one
	if p.GrowContributions && yearIndex > 0 {
		contribGrowth = one.Add(p.IncomeGrowthRate).Pow(decimal.NewFromInt(int64(yearIndex)))
	}
	halfYear := one.Add(factor.Sub(one).Mul(half))

	var contribTaxable, contribPreTax, contribRoth decimal.Decimal
	for _, s := range p.Spouses {
		contribTaxable = contribTaxable.Add(s.ContributionTaxable.Mul(contribGrowth))
		contribPreTax = contribPreTax.Add(s.ContributionPreTax.Add(s.EmployerMatch).Mul(contribGrowth))
		contribRoth = contribRoth.Add(s.ContributionRoth.Mul(contribGrowth))
	}

	b.Taxable = b.Taxable.Mul(factor).Add(contribTaxable.Mul(halfYear))
	b.PreTax = b.PreTax.Mul(factor).Add(contribPreTax.Mul(halfYear))
	b.Roth = b.Roth.Mul(factor).Add(contribRoth.Mul(halfYear))
	b.CostBasis = b.CostBasis.Add(contribTaxable)

	// Annual dividend tax drag on the taxable account. Dividends stack on
	// earned income in the preferential brackets; the after-tax amount stays
	// invested and raises basis.
	if p.DividendYield.GreaterThan(decimal.Zero) && b.Taxable.GreaterThan(decimal.Zero) {
		dividends := b.Taxable.Mul(p.DividendYield)
		earned := ps.householdIncome(yearIndex)
		divTax := ps.tax.CapitalGainsTax(ps.ordinaryTaxable(earned), dividends, p.Filing)
		b.Taxable = b.Taxable.Sub(divTax)
		b.CostBasis = b.CostBasis.Add(dividends.Sub(divTax))
	}

	b.ClampNonNegative()
	return b
}

// growYear applies market growth and the dividend tax drag for a drawdown
// year, before any withdrawal.
func (ps *PathSimulator) growYear(b domain.AccountBalances, factor decimal.Decimal, age int) domain.AccountBalances {
	p := ps.params

	b.Taxable = b.Taxable.Mul(factor)
	b.PreTax = b.PreTax.Mul(factor)
	b.Roth = b.Roth.Mul(factor)

	if p.DividendYield.GreaterThan(decimal.Zero) && b.Taxable.GreaterThan(decimal.Zero) {
		dividends := b.Taxable.Mul(p.DividendYield)
		divTax := ps.tax.CapitalGainsTax(decimal.Zero, dividends, p.Filing)
		b.Taxable = b.Taxable.Sub(divTax)
		b.CostBasis = b.CostBasis.Add(dividends.Sub(divTax))
	}

	b.ClampNonNegative()
	return b
}

// drawdownYear executes one retirement year: spending need net of Social
// Security, healthcare costs, the RMD floor, cascading withdrawals, the tax
// bill with a single gross-up pass, and optional Roth conversions. It
// reports the adjusted balances and whether the path ran out of money.
func (ps *PathSimulator) drawdownYear(b domain.AccountBalances, age int, inflFactor, inflAtRetirement, baseSpend decimal.Decimal, result *domain.PathResult) (domain.AccountBalances, bool) {
	p := ps.params
	firstDrawdown := age == p.RetirementAge+1
	yearsRetired := age - p.RetirementAge - 1

	spendGrowth := inflFactor.Div(inflAtRetirement)
	spend := baseSpend.Mul(spendGrowth)

	ssIncome := ps.socialSecurityIncome(age, inflFactor)
	rmdAmount := ps.rmd.Required(ps.olderAge(age), b.PreTax)

	enrollees := ps.medicareEnrollees(age)
	magiEstimate := ssIncome.Add(rmdAmount)
	medical := ps.healthcare.AnnualCost(p.Healthcare, age, yearsRetired, enrollees, magiEstimate, p.Married())

	need := spend.Add(medical).Sub(ssIncome)
	if need.LessThan(decimal.Zero) {
		need = decimal.Zero
	}

	gainRatio := b.UnrealizedGainRatio()
	ssOrdinary := ssIncome.Mul(taxableSSShare)

	// First pass: composition and taxes on the pre-tax-of-need withdrawal.
	gross := decimal.Max(need, rmdAmount)
	fromPreTax, fromTaxable, fromRoth, shortfall := ps.allocate(b, gross, rmdAmount)
	taxes := ps.withdrawalTaxes(ssOrdinary, fromPreTax, fromTaxable, gainRatio)

	// Gross up once so the spending need survives the tax bill.
	gross = decimal.Max(need.Add(taxes), rmdAmount)
	fromPreTax, fromTaxable, fromRoth, shortfall = ps.allocate(b, gross, rmdAmount)
	taxes = ps.withdrawalTaxes(ssOrdinary, fromPreTax, fromTaxable, gainRatio)

	if shortfall.GreaterThan(decimal.Zero) {
		return domain.AccountBalances{}, true
	}

	b.PreTax = b.PreTax.Sub(fromPreTax)
	if fromTaxable.GreaterThan(decimal.Zero) {
		b.CostBasis = b.CostBasis.Sub(fromTaxable.Mul(one.Sub(gainRatio)))
		b.Taxable = b.Taxable.Sub(fromTaxable)
	}
	b.Roth = b.Roth.Sub(fromRoth)

	// An RMD larger than the grossed-up need leaves after-tax cash; it is
	// reinvested in the taxable account at full basis.
	excess := gross.Sub(taxes).Sub(need)
	if excess.GreaterThan(decimal.Zero) {
		b.Taxable = b.Taxable.Add(excess)
		b.CostBasis = b.CostBasis.Add(excess)
	}

	if firstDrawdown {
		result.FirstYearNetWithdrawal = gross.Sub(taxes).Div(inflFactor)
	}

	if p.RothConversion.Enabled && age < ps.policy.RMDStartAge {
		var converted, convTax decimal.Decimal
		b, converted, convTax = ps.convertToRoth(b, ssOrdinary.Add(fromPreTax))
		if converted.GreaterThan(decimal.Zero) {
			result.TotalConverted = result.TotalConverted.Add(converted)
			result.ConversionYears++
			taxes = taxes.Add(convTax)
		}
	}

	result.LifetimeTax = result.LifetimeTax.Add(taxes)
	result.TotalRMDs = result.TotalRMDs.Add(decimal.Min(rmdAmount, fromPreTax))

	b.ClampNonNegative()
	if b.Total().LessThanOrEqual(decimal.Zero) && ps.params.LifeExpectancy > age {
		return b, true
	}
	return b, false
}

// allocate splits a gross withdrawal across buckets. The RMD is reserved
// from pre-tax first; the remainder is drawn pro-rata against what each
// bucket holds, with any overflow cascading taxable, then pre-tax, then
// Roth. The returned shortfall is whatever the portfolio could not cover.
func (ps *PathSimulator) allocate(b domain.AccountBalances, gross, rmdAmount decimal.Decimal) (fromPreTax, fromTaxable, fromRoth, shortfall decimal.Decimal) {
	fromPreTax = decimal.Min(rmdAmount, b.PreTax)
	remaining := gross.Sub(fromPreTax)
	if remaining.LessThanOrEqual(decimal.Zero) {
		return fromPreTax, decimal.Zero, decimal.Zero, decimal.Zero
	}

	preTaxAvail := b.PreTax.Sub(fromPreTax)
	total := b.Taxable.Add(preTaxAvail).Add(b.Roth)
	if total.LessThanOrEqual(remaining) {
		return fromPreTax.Add(preTaxAvail), b.Taxable, b.Roth, remaining.Sub(total)
	}

	// Pro-rata shares; the Roth piece takes the remainder so the three sum
	// exactly to the draw.
	fromTaxable = remaining.Mul(b.Taxable).Div(total)
	morePreTax := remaining.Mul(preTaxAvail).Div(total)
	fromRoth = remaining.Sub(fromTaxable).Sub(morePreTax)

	// Division rounding can push a share past its bucket; overflow cascades.
	if fromTaxable.GreaterThan(b.Taxable) {
		morePreTax = morePreTax.Add(fromTaxable.Sub(b.Taxable))
		fromTaxable = b.Taxable
	}
	if morePreTax.GreaterThan(preTaxAvail) {
		fromRoth = fromRoth.Add(morePreTax.Sub(preTaxAvail))
		morePreTax = preTaxAvail
	}
	if fromRoth.GreaterThan(b.Roth) {
		over := fromRoth.Sub(b.Roth)
		fromRoth = b.Roth
		backToTaxable := decimal.Min(over, b.Taxable.Sub(fromTaxable))
		fromTaxable = fromTaxable.Add(backToTaxable)
		morePreTax = morePreTax.Add(over.Sub(backToTaxable))
	}
	return fromPreTax.Add(morePreTax), fromTaxable, fromRoth, decimal.Zero
}

// withdrawalTaxes totals federal ordinary, capital gains, NIIT and state tax
// for one year's withdrawal composition. Ordinary tax is charged marginally:
// the Social Security base fills the lower brackets, and only the tax the
// pre-tax draw adds on top of it is attributed to the withdrawal.
func (ps *PathSimulator) withdrawalTaxes(ssOrdinary, fromPreTax, fromTaxable, gainRatio decimal.Decimal) decimal.Decimal {
	p := ps.params

	ordinaryIncome := ssOrdinary.Add(fromPreTax)
	fedOrdinary := ps.tax.MarginalOrdinaryTax(ssOrdinary, fromPreTax, p.Filing)

	gains := fromTaxable.Mul(gainRatio)
	fedGains := ps.tax.CapitalGainsTax(ps.ordinaryTaxable(ordinaryIncome), gains, p.Filing)

	magi := ordinaryIncome.Add(gains)
	niit := ps.tax.NetInvestmentIncomeTax(gains, magi, p.Filing)

	state := ps.tax.StateTax(ordinaryIncome.Sub(ssOrdinary).Add(gains), p.StateTaxRate)

	return fedOrdinary.Add(fedGains).Add(niit).Add(state)
}

// convertToRoth fills the remaining headroom below the configured target
// bracket with a pre-tax to Roth conversion, paying the conversion tax from
// the taxable account. It reports the amount converted and the tax paid.
func (ps *PathSimulator) convertToRoth(b domain.AccountBalances, ordinaryIncome decimal.Decimal) (domain.AccountBalances, decimal.Decimal, decimal.Decimal) {
	p := ps.params
	top := ps.bracketTop(p.RothConversion.TargetBracketRate)
	if top.IsZero() {
		return b, decimal.Zero, decimal.Zero
	}
	filing := ps.policy.Filing(p.Married())
	headroom := top.Add(filing.StandardDeduction).Sub(ordinaryIncome)
	if headroom.LessThanOrEqual(decimal.Zero) {
		return b, decimal.Zero, decimal.Zero
	}

	amount := decimal.Min(headroom, b.PreTax)
	if amount.LessThanOrEqual(decimal.Zero) {
		return b, decimal.Zero, decimal.Zero
	}

	convTax := ps.tax.MarginalOrdinaryTax(ordinaryIncome, amount, p.Filing)
	if convTax.GreaterThan(b.Taxable) {
		// Cannot pay the conversion tax from outside funds; skip this year.
		return b, decimal.Zero, decimal.Zero
	}

	b.PreTax = b.PreTax.Sub(amount)
	b.Roth = b.Roth.Add(amount)
	gainRatio := b.UnrealizedGainRatio()
	b.CostBasis = b.CostBasis.Sub(convTax.Mul(one.Sub(gainRatio)))
	b.Taxable = b.Taxable.Sub(convTax)
	b.ClampNonNegative()
	return b, amount, convTax
}

// bracketTop returns the upper edge of the ordinary bracket with the given
// rate, zero when no bounded bracket matches.
func (ps *PathSimulator) bracketTop(rate decimal.Decimal) decimal.Decimal {
	filing := ps.policy.Filing(ps.params.Married())
	for _, bracket := range filing.OrdinaryBrackets {
		if bracket.Rate.Equal(rate) && !bracket.Unbounded() {
			return bracket.Max
		}
	}
	return decimal.Zero
}

// socialSecurityIncome sums household benefits in payment this year, with
// cost-of-living adjustments applied through cumulative inflation.
func (ps *PathSimulator) socialSecurityIncome(youngerAgeNow int, inflFactor decimal.Decimal) decimal.Decimal {
	p := ps.params
	younger := p.YoungerAge()
	total := decimal.Zero
	for _, s := range p.Spouses {
		spouseAge := s.CurrentAge + (youngerAgeNow - younger)
		claim := s.SSClaimAge
		if claim == 0 {
			claim = ps.policy.SocialSecurity.FullRetirementAge
		}
		if spouseAge >= claim {
			total = total.Add(ps.ss.AnnualBenefit(s.AnnualIncome, claim))
		}
	}
	if total.IsZero() {
		return total
	}
	return total.Mul(inflFactor)
}

// medicareEnrollees counts spouses aged 65 or over this year.
func (ps *PathSimulator) medicareEnrollees(youngerAgeNow int) int {
	p := ps.params
	younger := p.YoungerAge()
	n := 0
	for _, s := range p.Spouses {
		if s.CurrentAge+(youngerAgeNow-younger) >= 65 {
			n++
		}
	}
	return n
}

// olderAge returns the older spouse's age in the year the younger spouse is
// youngerAgeNow. RMDs key off the older owner.
func (ps *PathSimulator) olderAge(youngerAgeNow int) int {
	p := ps.params
	younger := p.YoungerAge()
	oldest := youngerAgeNow
	for _, s := range p.Spouses {
		if a := s.CurrentAge + (youngerAgeNow - younger); a > oldest {
			oldest = a
		}
	}
	return oldest
}

// householdIncome returns total earned income in accumulation year yearIndex,
// grown at the income growth rate.
func (ps *PathSimulator) householdIncome(yearIndex int) decimal.Decimal {
	p := ps.params
	total := decimal.Zero
	for _, s := range p.Spouses {
		total = total.Add(s.AnnualIncome)
	}
	if yearIndex > 0 && p.IncomeGrowthRate.GreaterThan(decimal.Zero) {
		total = total.Mul(one.Add(p.IncomeGrowthRate).Pow(decimal.NewFromInt(int64(yearIndex))))
	}
	return total
}

// ordinaryTaxable reduces gross ordinary income by the standard deduction,
// floored at zero, for stacking capital gains.
func (ps *PathSimulator) ordinaryTaxable(grossOrdinary decimal.Decimal) decimal.Decimal {
	filing := ps.policy.Filing(ps.params.Married())
	taxable := grossOrdinary.Sub(filing.StandardDeduction)
	if taxable.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return taxable
}
