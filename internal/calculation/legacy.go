package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/finsim/retirement-engine/internal/domain"
)

// legacyHorizonYears caps the dynasty projection; a fund still solvent after
// this long is reported as perpetual.
const legacyHorizonYears = 300

// SimulateLegacy projects a family support fund forward in real terms:
// every generation draws annual support for each heir over its span, the
// remainder compounds at the real return. The projection answers how many
// generations the fund can carry, or whether the draws never outrun growth.
func SimulateLegacy(params *domain.LegacyParams) (*domain.LegacyResult, error) {
	if params.FundBalance.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("legacy fund balance must be positive")
	}
	if params.AnnualSupport.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("annual support must be positive")
	}
	if params.HeirsPerGeneration <= 0 || params.GenerationYears <= 0 {
		return nil, fmt.Errorf("heirs per generation and generation length must be positive")
	}

	maxGenerations := params.MaxGenerations
	if maxGenerations <= 0 {
		maxGenerations = legacyHorizonYears / params.GenerationYears
	}

	balance := params.FundBalance
	growth := one.Add(params.RealReturn)
	result := &domain.LegacyResult{}

	heirs := decimal.NewFromInt(int64(params.HeirsPerGeneration))
	annualDraw := params.AnnualSupport.Mul(heirs)

	for gen := 0; gen < maxGenerations; gen++ {
		// Heir count compounds: each heir raises the same number of heirs.
		if gen > 0 {
			annualDraw = annualDraw.Mul(heirs)
		}

		for year := 0; year < params.GenerationYears; year++ {
			balance = balance.Mul(growth).Sub(annualDraw)
			if balance.LessThanOrEqual(decimal.Zero) {
				result.Depleted = true
				result.FinalBalance = decimal.Zero
				return result, nil
			}
			result.YearsSustained++
		}
		result.GenerationsSupported++

		// Growth outpacing the draw means the fund never depletes.
		if balance.Mul(params.RealReturn).GreaterThanOrEqual(annualDraw.Mul(heirs)) {
			result.Perpetual = true
			break
		}
	}

	result.FinalBalance = balance
	return result, nil
}
