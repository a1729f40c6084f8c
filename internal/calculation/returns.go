package calculation

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/finsim/retirement-engine/internal/config"
	"github.com/finsim/retirement-engine/internal/domain"
)

// ReturnSeries produces annual growth factors (1 + rate) for one path. The
// full horizon is materialized eagerly so that parallel paths never share
// generator state; reproducing a sequence means reconstructing it with the
// same parameters and seed.
type ReturnSeries struct {
	Factors []decimal.Decimal
}

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// GenerateReturnSeries builds the growth-factor sequence for a path.
//
// fixed:      every factor is 1 + nominalReturn.
// bootstrap:  each factor is drawn from the historical series at a uniform
//             random index chosen by a generator seeded with seed; the same
//             seed always yields the same sequence.
// historical: the series is read sequentially from HistoricalStartYear,
//             wrapping past the end of the data.
//
// When params.RealReturns is set, each sampled nominal percentage is
// converted to a real growth factor, (1+nominal)/(1+inflation).
func GenerateReturnSeries(params *domain.SimulationParams, hist *config.HistoricalReturns, seed int64, horizon int) (*ReturnSeries, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("return series horizon must be positive, got %d", horizon)
	}

	factors := make([]decimal.Decimal, horizon)
	mode := params.ReturnMode
	if mode == "" {
		mode = domain.ReturnFixed
	}

	switch mode {
	case domain.ReturnFixed:
		factor := one.Add(params.NominalReturn)
		if params.RealReturns {
			deflator := one.Add(params.Inflation)
			if deflator.GreaterThan(decimal.Zero) {
				factor = factor.Div(deflator)
			}
		}
		for i := range factors {
			factors[i] = factor
		}

	case domain.ReturnBootstrap:
		if hist == nil || len(hist.Returns) == 0 {
			return nil, fmt.Errorf("bootstrap return generation requires a non-empty historical series")
		}
		rng := rand.New(rand.NewSource(seed))
		for i := range factors {
			idx := rng.Intn(len(hist.Returns))
			factors[i] = growthFactor(hist.Returns[idx], params)
		}

	case domain.ReturnHistorical:
		if hist == nil || len(hist.Returns) == 0 {
			return nil, fmt.Errorf("historical return generation requires a non-empty historical series")
		}
		start := hist.IndexOfYear(params.HistoricalStartYear)
		for i := range factors {
			idx := (start + i) % len(hist.Returns)
			factors[i] = growthFactor(hist.Returns[idx], params)
		}

	default:
		return nil, fmt.Errorf("unknown return mode %q", mode)
	}

	return &ReturnSeries{Factors: factors}, nil
}

// growthFactor converts a historical percentage entry to an annual growth
// factor, deflating it when real returns were requested.
func growthFactor(pctReturn decimal.Decimal, params *domain.SimulationParams) decimal.Decimal {
	nominal := one.Add(pctReturn.Div(hundred))
	if !params.RealReturns {
		return nominal
	}
	deflator := one.Add(params.Inflation)
	if deflator.LessThanOrEqual(decimal.Zero) {
		return nominal
	}
	return nominal.Div(deflator)
}
