package calculation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsim/retirement-engine/internal/config"
	"github.com/finsim/retirement-engine/internal/domain"
)

func baseReturnParams() *domain.SimulationParams {
	return &domain.SimulationParams{
		NominalReturn: decimal.NewFromFloat(0.06),
		Inflation:     decimal.NewFromFloat(0.03),
	}
}

func TestFixedReturnSeries(t *testing.T) {
	params := baseReturnParams()
	params.ReturnMode = domain.ReturnFixed

	series, err := GenerateReturnSeries(params, nil, 1, 10)
	require.NoError(t, err)
	require.Len(t, series.Factors, 10)

	expected := decimal.NewFromFloat(1.06)
	for i, f := range series.Factors {
		assert.True(t, f.Equal(expected), "factor %d: expected %s, got %s", i, expected, f)
	}
}

func TestFixedRealReturnSeries(t *testing.T) {
	params := baseReturnParams()
	params.ReturnMode = domain.ReturnFixed
	params.RealReturns = true

	series, err := GenerateReturnSeries(params, nil, 1, 5)
	require.NoError(t, err)

	expected := decimal.NewFromFloat(1.06).Div(decimal.NewFromFloat(1.03))
	for _, f := range series.Factors {
		assert.True(t, f.Equal(expected))
	}
}

func TestBootstrapDeterminism(t *testing.T) {
	params := baseReturnParams()
	params.ReturnMode = domain.ReturnBootstrap
	hist := config.DefaultHistoricalReturns()

	a, err := GenerateReturnSeries(params, hist, 42, 30)
	require.NoError(t, err)
	b, err := GenerateReturnSeries(params, hist, 42, 30)
	require.NoError(t, err)

	for i := range a.Factors {
		assert.True(t, a.Factors[i].Equal(b.Factors[i]),
			"same seed must produce identical sequences (index %d)", i)
	}
}

func TestBootstrapSeedSensitivity(t *testing.T) {
	params := baseReturnParams()
	params.ReturnMode = domain.ReturnBootstrap
	hist := config.DefaultHistoricalReturns()

	a, err := GenerateReturnSeries(params, hist, 1, 30)
	require.NoError(t, err)
	b, err := GenerateReturnSeries(params, hist, 2, 30)
	require.NoError(t, err)

	same := true
	for i := range a.Factors {
		if !a.Factors[i].Equal(b.Factors[i]) {
			same = false
			break
		}
	}
	assert.False(t, same, "different seeds should produce different sequences")
}

func TestBootstrapRequiresSeries(t *testing.T) {
	params := baseReturnParams()
	params.ReturnMode = domain.ReturnBootstrap

	_, err := GenerateReturnSeries(params, nil, 1, 10)
	assert.Error(t, err)

	empty := &config.HistoricalReturns{Name: "empty"}
	_, err = GenerateReturnSeries(params, empty, 1, 10)
	assert.Error(t, err)
}

func TestHistoricalSequentialWithWrap(t *testing.T) {
	params := baseReturnParams()
	params.ReturnMode = domain.ReturnHistorical
	params.HistoricalStartYear = 2023
	hist := config.DefaultHistoricalReturns()

	series, err := GenerateReturnSeries(params, hist, 1, 4)
	require.NoError(t, err)

	// 2023, 2024, then wrap to 1928, 1929.
	idx2023 := hist.IndexOfYear(2023)
	expect := []decimal.Decimal{
		hist.Returns[idx2023],
		hist.Returns[idx2023+1],
		hist.Returns[0],
		hist.Returns[1],
	}
	for i, pct := range expect {
		want := decimal.NewFromInt(1).Add(pct.Div(decimal.NewFromInt(100)))
		assert.True(t, series.Factors[i].Equal(want),
			"year %d: expected %s, got %s", i, want, series.Factors[i])
	}
}

func TestHistoricalRealVariant(t *testing.T) {
	params := baseReturnParams()
	params.ReturnMode = domain.ReturnHistorical
	params.HistoricalStartYear = 1928
	params.RealReturns = true
	hist := config.DefaultHistoricalReturns()

	series, err := GenerateReturnSeries(params, hist, 1, 1)
	require.NoError(t, err)

	nominal := decimal.NewFromInt(1).Add(hist.Returns[0].Div(decimal.NewFromInt(100)))
	expected := nominal.Div(decimal.NewFromFloat(1.03))
	assert.True(t, series.Factors[0].Equal(expected))
}

func TestInvalidHorizonAndMode(t *testing.T) {
	params := baseReturnParams()

	_, err := GenerateReturnSeries(params, nil, 1, 0)
	assert.Error(t, err)

	params.ReturnMode = "garbage"
	_, err = GenerateReturnSeries(params, nil, 1, 5)
	assert.Error(t, err)
}
