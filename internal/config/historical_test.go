package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHistoricalReturnsIntegrity(t *testing.T) {
	hist := DefaultHistoricalReturns()
	require.NoError(t, hist.Validate())

	assert.Equal(t, 1928, hist.StartYear)
	assert.Equal(t, 2024, hist.EndYear)
	assert.Len(t, hist.Returns, 97)
}

func TestHistoricalValidateLengthMismatch(t *testing.T) {
	hist := DefaultHistoricalReturns()
	hist.Returns = hist.Returns[:96]

	err := hist.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "96 entries")
}

func TestHistoricalValidateEmpty(t *testing.T) {
	hist := &HistoricalReturns{Name: "empty", StartYear: 2000, EndYear: 2010}
	assert.Error(t, hist.Validate())
}

func TestHistoricalValidateBadRange(t *testing.T) {
	hist := &HistoricalReturns{
		Name:      "backwards",
		StartYear: 2020,
		EndYear:   2010,
		Returns:   []decimal.Decimal{decimal.NewFromInt(1)},
	}
	assert.Error(t, hist.Validate())
}

func TestIndexOfYear(t *testing.T) {
	hist := DefaultHistoricalReturns()

	assert.Equal(t, 0, hist.IndexOfYear(1928))
	assert.Equal(t, 96, hist.IndexOfYear(2024))
	// Years outside the range wrap into it.
	assert.Equal(t, 0, hist.IndexOfYear(2025))
	assert.Equal(t, 96, hist.IndexOfYear(1927))
}
