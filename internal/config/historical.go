package config

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// HistoricalReturns is an annual equity total-return series in percent
// (6.0 means +6%). The declared year range is part of the dataset and is
// checked against the number of entries at load time; a mismatch means the
// data file was truncated or padded and is a fatal startup error.
type HistoricalReturns struct {
	Name      string            `yaml:"name"`
	StartYear int               `yaml:"start_year"`
	EndYear   int               `yaml:"end_year"`
	Returns   []decimal.Decimal `yaml:"returns"`
}

// Validate checks the series length against its declared range.
func (h *HistoricalReturns) Validate() error {
	if len(h.Returns) == 0 {
		return fmt.Errorf("historical return series %q is empty", h.Name)
	}
	expected := h.EndYear - h.StartYear + 1
	if expected <= 0 {
		return fmt.Errorf("historical return series %q declares an invalid year range %d-%d", h.Name, h.StartYear, h.EndYear)
	}
	if len(h.Returns) != expected {
		return fmt.Errorf("historical return series %q has %d entries, expected %d for %d-%d",
			h.Name, len(h.Returns), expected, h.StartYear, h.EndYear)
	}
	return nil
}

// IndexOfYear converts a calendar year into a series offset, wrapping into
// range so sequential playback can run past the end of the data.
func (h *HistoricalReturns) IndexOfYear(year int) int {
	n := len(h.Returns)
	idx := (year - h.StartYear) % n
	if idx < 0 {
		idx += n
	}
	return idx
}

func pct(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// DefaultHistoricalReturns returns the compiled-in S&P 500 total-return
// series, 1928 through 2024 (97 annual percentages, dividends reinvested).
func DefaultHistoricalReturns() *HistoricalReturns {
	return &HistoricalReturns{
		Name:      "sp500-total-return",
		StartYear: 1928,
		EndYear:   2024,
		Returns: []decimal.Decimal{
			pct(43.81), pct(-8.30), pct(-25.12), pct(-43.84), pct(-8.64),
			pct(49.98), pct(-1.19), pct(46.74), pct(31.94), pct(-35.34),
			pct(29.28), pct(-1.10), pct(-10.67), pct(-12.77), pct(19.17),
			pct(25.06), pct(19.03), pct(35.82), pct(-8.43), pct(5.20),
			pct(5.70), pct(18.30), pct(30.81), pct(23.68), pct(18.15),
			pct(-1.21), pct(52.56), pct(32.60), pct(7.44), pct(-10.46),
			pct(43.72), pct(12.06), pct(0.34), pct(26.64), pct(-8.81),
			pct(22.61), pct(16.42), pct(12.40), pct(-9.97), pct(23.80),
			pct(10.81), pct(-8.24), pct(3.56), pct(14.22), pct(18.76),
			pct(-14.31), pct(-25.90), pct(37.00), pct(23.83), pct(-6.98),
			pct(6.51), pct(18.52), pct(31.74), pct(-4.70), pct(20.42),
			pct(22.34), pct(6.15), pct(31.24), pct(18.49), pct(5.81),
			pct(16.54), pct(31.48), pct(-3.06), pct(30.23), pct(7.49),
			pct(9.97), pct(1.33), pct(37.20), pct(22.68), pct(33.10),
			pct(28.34), pct(20.89), pct(-9.03), pct(-11.85), pct(-21.97),
			pct(28.36), pct(10.74), pct(4.83), pct(15.61), pct(5.48),
			pct(-36.55), pct(25.94), pct(14.82), pct(2.10), pct(15.89),
			pct(32.15), pct(13.52), pct(1.38), pct(11.77), pct(21.61),
			pct(-4.23), pct(31.21), pct(18.02), pct(28.47), pct(-18.04),
			pct(26.06), pct(24.88),
		},
	}
}
