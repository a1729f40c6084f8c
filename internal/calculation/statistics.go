package calculation

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// TrimExtremeValues sorts a copy of values and removes fraction of the
// sample from each tail (ratio 0.025 drops 2.5% per side). It fails rather
// than degrade when the trim would consume the whole sample.
func TrimExtremeValues(values []decimal.Decimal, ratio float64) ([]decimal.Decimal, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("cannot trim an empty sample")
	}
	if ratio < 0 || ratio >= 0.5 {
		return nil, fmt.Errorf("trim ratio %v must be in [0, 0.5)", ratio)
	}

	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	tail := int(float64(len(sorted)) * ratio)
	if 2*tail >= len(sorted) {
		return nil, fmt.Errorf("trimming %d from each tail would exhaust a sample of %d", tail, len(sorted))
	}
	return sorted[tail : len(sorted)-tail], nil
}

// Percentile computes the p-th percentile (0-100) of sorted values by linear
// interpolation between adjacent ranks.
func Percentile(sorted []decimal.Decimal, p float64) decimal.Decimal {
	if len(sorted) == 0 {
		return decimal.Zero
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	// The rank fraction is built in decimal so percentiles of exact inputs
	// stay exact.
	rank := decimal.NewFromFloat(p).Mul(decimal.NewFromInt(int64(len(sorted) - 1))).Div(hundred)
	lower := int(rank.IntPart())
	frac := rank.Sub(rank.Floor())
	if frac.IsZero() {
		return sorted[lower]
	}
	delta := sorted[lower+1].Sub(sorted[lower])
	return sorted[lower].Add(delta.Mul(frac))
}

// SortedCopy returns an ascending copy of values.
func SortedCopy(values []decimal.Decimal) []decimal.Decimal {
	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })
	return sorted
}

// Mean returns the arithmetic mean of values, zero for an empty slice.
func Mean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sum := lo.Reduce(values, func(acc decimal.Decimal, v decimal.Decimal, _ int) decimal.Decimal {
		return acc.Add(v)
	}, decimal.Zero)
	return sum.Div(decimal.NewFromInt(int64(len(values))))
}
