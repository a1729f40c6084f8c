package output

import (
	"bytes"
	"fmt"
)

// ConsoleFormatter provides a concise console style summary via the
// formatter interface.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(report *Report) ([]byte, error) {
	var buf bytes.Buffer

	if b := report.Batch; b != nil {
		fmt.Fprintln(&buf, "SIMULATION SUMMARY")
		fmt.Fprintln(&buf, "================================")
		fmt.Fprintf(&buf, "Paths: %d  Success: %s  Ruin: %s\n",
			b.PathCount,
			FormatPercentage(b.SuccessRate().Mul(hundred)),
			FormatPercentage(b.RuinProbability.Mul(hundred)))
		fmt.Fprintf(&buf, "Terminal wealth (real): P25=%s P50=%s P75=%s\n",
			FormatCurrency(b.TerminalWealth.P25),
			FormatCurrency(b.TerminalWealth.P50),
			FormatCurrency(b.TerminalWealth.P75))
		fmt.Fprintf(&buf, "First-year net withdrawal: P25=%s P50=%s P75=%s\n",
			FormatCurrency(b.FirstYearWithdrawal.P25),
			FormatCurrency(b.FirstYearWithdrawal.P50),
			FormatCurrency(b.FirstYearWithdrawal.P75))
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "Age   Real P10       Real P50       Real P90")
		for _, band := range b.Bands {
			fmt.Fprintf(&buf, "%-5d %-14s %-14s %-14s\n",
				band.Age,
				FormatCurrency(band.RealP10),
				FormatCurrency(band.RealP50),
				FormatCurrency(band.RealP90))
		}
	}

	if o := report.Optimization; o != nil {
		fmt.Fprintln(&buf, "OPTIMIZATION")
		fmt.Fprintln(&buf, "================================")
		fmt.Fprintf(&buf, "Annual surplus: %s (monthly %s)\n",
			FormatCurrency(o.SurplusAnnual), FormatCurrency(o.SurplusMonthly))
		fmt.Fprintf(&buf, "Max one-time splurge: %s\n", FormatCurrency(o.MaxSplurge))
		fmt.Fprintf(&buf, "Earliest retirement age: %d (%d years earlier)\n",
			o.EarliestRetirementAge, o.YearsEarlier)
		if !o.Converged {
			fmt.Fprintln(&buf, "Plan does not meet the success criterion as configured.")
		}
	}

	if g := report.Guardrails; g != nil {
		fmt.Fprintln(&buf, "GUARDRAILS ESTIMATE")
		fmt.Fprintln(&buf, "================================")
		fmt.Fprintf(&buf, "Success %s -> %s with a %s spending cut (%d failed paths, %s recovered)\n",
			FormatPercentage(g.BaselineSuccessRate.Mul(hundred)),
			FormatPercentage(g.AdjustedSuccessRate.Mul(hundred)),
			FormatPercentage(g.SpendingReduction.Mul(hundred)),
			g.FailedPaths,
			g.RecoveredPaths.StringFixed(1))
	}

	if r := report.Roth; r != nil {
		fmt.Fprintln(&buf, "ROTH CONVERSION PLAN")
		fmt.Fprintln(&buf, "================================")
		if !r.HasRecommendation {
			fmt.Fprintf(&buf, "No recommendation: %s\n", r.Reason)
		} else {
			fmt.Fprintf(&buf, "Lifetime tax: %s -> %s (saves %s)\n",
				FormatCurrency(r.BaselineLifetimeTax),
				FormatCurrency(r.OptimizedLifetimeTax),
				FormatCurrency(r.LifetimeTaxSavings))
			fmt.Fprintf(&buf, "Convert %s over %d years; RMDs fall by %s\n",
				FormatCurrency(r.TotalConverted), r.ConversionYears, FormatCurrency(r.RMDReduction))
		}
	}

	if l := report.Legacy; l != nil {
		fmt.Fprintln(&buf, "LEGACY FUND")
		fmt.Fprintln(&buf, "================================")
		if l.Perpetual {
			fmt.Fprintf(&buf, "Fund is perpetual after %d generations (balance %s)\n",
				l.GenerationsSupported, FormatCurrency(l.FinalBalance))
		} else if l.Depleted {
			fmt.Fprintf(&buf, "Fund depletes after %d years (%d full generations)\n",
				l.YearsSustained, l.GenerationsSupported)
		} else {
			fmt.Fprintf(&buf, "Fund sustains %d years and %d generations (balance %s)\n",
				l.YearsSustained, l.GenerationsSupported, FormatCurrency(l.FinalBalance))
		}
	}

	return buf.Bytes(), nil
}
