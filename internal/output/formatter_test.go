package output

import (
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsim/retirement-engine/internal/domain"
)

func sampleReport() *Report {
	return &Report{
		Batch: &domain.BatchResult{
			PathCount:       100,
			RuinProbability: decimal.NewFromFloat(0.05),
			TerminalWealth: domain.Quartiles{
				P25: decimal.NewFromInt(800000),
				P50: decimal.NewFromInt(1200000),
				P75: decimal.NewFromInt(1900000),
			},
			FirstYearWithdrawal: domain.Quartiles{
				P25: decimal.NewFromInt(52000),
				P50: decimal.NewFromInt(54000),
				P75: decimal.NewFromInt(57000),
			},
			Bands: []domain.YearBand{
				{
					Age:     66,
					RealP10: decimal.NewFromInt(900000),
					RealP50: decimal.NewFromInt(1100000),
					RealP90: decimal.NewFromInt(1400000),
				},
			},
		},
	}
}

func TestNormalizeFormatName(t *testing.T) {
	cases := map[string]string{
		"console":       "console",
		"Console":       "console",
		"  JSON  ":      "json",
		"text":          "console",
		"json-pretty":   "json",
		"spreadsheetml": "spreadsheetml",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeFormatName(in), in)
	}
}

func TestGetFormatterByName(t *testing.T) {
	require.NotNil(t, GetFormatterByName("console"))
	require.NotNil(t, GetFormatterByName("text"))
	require.NotNil(t, GetFormatterByName("json"))
	require.NotNil(t, GetFormatterByName("csv"))
	assert.Equal(t, "json", GetFormatterByName("json-pretty").Name())
	assert.Nil(t, GetFormatterByName("xml"))
}

func TestConsoleFormatterBatch(t *testing.T) {
	out, err := ConsoleFormatter{}.Format(sampleReport())
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "SIMULATION SUMMARY")
	assert.Contains(t, text, "Paths: 100")
	assert.Contains(t, text, "Success: 95.00%")
	assert.Contains(t, text, "Ruin: 5.00%")
	assert.Contains(t, text, "$1200000.00")
	assert.Contains(t, text, "66")
}

func TestConsoleFormatterSkipsEmptySections(t *testing.T) {
	out, err := ConsoleFormatter{}.Format(&Report{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestConsoleFormatterLegacyVariants(t *testing.T) {
	perpetual := &Report{Legacy: &domain.LegacyResult{
		Perpetual:            true,
		GenerationsSupported: 3,
		FinalBalance:         decimal.NewFromInt(5000000),
	}}
	out, err := ConsoleFormatter{}.Format(perpetual)
	require.NoError(t, err)
	assert.Contains(t, string(out), "perpetual after 3 generations")

	depleted := &Report{Legacy: &domain.LegacyResult{
		Depleted:             true,
		YearsSustained:       42,
		GenerationsSupported: 1,
	}}
	out, err = ConsoleFormatter{}.Format(depleted)
	require.NoError(t, err)
	assert.Contains(t, string(out), "depletes after 42 years")
}

func TestConsoleFormatterRothNoRecommendation(t *testing.T) {
	report := &Report{Roth: &domain.RothPlanResult{
		HasRecommendation: false,
		Reason:            "no pre-tax balance to convert",
	}}
	out, err := ConsoleFormatter{}.Format(report)
	require.NoError(t, err)
	assert.Contains(t, string(out), "No recommendation: no pre-tax balance to convert")
}

func TestJSONFormatterRoundTrip(t *testing.T) {
	out, err := JSONFormatter{}.Format(sampleReport())
	require.NoError(t, err)

	// Indented output with omitted empty sections.
	assert.True(t, strings.Contains(string(out), "\n  "))
	assert.NotContains(t, string(out), `"legacy"`)

	var decoded Report
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.NotNil(t, decoded.Batch)
	assert.Equal(t, 100, decoded.Batch.PathCount)
	assert.True(t, decoded.Batch.TerminalWealth.P50.Equal(decimal.NewFromInt(1200000)))
}

func TestCSVFormatterBands(t *testing.T) {
	out, err := CSVFormatter{}.Format(sampleReport())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Age,RealP10,RealP50,RealP90,NominalP10,NominalP50,NominalP90", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "66,900000.00,1100000.00,1400000.00"))
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "$1234.50", FormatCurrency(decimal.NewFromFloat(1234.5)))
	assert.Equal(t, "$0.00", FormatCurrency(decimal.Zero))
	assert.Equal(t, "12.34%", FormatPercentage(decimal.NewFromFloat(12.34)))
}
