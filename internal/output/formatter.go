package output

import (
	"strings"

	"github.com/finsim/retirement-engine/internal/domain"
)

// Report bundles whichever results a command produced; formatters render the
// populated sections and skip the rest.
type Report struct {
	Batch        *domain.BatchResult        `json:"batch,omitempty"`
	Optimization *domain.OptimizationResult `json:"optimization,omitempty"`
	Guardrails   *domain.GuardrailsResult   `json:"guardrails,omitempty"`
	Roth         *domain.RothPlanResult     `json:"roth,omitempty"`
	Legacy       *domain.LegacyResult       `json:"legacy,omitempty"`
}

// Formatter defines a pluggable output formatter that returns a byte slice.
// Implementations should be pure (no side effects besides deterministic
// formatting).
type Formatter interface {
	Format(report *Report) ([]byte, error)
	// Name returns a short identifier for logging / debugging.
	Name() string
}

// builtInFormatters stores available formatters.
var builtInFormatters = []Formatter{
	ConsoleFormatter{},
	JSONFormatter{},
	CSVFormatter{},
}

// GetFormatterByName fetches a registered formatter, nil when unknown.
func GetFormatterByName(name string) Formatter {
	n := NormalizeFormatName(name)
	for _, f := range builtInFormatters {
		if f.Name() == n {
			return f
		}
	}
	return nil
}

// aliasMap provides user-friendly synonyms for format names.
var aliasMap = map[string]string{
	"text":        "console",
	"json-pretty": "json",
}

// NormalizeFormatName lowers and resolves aliases.
func NormalizeFormatName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if mapped, ok := aliasMap[n]; ok {
		return mapped
	}
	return n
}
