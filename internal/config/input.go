package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/finsim/retirement-engine/internal/domain"
)

// InputParser handles parsing of simulation input files.
type InputParser struct{}

// NewInputParser creates a new input parser.
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadParams loads simulation parameters from a YAML file and validates
// them.
func (ip *InputParser) LoadParams(filename string) (*domain.SimulationParams, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var params domain.SimulationParams
	if err := yaml.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	params.ApplyDefaults()
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("parameter validation failed: %w", err)
	}
	return &params, nil
}

// LoadLegacyParams loads dynasty-fund parameters from a YAML file.
func (ip *InputParser) LoadLegacyParams(filename string) (*domain.LegacyParams, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var params domain.LegacyParams
	if err := yaml.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &params, nil
}
