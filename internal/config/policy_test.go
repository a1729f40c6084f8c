package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicyValidates(t *testing.T) {
	policy := DefaultPolicy()
	require.NoError(t, policy.Validate())

	assert.Equal(t, 2025, policy.Year)
	assert.Equal(t, 73, policy.RMDStartAge)
	assert.Len(t, policy.Single.OrdinaryBrackets, 7)
	assert.Len(t, policy.MarriedJoint.OrdinaryBrackets, 7)
}

func TestBracketUnbounded(t *testing.T) {
	b := Bracket{Min: decimal.NewFromInt(626350)}
	assert.True(t, b.Unbounded())

	b.Max = decimal.NewFromInt(700000)
	assert.False(t, b.Unbounded())
}

func TestPolicyValidateRejectsGappedBrackets(t *testing.T) {
	policy := DefaultPolicy()
	policy.Single.OrdinaryBrackets[1].Min = decimal.NewFromInt(99999)

	err := policy.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must start where the previous one ends")
}

func TestPolicyValidateRejectsNonFinalUnbounded(t *testing.T) {
	policy := DefaultPolicy()
	policy.Single.OrdinaryBrackets[2].Max = decimal.Zero

	err := policy.Validate()
	assert.Error(t, err)
}

func TestPolicyValidateRejectsRisingDivisors(t *testing.T) {
	policy := DefaultPolicy()
	policy.RMDDivisors[5].Divisor = decimal.NewFromInt(100)

	err := policy.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-increasing")
}

func TestPolicyValidateRejectsBadClaimWindow(t *testing.T) {
	policy := DefaultPolicy()
	policy.SocialSecurity.EarliestClaimAge = 68

	err := policy.Validate()
	assert.Error(t, err)
}

func TestFilingSelection(t *testing.T) {
	policy := DefaultPolicy()

	assert.True(t, policy.Filing(true).StandardDeduction.Equal(decimal.NewFromInt(30000)))
	assert.True(t, policy.Filing(false).StandardDeduction.Equal(decimal.NewFromInt(15000)))
}

func TestLoadPolicyRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := `
year: 2030
niit_rate: 0.038
rmd_start_age: 75
rmd_fallback_divisor: 6.0
rmd_divisors:
  - age: 75
    divisor: 24.6
  - age: 76
    divisor: 23.7
single:
  standard_deduction: 16000
  niit_threshold: 200000
  irmaa_threshold: 110000
  ordinary_brackets:
    - {min: 0, max: 12000, rate: 0.10}
    - {min: 12000, max: 0, rate: 0.25}
  capital_gains_brackets:
    - {min: 0, max: 50000, rate: 0}
    - {min: 50000, max: 0, rate: 0.15}
married_joint:
  standard_deduction: 32000
  niit_threshold: 250000
  irmaa_threshold: 220000
  ordinary_brackets:
    - {min: 0, max: 24000, rate: 0.10}
    - {min: 24000, max: 0, rate: 0.25}
  capital_gains_brackets:
    - {min: 0, max: 100000, rate: 0}
    - {min: 100000, max: 0, rate: 0.15}
social_security:
  bend_point_1: 1300
  bend_point_2: 7800
  rate_1: 0.90
  rate_2: 0.32
  rate_3: 0.15
  full_retirement_age: 67
  earliest_claim_age: 62
  latest_claim_age: 70
  taxable_wage_base: 180000
medicare_base_premium_monthly: 200
irmaa_monthly_surcharge: 80
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	policy, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, 2030, policy.Year)
	assert.Equal(t, 75, policy.RMDStartAge)
	assert.True(t, policy.SocialSecurity.BendPoint1.Equal(decimal.NewFromInt(1300)))
}

func TestLoadPolicyInvalidFile(t *testing.T) {
	_, err := LoadPolicy("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestLoadPolicyRejectsInvalidTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("year: 2030\n"), 0644))

	_, err := LoadPolicy(path)
	assert.Error(t, err)
}
