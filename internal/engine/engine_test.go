package engine

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsim/retirement-engine/internal/domain"
)

func testParams() *domain.SimulationParams {
	return &domain.SimulationParams{
		Filing: domain.Single,
		Spouses: []domain.Spouse{
			{CurrentAge: 60, AnnualIncome: decimal.NewFromInt(120000), SSClaimAge: 67},
		},
		RetirementAge:    65,
		LifeExpectancy:   80,
		TaxableBalance:   decimal.NewFromInt(500000),
		TaxableCostBasis: decimal.NewFromInt(400000),
		PreTaxBalance:    decimal.NewFromInt(500000),
		RothBalance:      decimal.NewFromInt(100000),
		NominalReturn:    decimal.NewFromFloat(0.06),
		Inflation:        decimal.NewFromFloat(0.03),
		WithdrawalRate:   decimal.NewFromFloat(0.04),
		ReturnMode:       domain.ReturnFixed,
		Seed:             12345,
	}
}

func collect(t *testing.T, e *Engine, cmd Command) []Message {
	t.Helper()
	var msgs []Message
	e.Handle(context.Background(), cmd, func(m Message) { msgs = append(msgs, m) })
	require.NotEmpty(t, msgs)
	return msgs
}

func terminal(msgs []Message) Message { return msgs[len(msgs)-1] }

func TestHandleRun(t *testing.T) {
	e := New()
	msgs := collect(t, e, Command{Kind: KindRun, Params: testParams(), Paths: 60})

	last := terminal(msgs)
	require.Equal(t, MsgComplete, last.Kind)
	require.NotNil(t, last.Batch)
	assert.Equal(t, 60, last.Batch.PathCount)

	for _, m := range msgs[:len(msgs)-1] {
		assert.Equal(t, MsgProgress, m.Kind)
		assert.Equal(t, 60, m.Total)
	}
}

func TestHandleRunSeedOverride(t *testing.T) {
	e := New()

	first := terminal(collect(t, e, Command{Kind: KindRun, Params: testParams(), BaseSeed: 777, Paths: 40}))
	second := terminal(collect(t, e, Command{Kind: KindRun, Params: testParams(), BaseSeed: 777, Paths: 40}))

	require.Equal(t, MsgComplete, first.Kind)
	require.Equal(t, MsgComplete, second.Kind)
	assert.True(t, first.Batch.RuinProbability.Equal(second.Batch.RuinProbability))
	assert.True(t, first.Batch.TerminalWealth.P50.Equal(second.Batch.TerminalWealth.P50))
}

func TestHandleLegacy(t *testing.T) {
	e := New()
	cmd := Command{Kind: KindLegacy, Legacy: &domain.LegacyParams{
		FundBalance:        decimal.NewFromInt(10000000),
		RealReturn:         decimal.NewFromFloat(0.05),
		AnnualSupport:      decimal.NewFromInt(50000),
		HeirsPerGeneration: 2,
		GenerationYears:    30,
	}}

	last := terminal(collect(t, e, cmd))
	require.Equal(t, MsgLegacyComplete, last.Kind)
	require.NotNil(t, last.Legacy)
}

func TestHandleGuardrails(t *testing.T) {
	e := New()
	batch := &domain.BatchResult{
		PathCount:         4,
		YearsToRetirement: 5,
		RuinProbability:   decimal.NewFromFloat(0.25),
		Paths: []domain.PathSummary{
			{Ruined: false, SurvivalYears: 30},
			{Ruined: false, SurvivalYears: 30},
			{Ruined: false, SurvivalYears: 30},
			{Ruined: true, SurvivalYears: 8},
		},
	}
	cmd := Command{
		Kind:              KindGuardrails,
		AllRuns:           batch,
		SpendingReduction: decimal.NewFromFloat(0.10),
	}

	last := terminal(collect(t, e, cmd))
	require.Equal(t, MsgGuardrailsDone, last.Kind)
	require.NotNil(t, last.Guardrails)
	assert.True(t, last.Guardrails.BaselineSuccessRate.Equal(decimal.NewFromFloat(0.75)))
}

func TestHandleRothOptimizer(t *testing.T) {
	e := New()
	params := testParams()
	params.RothConversion = domain.RothConversionPolicy{
		Enabled:           true,
		TargetBracketRate: decimal.NewFromFloat(0.22),
	}

	last := terminal(collect(t, e, Command{Kind: KindRothOptimizer, Params: params}))
	require.Equal(t, MsgRothOptimizerDone, last.Kind)
	require.NotNil(t, last.Roth)
}

func TestHandleOptimize(t *testing.T) {
	e := New()

	last := terminal(collect(t, e, Command{Kind: KindOptimize, Params: testParams()}))
	require.Equal(t, MsgOptimizeComplete, last.Kind)
	require.NotNil(t, last.Optimization)
}

func TestUnknownKind(t *testing.T) {
	e := New()

	last := terminal(collect(t, e, Command{Kind: "frobnicate"}))
	require.Equal(t, MsgError, last.Kind)
	assert.Contains(t, last.Error, "frobnicate")
}

func TestMissingPayloads(t *testing.T) {
	e := New()
	for _, kind := range []string{KindRun, KindOptimize, KindRothOptimizer, KindLegacy, KindGuardrails} {
		last := terminal(collect(t, e, Command{Kind: kind}))
		assert.Equal(t, MsgError, last.Kind, kind)
	}
}

func TestEngineSurvivesFailedCommand(t *testing.T) {
	e := New()

	bad := testParams()
	bad.RetirementAge = 50
	last := terminal(collect(t, e, Command{Kind: KindRun, Params: bad, Paths: 20}))
	require.Equal(t, MsgError, last.Kind)

	last = terminal(collect(t, e, Command{Kind: KindRun, Params: testParams(), Paths: 20}))
	assert.Equal(t, MsgComplete, last.Kind)
}
