// Package engine exposes the simulation core to hosts through an
// asynchronous message protocol: one command in, a stream of progress
// messages and exactly one terminal message out. The engine owns no mutable
// state between commands, so a failed command never poisons the next one.
package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/finsim/retirement-engine/internal/calculation"
	"github.com/finsim/retirement-engine/internal/config"
	"github.com/finsim/retirement-engine/internal/domain"
)

// Command kinds accepted by Handle.
const (
	KindRun           = "run"
	KindLegacy        = "legacy"
	KindGuardrails    = "guardrails"
	KindRothOptimizer = "roth-optimizer"
	KindOptimize      = "optimize"
)

// Message kinds emitted by Handle.
const (
	MsgProgress          = "progress"
	MsgComplete          = "complete"
	MsgLegacyComplete    = "legacy-complete"
	MsgGuardrailsDone    = "guardrails-complete"
	MsgRothOptimizerDone = "roth-optimizer-complete"
	MsgOptimizeComplete  = "optimize-complete"
	MsgError             = "error"
)

// Command is the request envelope. Kind selects the operation; the other
// fields are per-kind payloads.
type Command struct {
	Kind string `json:"kind"`

	Params   *domain.SimulationParams `json:"params,omitempty"`
	BaseSeed int64                    `json:"baseSeed,omitempty"`
	Paths    int                      `json:"paths,omitempty"`

	// Guardrails inputs: a previously completed batch plus the proposed cut.
	AllRuns           *domain.BatchResult `json:"allRuns,omitempty"`
	SpendingReduction decimal.Decimal     `json:"spendingReduction,omitempty"`

	Legacy *domain.LegacyParams `json:"legacy,omitempty"`
}

// Message is the response envelope. Exactly one terminal message closes
// every command; progress messages may interleave before it.
type Message struct {
	Kind string `json:"kind"`

	Completed int `json:"completed,omitempty"`
	Total     int `json:"total,omitempty"`

	Batch        *domain.BatchResult        `json:"batch,omitempty"`
	Optimization *domain.OptimizationResult `json:"optimization,omitempty"`
	Guardrails   *domain.GuardrailsResult   `json:"guardrails,omitempty"`
	Roth         *domain.RothPlanResult     `json:"roth,omitempty"`
	Legacy       *domain.LegacyResult       `json:"legacy,omitempty"`

	Error string `json:"error,omitempty"`
}

// EmitFunc receives protocol messages. Implementations must not block;
// progress is fire-and-forget.
type EmitFunc func(Message)

// Engine dispatches protocol commands onto the calculation core.
type Engine struct {
	policy *config.Policy
	hist   *config.HistoricalReturns
	logger calculation.Logger
}

// New creates an engine over the built-in policy tables and historical
// series.
func New() *Engine {
	return NewWithConfig(config.DefaultPolicy(), config.DefaultHistoricalReturns(), nil)
}

// NewWithConfig creates an engine with explicit configuration. A nil logger
// disables logging.
func NewWithConfig(policy *config.Policy, hist *config.HistoricalReturns, logger calculation.Logger) *Engine {
	if logger == nil {
		logger = &calculation.NopLogger{}
	}
	return &Engine{policy: policy, hist: hist, logger: logger}
}

// Handle executes one command, emitting progress along the way and exactly
// one terminal message at the end. Fatal errors become a single error
// message; the engine stays usable for subsequent commands.
func (e *Engine) Handle(ctx context.Context, cmd Command, emit EmitFunc) {
	switch cmd.Kind {
	case KindRun:
		e.handleRun(ctx, cmd, emit)
	case KindLegacy:
		e.handleLegacy(cmd, emit)
	case KindGuardrails:
		e.handleGuardrails(cmd, emit)
	case KindRothOptimizer:
		e.handleRothOptimizer(cmd, emit)
	case KindOptimize:
		e.handleOptimize(ctx, cmd, emit)
	default:
		e.fail(emit, fmt.Errorf("unknown command kind %q", cmd.Kind))
	}
}

func (e *Engine) handleRun(ctx context.Context, cmd Command, emit EmitFunc) {
	if cmd.Params == nil {
		e.fail(emit, fmt.Errorf("run command requires simulation parameters"))
		return
	}
	params := *cmd.Params
	params.ApplyDefaults()
	if cmd.BaseSeed != 0 {
		params.Seed = cmd.BaseSeed
	}

	runner := calculation.NewBatchRunnerWithConfig(e.policy, e.hist, e.logger)
	if cmd.Paths > 0 {
		runner.PathCount = cmd.Paths
	}
	runner.Progress = func(completed, total int) {
		emit(Message{Kind: MsgProgress, Completed: completed, Total: total})
	}

	batch, err := runner.Run(ctx, &params)
	if err != nil {
		e.fail(emit, err)
		return
	}
	emit(Message{Kind: MsgComplete, Batch: batch})
}

func (e *Engine) handleLegacy(cmd Command, emit EmitFunc) {
	if cmd.Legacy == nil {
		e.fail(emit, fmt.Errorf("legacy command requires legacy parameters"))
		return
	}
	result, err := calculation.SimulateLegacy(cmd.Legacy)
	if err != nil {
		e.fail(emit, err)
		return
	}
	emit(Message{Kind: MsgLegacyComplete, Legacy: result})
}

func (e *Engine) handleGuardrails(cmd Command, emit EmitFunc) {
	if cmd.AllRuns == nil {
		e.fail(emit, fmt.Errorf("guardrails command requires a completed batch"))
		return
	}
	result, err := calculation.EstimateGuardrails(cmd.AllRuns, cmd.SpendingReduction)
	if err != nil {
		e.fail(emit, err)
		return
	}
	emit(Message{Kind: MsgGuardrailsDone, Guardrails: result})
}

func (e *Engine) handleRothOptimizer(cmd Command, emit EmitFunc) {
	if cmd.Params == nil {
		e.fail(emit, fmt.Errorf("roth-optimizer command requires simulation parameters"))
		return
	}
	params := *cmd.Params
	params.ApplyDefaults()
	planner := calculation.NewRothPlannerWithConfig(e.policy, e.hist, e.logger)
	result, err := planner.Plan(&params)
	if err != nil {
		e.fail(emit, err)
		return
	}
	emit(Message{Kind: MsgRothOptimizerDone, Roth: result})
}

func (e *Engine) handleOptimize(ctx context.Context, cmd Command, emit EmitFunc) {
	if cmd.Params == nil {
		e.fail(emit, fmt.Errorf("optimize command requires simulation parameters"))
		return
	}
	params := *cmd.Params
	params.ApplyDefaults()
	if cmd.BaseSeed != 0 {
		params.Seed = cmd.BaseSeed
	}

	opt := calculation.NewOptimizerWithConfig(e.policy, e.hist, e.logger)
	result, err := opt.Optimize(ctx, &params)
	if err != nil {
		e.fail(emit, err)
		return
	}
	emit(Message{Kind: MsgOptimizeComplete, Optimization: result})
}

func (e *Engine) fail(emit EmitFunc, err error) {
	e.logger.Errorf("command failed: %v", err)
	emit(Message{Kind: MsgError, Error: err.Error()})
}
