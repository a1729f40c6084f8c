package calculation

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/finsim/retirement-engine/internal/config"
	"github.com/finsim/retirement-engine/internal/domain"
)

// DefaultPathCount is the batch size used when the caller does not choose one.
const DefaultPathCount = 1000

// trimRatio is the per-tail share of paths dropped before computing wealth
// percentiles. Ruin probability is always computed on the untrimmed batch.
const trimRatio = 0.025

// progressInterval is how many completed paths between progress callbacks.
const progressInterval = 50

// maxConcurrentPaths bounds the worker fan-out.
const maxConcurrentPaths = 10

// ProgressFunc receives (completed, total) as paths finish. It must not
// block; the runner drops updates the callback cannot keep up with.
type ProgressFunc func(completed, total int)

// BatchRunner fans a parameter set out over many simulated paths and folds
// the outcomes into percentile bands and summary statistics. Each path gets
// its own generator seeded from the batch seed, so a (seed, pathCount) pair
// identifies a batch exactly.
type BatchRunner struct {
	policy *config.Policy
	hist   *config.HistoricalReturns
	logger Logger

	PathCount int
	Progress  ProgressFunc
}

// NewBatchRunner creates a runner over the built-in policy and historical
// series.
func NewBatchRunner() *BatchRunner {
	return NewBatchRunnerWithConfig(config.DefaultPolicy(), config.DefaultHistoricalReturns(), nil)
}

// NewBatchRunnerWithConfig creates a runner with explicit policy tables and
// historical data. A nil logger disables logging.
func NewBatchRunnerWithConfig(policy *config.Policy, hist *config.HistoricalReturns, logger Logger) *BatchRunner {
	if logger == nil {
		logger = &NopLogger{}
	}
	return &BatchRunner{
		policy:    policy,
		hist:      hist,
		logger:    logger,
		PathCount: DefaultPathCount,
	}
}

// Run simulates the batch. The context cancels outstanding work; a canceled
// batch returns ctx.Err() rather than partial statistics.
func (br *BatchRunner) Run(ctx context.Context, params *domain.SimulationParams) (*domain.BatchResult, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation parameters: %w", err)
	}
	pathCount := br.PathCount
	if pathCount <= 0 {
		pathCount = DefaultPathCount
	}

	// Child seeds come from a generator seeded with the batch seed, so the
	// batch is reproducible from (seed, pathCount) alone regardless of
	// worker scheduling.
	seedRng := rand.New(rand.NewSource(params.Seed))
	seeds := make([]int64, pathCount)
	for i := range seeds {
		seeds[i] = seedRng.Int63()
	}

	br.logger.Infof("starting batch of %d paths (seed %d)", pathCount, params.Seed)

	results := make([]*domain.PathResult, pathCount)
	errs := make([]error, pathCount)

	var wg sync.WaitGroup
	var completed int
	var mu sync.Mutex
	semaphore := make(chan struct{}, maxConcurrentPaths)

	for i := 0; i < pathCount; i++ {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		default:
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			sim := NewPathSimulatorWithConfig(params, br.policy, br.hist, br.logger)
			results[idx], errs[idx] = sim.Run(seeds[idx])

			mu.Lock()
			completed++
			done := completed
			mu.Unlock()
			if br.Progress != nil && done%progressInterval == 0 {
				br.Progress(done, pathCount)
			}
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("path simulation failed: %w", err)
		}
	}

	return br.fold(params, results)
}

// fold aggregates finished paths into the batch result.
func (br *BatchRunner) fold(params *domain.SimulationParams, paths []*domain.PathResult) (*domain.BatchResult, error) {
	horizon := params.Horizon()
	pathCount := len(paths)

	ruinCount := 0
	terminal := make([]decimal.Decimal, 0, pathCount)
	firstYear := make([]decimal.Decimal, 0, pathCount)
	for _, pr := range paths {
		if pr.Ruined {
			ruinCount++
		}
		terminal = append(terminal, pr.TerminalRealWealth)
		firstYear = append(firstYear, pr.FirstYearNetWithdrawal)
	}

	bands := make([]domain.YearBand, horizon)
	realBal := make([]decimal.Decimal, pathCount)
	nominalBal := make([]decimal.Decimal, pathCount)
	for y := 0; y < horizon; y++ {
		for i, pr := range paths {
			realBal[i] = pr.Trajectory[y].RealBalance
			nominalBal[i] = pr.Trajectory[y].NominalBalance
		}
		trimmedReal, err := TrimExtremeValues(realBal, trimRatio)
		if err != nil {
			return nil, fmt.Errorf("trimming year %d real balances: %w", y, err)
		}
		trimmedNominal, err := TrimExtremeValues(nominalBal, trimRatio)
		if err != nil {
			return nil, fmt.Errorf("trimming year %d nominal balances: %w", y, err)
		}
		bands[y] = domain.YearBand{
			Age:        paths[0].Trajectory[y].Age,
			RealP10:    Percentile(trimmedReal, 10),
			RealP50:    Percentile(trimmedReal, 50),
			RealP90:    Percentile(trimmedReal, 90),
			NominalP10: Percentile(trimmedNominal, 10),
			NominalP50: Percentile(trimmedNominal, 50),
			NominalP90: Percentile(trimmedNominal, 90),
		}
	}

	trimmedTerminal, err := TrimExtremeValues(terminal, trimRatio)
	if err != nil {
		return nil, fmt.Errorf("trimming terminal wealth: %w", err)
	}
	trimmedFirstYear, err := TrimExtremeValues(firstYear, trimRatio)
	if err != nil {
		return nil, fmt.Errorf("trimming first-year withdrawals: %w", err)
	}

	summaries := make([]domain.PathSummary, pathCount)
	for i, pr := range paths {
		summaries[i] = pr.Summary()
	}

	result := &domain.BatchResult{
		Bands: bands,
		TerminalWealth: domain.Quartiles{
			P25: Percentile(trimmedTerminal, 25),
			P50: Percentile(trimmedTerminal, 50),
			P75: Percentile(trimmedTerminal, 75),
		},
		FirstYearWithdrawal: domain.Quartiles{
			P25: Percentile(trimmedFirstYear, 25),
			P50: Percentile(trimmedFirstYear, 50),
			P75: Percentile(trimmedFirstYear, 75),
		},
		RuinProbability:   decimal.NewFromInt(int64(ruinCount)).Div(decimal.NewFromInt(int64(pathCount))),
		PathCount:         pathCount,
		Paths:             summaries,
		YearsToRetirement: params.RetirementAge - params.YoungerAge(),
	}

	br.logger.Infof("batch complete: ruin probability %s over %d paths",
		result.RuinProbability.StringFixed(4), pathCount)
	return result, nil
}
