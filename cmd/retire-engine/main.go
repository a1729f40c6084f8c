package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"

	"github.com/finsim/retirement-engine/internal/calculation"
	"github.com/finsim/retirement-engine/internal/config"
	"github.com/finsim/retirement-engine/internal/engine"
	"github.com/finsim/retirement-engine/internal/handler"
	"github.com/finsim/retirement-engine/internal/output"
)

var (
	inputFile  string
	policyFile string
	formatName string
	pathCount  int
	baseSeed   int64
	verbose    bool

	legacyFile string

	listenAddr string
)

func main() {
	root := &cobra.Command{
		Use:           "retire-engine",
		Short:         "Monte Carlo retirement simulation and withdrawal planning engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&policyFile, "policy", "", "YAML file overriding the built-in tax policy tables")
	root.PersistentFlags().StringVar(&formatName, "format", "console", "output format (console, json, csv)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate a batch of market paths for a plan",
		RunE:  runBatch,
	}
	runCmd.Flags().StringVarP(&inputFile, "input", "i", "", "YAML file with simulation parameters (required)")
	runCmd.Flags().IntVarP(&pathCount, "paths", "n", calculation.DefaultPathCount, "number of Monte Carlo paths")
	runCmd.Flags().Int64Var(&baseSeed, "seed", 0, "base seed overriding the input file")
	runCmd.MarkFlagRequired("input")

	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "Goal-seek surplus, splurge headroom and earliest retirement age",
		RunE:  runOptimize,
	}
	optimizeCmd.Flags().StringVarP(&inputFile, "input", "i", "", "YAML file with simulation parameters (required)")
	optimizeCmd.Flags().Int64Var(&baseSeed, "seed", 0, "base seed overriding the input file")
	optimizeCmd.MarkFlagRequired("input")

	rothCmd := &cobra.Command{
		Use:   "roth",
		Short: "Evaluate bracket-filling Roth conversion strategies",
		RunE:  runRoth,
	}
	rothCmd.Flags().StringVarP(&inputFile, "input", "i", "", "YAML file with simulation parameters (required)")
	rothCmd.MarkFlagRequired("input")

	legacyCmd := &cobra.Command{
		Use:   "legacy",
		Short: "Project a multi-generation family support fund",
		RunE:  runLegacy,
	}
	legacyCmd.Flags().StringVarP(&legacyFile, "input", "i", "", "YAML file with legacy fund parameters (required)")
	legacyCmd.MarkFlagRequired("input")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the engine protocol over HTTP",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&listenAddr, "listen", ":8080", "listen address")

	root.AddCommand(runCmd, optimizeCmd, rothCmd, legacyCmd, serveCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// slogAdapter backs the engine's Logger interface with log/slog.
type slogAdapter struct {
	l *slog.Logger
}

func (s slogAdapter) Debugf(format string, args ...any) { s.l.Debug(fmt.Sprintf(format, args...)) }
func (s slogAdapter) Infof(format string, args ...any)  { s.l.Info(fmt.Sprintf(format, args...)) }
func (s slogAdapter) Warnf(format string, args ...any)  { s.l.Warn(fmt.Sprintf(format, args...)) }
func (s slogAdapter) Errorf(format string, args ...any) { s.l.Error(fmt.Sprintf(format, args...)) }

func newLogger() calculation.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slogAdapter{l: slog.New(h)}
}

func loadPolicy() (*config.Policy, error) {
	if policyFile == "" {
		return config.DefaultPolicy(), nil
	}
	return config.LoadPolicy(policyFile)
}

func emitReport(report *output.Report) error {
	formatter := output.GetFormatterByName(formatName)
	if formatter == nil {
		return fmt.Errorf("unknown output format %q", formatName)
	}
	data, err := formatter.Format(report)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func runBatch(cmd *cobra.Command, args []string) error {
	policy, err := loadPolicy()
	if err != nil {
		return err
	}
	params, err := config.NewInputParser().LoadParams(inputFile)
	if err != nil {
		return err
	}
	if baseSeed != 0 {
		params.Seed = baseSeed
	}

	logger := newLogger()
	runner := calculation.NewBatchRunnerWithConfig(policy, config.DefaultHistoricalReturns(), logger)
	runner.PathCount = pathCount
	runner.Progress = func(completed, total int) {
		logger.Debugf("progress: %d/%d paths", completed, total)
	}

	batch, err := runner.Run(cmd.Context(), params)
	if err != nil {
		return err
	}
	return emitReport(&output.Report{Batch: batch})
}

func runOptimize(cmd *cobra.Command, args []string) error {
	policy, err := loadPolicy()
	if err != nil {
		return err
	}
	params, err := config.NewInputParser().LoadParams(inputFile)
	if err != nil {
		return err
	}
	if baseSeed != 0 {
		params.Seed = baseSeed
	}

	opt := calculation.NewOptimizerWithConfig(policy, config.DefaultHistoricalReturns(), newLogger())
	result, err := opt.Optimize(cmd.Context(), params)
	if err != nil {
		return err
	}
	return emitReport(&output.Report{Optimization: result})
}

func runRoth(cmd *cobra.Command, args []string) error {
	policy, err := loadPolicy()
	if err != nil {
		return err
	}
	params, err := config.NewInputParser().LoadParams(inputFile)
	if err != nil {
		return err
	}

	planner := calculation.NewRothPlannerWithConfig(policy, config.DefaultHistoricalReturns(), newLogger())
	result, err := planner.Plan(params)
	if err != nil {
		return err
	}
	return emitReport(&output.Report{Roth: result})
}

func runLegacy(cmd *cobra.Command, args []string) error {
	params, err := config.NewInputParser().LoadLegacyParams(legacyFile)
	if err != nil {
		return err
	}
	result, err := calculation.SimulateLegacy(params)
	if err != nil {
		return err
	}
	return emitReport(&output.Report{Legacy: result})
}

func runServe(cmd *cobra.Command, args []string) error {
	policy, err := loadPolicy()
	if err != nil {
		return err
	}

	logger := newLogger()
	eng := engine.NewWithConfig(policy, config.DefaultHistoricalReturns(), logger)
	h := handler.New(eng)

	logger.Infof("listening on %s", listenAddr)
	return fasthttp.ListenAndServe(listenAddr, h.Serve)
}
