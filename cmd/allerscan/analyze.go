package main

import (
	"fmt"
	"os"
	"time"

	"github.com/allerscan/backend/config"
	"github.com/allerscan/backend/internal/app"
	"github.com/allerscan/backend/internal/domain"
	"github.com/allerscan/backend/internal/pkg/logger"
	"github.com/briandowns/spinner"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	analyzeRecipe       string
	analyzeCountry      string
	analyzeOutputFormat string
	analyzeVerbose      bool
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Find the allergens of a recipe that a target country requires to be declared",
		Long: `Extract the ingredients of a recipe and resolve their allergens through the local
dictionaries, the raw produce and processed food catalogs, and the HACCP registry.

Examples:
  # Analyze a recipe for the US market
  allerscan analyze --recipe "김치찌개: 김치 200g, 돼지고기, 두부 1/2모, 고추장 1큰술" --country US

  # Machine readable output
  allerscan analyze -r "새우볶음밥: 새우, 밥, 달걀" -c JP -o json`,
		RunE: runAnalyze,
	}

	cmd.Flags().StringVarP(&analyzeRecipe, "recipe", "r", "", "Recipe text, optionally prefixed with '<title>:'")
	cmd.Flags().StringVarP(&analyzeCountry, "country", "c", "US", "Target country code")
	cmd.Flags().StringVarP(&analyzeOutputFormat, "output", "o", "human", "Output format (human, json, yaml)")
	cmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false, "Verbose logging")
	_ = cmd.MarkFlagRequired("recipe")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	application, log, err := setup(analyzeVerbose, app.Options{WithoutDatabase: true})
	if err != nil {
		return err
	}
	defer application.Close()
	defer log.Sync()

	s := startSpinner(analyzeOutputFormat, " Analyzing ingredients...")
	resp, err := application.Allergens.Analyze(cmd.Context(), &domain.AnalysisRequest{
		Recipe:        analyzeRecipe,
		TargetCountry: analyzeCountry,
		JobID:         uuid.NewString(),
	})
	stopSpinner(s)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	return writeAnalysis(cmd.OutOrStdout(), resp, analyzeOutputFormat)
}

// setup loads configuration and wires the services. Logs go to stderr and stay quiet unless verbose.
func setup(verbose bool, opts app.Options) (*app.App, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := "error"
	if verbose {
		level = "debug"
	}
	log, err := logger.New(level, cfg.Server.Environment)
	if err != nil {
		return nil, nil, err
	}

	application, err := app.New(cfg, log, opts)
	if err != nil {
		return nil, nil, err
	}
	return application, log, nil
}

func startSpinner(format, suffix string) *spinner.Spinner {
	if format != "human" {
		return nil
	}
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = suffix
	s.Start()
	return s
}

func stopSpinner(s *spinner.Spinner) {
	if s != nil {
		s.Stop()
	}
}
