package main

import (
	"fmt"

	"github.com/allerscan/backend/internal/app"
	"github.com/allerscan/backend/internal/domain"
	"github.com/spf13/cobra"
)

var (
	casesRecipe       string
	casesRecipeID     int64
	casesOutputFormat string
	casesVerbose      bool
)

func newCasesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cases",
		Short: "Look up historical export violation cases for a recipe",
		Long: `Match the product name and every ingredient of "<product>: <ingredients>" against the
regulatory case index.

Examples:
  allerscan cases --recipe "김치찌개: 김치, 돼지고기, 고춧가루"

  # Persist the matches to the audit store under recipe 42
  allerscan cases -r "고추장 불고기: 고추장, 소고기" --recipe-id 42`,
		RunE: runCases,
	}

	cmd.Flags().StringVarP(&casesRecipe, "recipe", "r", "", "Recipe as '<product>: <ingredient>, <ingredient>, ...'")
	cmd.Flags().Int64Var(&casesRecipeID, "recipe-id", 0, "Recipe id; when set, matches are saved to the audit store")
	cmd.Flags().StringVarP(&casesOutputFormat, "output", "o", "human", "Output format (human, json, yaml)")
	cmd.Flags().BoolVarP(&casesVerbose, "verbose", "v", false, "Verbose logging")
	_ = cmd.MarkFlagRequired("recipe")

	return cmd
}

func runCases(cmd *cobra.Command, args []string) error {
	application, log, err := setup(casesVerbose, app.Options{WithoutDatabase: casesRecipeID <= 0})
	if err != nil {
		return err
	}
	defer application.Close()
	defer log.Sync()

	req := &domain.CaseRequest{Recipe: casesRecipe}
	if casesRecipeID > 0 {
		req.RecipeID = &casesRecipeID
	}

	resp, err := application.Cases.FindCases(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("case lookup failed: %w", err)
	}

	return writeCases(cmd.OutOrStdout(), resp, casesOutputFormat)
}
