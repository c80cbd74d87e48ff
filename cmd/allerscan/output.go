package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/allerscan/backend/internal/domain"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

func writeStructured(w io.Writer, v any, format string) (bool, error) {
	switch format {
	case "json":
		output, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, err
		}
		_, err = fmt.Fprintln(w, string(output))
		return true, err
	case "yaml":
		// round trip through JSON so YAML keys match the API field names
		raw, err := json.Marshal(v)
		if err != nil {
			return true, err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return true, err
		}
		output, err := yaml.Marshal(generic)
		if err != nil {
			return true, err
		}
		_, err = fmt.Fprint(w, string(output))
		return true, err
	case "human", "":
		return false, nil
	default:
		return true, fmt.Errorf("unknown output format %q (want human, json or yaml)", format)
	}
}

// writeAnalysis prints an analysis in the requested format
func writeAnalysis(w io.Writer, resp *domain.AnalysisResponse, format string) error {
	if done, err := writeStructured(w, resp, format); done {
		return err
	}

	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	cyan := color.New(color.FgCyan, color.Bold)

	fmt.Fprintln(w)
	cyan.Fprintf(w, "TARGET COUNTRY: %s\n", resp.TargetCountry)
	fmt.Fprintf(w, "   Ingredients: %s\n\n", strings.Join(resp.ExtractedIngredients, ", "))

	if len(resp.FinalMatchedAllergens) > 0 {
		red.Fprintln(w, "ALLERGENS TO DECLARE:")
		for _, allergen := range resp.FinalMatchedAllergens {
			fmt.Fprintf(w, "   - %s\n", allergen)
		}
	} else {
		green.Fprintln(w, "NO DECLARABLE ALLERGENS FOUND")
	}
	fmt.Fprintln(w)

	if len(resp.DirectMatchedAllergens) > 0 {
		yellow.Fprintln(w, "DIRECT MATCHES:")
		allergens := make([]string, 0, len(resp.DirectMatchedAllergens))
		for allergen := range resp.DirectMatchedAllergens {
			allergens = append(allergens, allergen)
		}
		sort.Strings(allergens)
		for _, allergen := range allergens {
			fmt.Fprintf(w, "   %s <- %s\n", allergen, resp.DirectMatchedAllergens[allergen])
		}
		fmt.Fprintln(w)
	}

	if len(resp.Evidences) > 0 {
		yellow.Fprintln(w, "REGISTRY EVIDENCE:")
		for _, ev := range resp.Evidences {
			fmt.Fprintf(w, "   %s [%s] %s\n", ev.Ingredient, statusLabel(ev.Status), ev.SearchStrategy)
			for _, p := range ev.Evidences {
				fmt.Fprintf(w, "      %s (%s)\n", p.ProductName, p.ReportNo)
			}
			if len(ev.MatchedAllergens) > 0 {
				fmt.Fprintf(w, "      allergens: %s\n", color.YellowString(strings.Join(ev.MatchedAllergens, ", ")))
			}
			if ev.Error != "" {
				fmt.Fprintf(w, "      error: %s\n", color.RedString(ev.Error))
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "%s\n", color.HiBlackString(resp.Note))
	return nil
}

func statusLabel(status domain.EvidenceStatus) string {
	switch status {
	case domain.StatusFound:
		return color.GreenString(string(status))
	case domain.StatusNotFound:
		return color.RedString(string(status))
	default:
		return color.HiBlackString(string(status))
	}
}

// writeCases prints a case lookup in the requested format
func writeCases(w io.Writer, resp *domain.CaseResponse, format string) error {
	if done, err := writeStructured(w, resp, format); done {
		return err
	}

	cyan := color.New(color.FgCyan, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)

	fmt.Fprintln(w)
	cyan.Fprintf(w, "PRODUCT: %s\n", resp.ProductCases.Product)
	writeCaseList(w, resp.ProductCases.Cases)

	for _, ing := range resp.IngredientCases {
		yellow.Fprintf(w, "INGREDIENT: %s\n", ing.Ingredient)
		writeCaseList(w, ing.Cases)
	}
	return nil
}

func writeCaseList(w io.Writer, cases []domain.RegulatoryCase) {
	if len(cases) == 0 {
		fmt.Fprintln(w, "   no cases")
		fmt.Fprintln(w)
		return
	}
	for _, c := range cases {
		fmt.Fprintf(w, "   [%s] %s %s: %s\n", c.CaseID, c.Country, c.AnnouncementDate, c.ViolationReason)
		if c.Action != "" {
			fmt.Fprintf(w, "      action: %s\n", c.Action)
		}
	}
	fmt.Fprintln(w)
}
