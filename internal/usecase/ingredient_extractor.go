package usecase

import (
	"regexp"
	"strings"

	"github.com/allerscan/backend/internal/pkg/textnorm"
)

// Compiled regex patterns for ingredient extraction
var (
	// Matches fractions like "1/2" or "1 / 3" so the slash is not read as a list separator
	fractionPattern = regexp.MustCompile(`\d+\s*/\s*\d+`)

	// Matches bracketed notes like "(다진 것)", "[선택]", "{optional}"
	bracketPattern = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]|\{[^}]*\}|（[^）]*）`)

	// Matches leading bullets and numbering like "- ", "• ", "1. ", "2) "
	bulletPattern = regexp.MustCompile(`^\s*(?:[-*•▪◦·]+|\d+[.)])\s*`)

	// Matches a quantity with an optional unit such as "200g", "1.5", "2큰술", "300ml"
	quantityPattern = regexp.MustCompile(`(?i)^\d+(?:[.,]\d+)?(?:kg|g|mg|ml|l|cc|oz|lb|lbs|cup|cups|tbsp|tsp|t|개|큰술|작은술|스푼|숟가락|컵|모|포기|쪽|줌|장|대|마리|봉지|팩|캔|알|뿌리|꼬집|인분)?$`)
)

// ingredientListSeparators split an ingredient list
const ingredientListSeparators = ",;\n·/、，"

// amountWords are quantity words and bare units that never name an ingredient
var amountWords = map[string]bool{
	"약간": true, "적당량": true, "조금": true, "소량": true, "반": true, "한줌": true, "한꼬집": true,
	"g": true, "kg": true, "ml": true, "l": true, "개": true, "큰술": true, "작은술": true, "컵": true,
	"t": true, "tbsp": true, "tsp": true, "cup": true, "cups": true, "모": true, "포기": true, "쪽": true,
	"줌": true, "장": true, "대": true, "마리": true, "some": true, "pinch": true, "optional": true,
}

// ExtractIngredients turns free recipe text into an ordered, de-duplicated ingredient list.
// A leading "<title>:" is dropped. Quantities, units, bullets and bracketed notes are removed.
func ExtractIngredients(recipe string) []string {
	return splitIngredientList(stripTitle(recipe))
}

// stripTitle drops a "<title>:" prefix when the title itself is not part of the list
func stripTitle(recipe string) string {
	recipe = strings.ReplaceAll(recipe, "：", ":")
	idx := strings.Index(recipe, ":")
	if idx == -1 {
		return recipe
	}
	if strings.ContainsAny(recipe[:idx], ",;") {
		return recipe
	}
	return recipe[idx+1:]
}

// splitIngredientList splits a list without looking for a title
func splitIngredientList(list string) []string {
	list = fractionPattern.ReplaceAllString(list, "1")
	list = bracketPattern.ReplaceAllString(list, " ")

	parts := strings.FieldsFunc(list, func(r rune) bool {
		return strings.ContainsRune(ingredientListSeparators, r)
	})

	out := []string{}
	seen := make(map[string]bool)
	for _, part := range parts {
		name := cleanIngredient(part)
		if name == "" {
			continue
		}
		key := textnorm.Key(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}

// cleanIngredient strips bullets, quantities and amount words from one list entry
func cleanIngredient(part string) string {
	part = bulletPattern.ReplaceAllString(textnorm.Normalize(part), "")

	var kept []string
	for _, word := range strings.Fields(part) {
		w := strings.Trim(word, ".:-~'\"")
		if w == "" || quantityPattern.MatchString(w) || amountWords[strings.ToLower(w)] {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}
