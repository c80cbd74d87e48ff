package usecase

import (
	"fmt"
	"strings"

	"github.com/allerscan/backend/internal/pkg/textnorm"
)

const (
	minCandidateRunes = 2
	maxCandidateRunes = 12
)

// candidateDenylist are generic or regulatory words that never name a product
var candidateDenylist = []string{"HACCP", "인증", "기준", "관리", "적용", "제품", "식품", "안전"}

// productNamePrompt asks for alternative product names to search the registry with
func productNamePrompt(ingredient string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "재료: %s\n", ingredient)
	b.WriteString("HACCP 인증 제품 목록에서 prdlstNm(제품명)으로 검색할 실제 식품명을 3~5개 제안해줘.\n")
	b.WriteString("규칙:\n")
	b.WriteString("- 짧은 명사형 이름만\n")
	b.WriteString("- 재료명에 단어를 덧붙이지 말고 같은 뜻의 다른 표기나 동의어를 사용 (예: 달걀, 계란, 반숙란)\n")
	b.WriteString("- HACCP, 인증, 기준, 관리, 적용, 제품, 식품, 안전 같은 단어 금지\n")
	b.WriteString("- 결과는 JSON 문자열 배열만 반환")
	return b.String()
}

// relatedTokensPrompt asks which raw material entries belong to the ingredient
func relatedTokensPrompt(ingredient, rawMaterial string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "재료: %s\n", ingredient)
	fmt.Fprintf(&b, "원재료: %s\n", rawMaterial)
	b.WriteString("원재료 목록에서 이 재료 자체이거나 이 재료를 구성하는 항목만 골라줘.\n")
	b.WriteString("- 구성 성분은 보통 재료(성분) 또는 재료[성분] 형태로 표기됨\n")
	b.WriteString("- 재료와 무관한 부재료는 제외\n")
	b.WriteString("- 원재료에 적힌 표기 그대로 사용\n")
	b.WriteString("- 결과는 JSON 문자열 배열만 반환")
	return b.String()
}

// PostProcessCandidates drops denylisted words, removes whitespace, enforces 2 to 12 runes and de-duplicates
func PostProcessCandidates(raw []string) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, v := range raw {
		cleaned := textnorm.Normalize(v)
		if cleaned == "" || containsDenylisted(cleaned) {
			continue
		}
		cleaned = textnorm.Compact(cleaned)
		n := textnorm.RuneLen(cleaned)
		if n < minCandidateRunes || n > maxCandidateRunes {
			continue
		}
		if seen[cleaned] {
			continue
		}
		seen[cleaned] = true
		out = append(out, cleaned)
	}
	return out
}

func containsDenylisted(s string) bool {
	upper := strings.ToUpper(s)
	for _, banned := range candidateDenylist {
		if strings.Contains(upper, banned) {
			return true
		}
	}
	return false
}

// ExtractRelatedTokens picks the raw material entries that name the ingredient, together with
// their bracketed components. "고추장[고춧가루, 소맥분(밀)]" for 고추장 yields 고추장, 고춧가루, 소맥분, 밀.
func ExtractRelatedTokens(ingredient, rawMaterial string) []string {
	needle := strings.ToLower(textnorm.Compact(ingredient))
	if needle == "" || strings.TrimSpace(rawMaterial) == "" {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	for _, segment := range splitTopLevel(textnorm.Normalize(rawMaterial)) {
		if !strings.Contains(strings.ToLower(textnorm.Compact(segment)), needle) {
			continue
		}
		for _, component := range flattenComponents(segment) {
			if seen[component] {
				continue
			}
			seen[component] = true
			out = append(out, component)
		}
	}
	return out
}

// ConstrainToRawMaterial keeps only tokens that literally occur in the raw material text
func ConstrainToRawMaterial(tokens []string, rawMaterial string) []string {
	haystack := strings.ToLower(textnorm.Compact(rawMaterial))
	out := []string{}
	seen := make(map[string]bool)
	for _, t := range tokens {
		c := strings.ToLower(textnorm.Compact(t))
		if c == "" || seen[c] || !strings.Contains(haystack, c) {
			continue
		}
		seen[c] = true
		out = append(out, textnorm.Normalize(t))
	}
	return out
}

// splitTopLevel splits on commas that are not inside brackets
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(', '[', '{', '（':
			depth++
		case ')', ']', '}', '）':
			if depth > 0 {
				depth--
			}
		case ',', '，':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + len(string(r))
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// flattenComponents lists a segment's head and every bracketed component
func flattenComponents(segment string) []string {
	fields := strings.FieldsFunc(segment, func(r rune) bool {
		switch r {
		case '(', ')', '[', ']', '{', '}', '（', '）', ',', '，', ':', '/', '·':
			return true
		}
		return false
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = textnorm.Normalize(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
