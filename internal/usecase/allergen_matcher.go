package usecase

import (
	"strings"

	"github.com/allerscan/backend/internal/pkg/textnorm"
)

// Canonical allergen names. Country obligation lists may word these differently.
const (
	AllergenMilk        = "Milk"
	AllergenEggs        = "Eggs"
	AllergenWheat       = "Wheat"
	AllergenBuckwheat   = "Buckwheat"
	AllergenPeanuts     = "Peanuts"
	AllergenSoybeans    = "Soybeans"
	AllergenTreeNuts    = "Tree nuts"
	AllergenWalnut      = "Walnut"
	AllergenPineNut     = "Pine nut"
	AllergenCrustaceans = "Crustaceans"
	AllergenShrimp      = "Shrimp"
	AllergenCrab        = "Crab"
	AllergenFish        = "Fish"
	AllergenMackerel    = "Mackerel"
	AllergenMolluscs    = "Molluscs"
	AllergenSquid       = "Squid"
	AllergenSesame      = "Sesame"
	AllergenPork        = "Pork"
	AllergenBeef        = "Beef"
	AllergenChicken     = "Chicken"
	AllergenPeach       = "Peach"
	AllergenTomato      = "Tomato"
	AllergenSulfites    = "Sulfites"
	AllergenCelery      = "Celery"
	AllergenMustard     = "Mustard"
)

// multiAllergenIngredients carry more than one allergen at once
var multiAllergenIngredients = map[string][]string{
	"간장":         {AllergenSoybeans, AllergenWheat},
	"진간장":        {AllergenSoybeans, AllergenWheat},
	"양조간장":       {AllergenSoybeans, AllergenWheat},
	"국간장":        {AllergenSoybeans, AllergenWheat},
	"soy sauce":  {AllergenSoybeans, AllergenWheat},
	"고추장":        {AllergenSoybeans, AllergenWheat},
	"쌈장":         {AllergenSoybeans, AllergenWheat},
	"춘장":         {AllergenSoybeans, AllergenWheat},
	"짜장":         {AllergenSoybeans, AllergenWheat},
	"마요네즈":       {AllergenEggs, AllergenSoybeans},
	"mayonnaise": {AllergenEggs, AllergenSoybeans},
	"어묵":         {AllergenFish, AllergenWheat},
	"fish cake":  {AllergenFish, AllergenWheat},
	"호두":         {AllergenWalnut, AllergenTreeNuts},
	"walnut":     {AllergenWalnut, AllergenTreeNuts},
	"잣":          {AllergenPineNut, AllergenTreeNuts},
	"pine nut":   {AllergenPineNut, AllergenTreeNuts},
	"새우젓":        {AllergenCrustaceans, AllergenShrimp},
	"고등어":        {AllergenMackerel, AllergenFish},
	"빵가루":        {AllergenWheat, AllergenMilk},
}

// singleAllergenIngredients resolve to exactly one canonical allergen
var singleAllergenIngredients = map[string]string{
	"우유": AllergenMilk, "milk": AllergenMilk, "생크림": AllergenMilk, "cream": AllergenMilk,
	"치즈": AllergenMilk, "cheese": AllergenMilk, "버터": AllergenMilk, "butter": AllergenMilk,
	"요구르트": AllergenMilk, "yogurt": AllergenMilk, "분유": AllergenMilk,

	"계란": AllergenEggs, "달걀": AllergenEggs, "egg": AllergenEggs, "eggs": AllergenEggs,
	"메추리알": AllergenEggs, "노른자": AllergenEggs, "흰자": AllergenEggs,

	"밀가루": AllergenWheat, "밀": AllergenWheat, "flour": AllergenWheat, "wheat": AllergenWheat,
	"wheat flour": AllergenWheat, "부침가루": AllergenWheat, "튀김가루": AllergenWheat,
	"국수": AllergenWheat, "소면": AllergenWheat, "중면": AllergenWheat, "pasta": AllergenWheat,

	"메밀": AllergenBuckwheat, "메밀가루": AllergenBuckwheat, "buckwheat": AllergenBuckwheat,

	"땅콩": AllergenPeanuts, "peanut": AllergenPeanuts, "peanuts": AllergenPeanuts,
	"땅콩버터": AllergenPeanuts, "peanut butter": AllergenPeanuts,

	"대두": AllergenSoybeans, "콩": AllergenSoybeans, "두부": AllergenSoybeans, "된장": AllergenSoybeans,
	"tofu": AllergenSoybeans, "soybean": AllergenSoybeans, "soybeans": AllergenSoybeans, "soy": AllergenSoybeans,

	"아몬드": AllergenTreeNuts, "almond": AllergenTreeNuts, "캐슈넛": AllergenTreeNuts, "cashew": AllergenTreeNuts,
	"피스타치오": AllergenTreeNuts, "pistachio": AllergenTreeNuts, "pecan": AllergenTreeNuts,

	"참깨": AllergenSesame, "깨": AllergenSesame, "참기름": AllergenSesame, "통깨": AllergenSesame,
	"sesame": AllergenSesame, "sesame oil": AllergenSesame,

	"돼지고기": AllergenPork, "삼겹살": AllergenPork, "목살": AllergenPork, "베이컨": AllergenPork,
	"햄": AllergenPork, "pork": AllergenPork, "bacon": AllergenPork,

	"소고기": AllergenBeef, "쇠고기": AllergenBeef, "차돌박이": AllergenBeef, "beef": AllergenBeef,

	"닭고기": AllergenChicken, "닭": AllergenChicken, "닭가슴살": AllergenChicken, "chicken": AllergenChicken,

	"복숭아": AllergenPeach, "peach": AllergenPeach,
	"토마토": AllergenTomato, "tomato": AllergenTomato, "케첩": AllergenTomato, "ketchup": AllergenTomato,

	"오징어": AllergenSquid, "squid": AllergenSquid,
	"셀러리": AllergenCelery, "celery": AllergenCelery,
	"머스타드": AllergenMustard, "겨자": AllergenMustard, "mustard": AllergenMustard,
	"와인": AllergenSulfites, "wine": AllergenSulfites,
}

// allergyKeywords map words found in registry allergy and raw material text to canonicals
var allergyKeywords = map[string][]string{
	"우유": {AllergenMilk}, "유청": {AllergenMilk}, "유청분말": {AllergenMilk}, "탈지분유": {AllergenMilk},
	"전지분유": {AllergenMilk}, "분유": {AllergenMilk}, "유크림": {AllergenMilk}, "버터": {AllergenMilk},
	"치즈": {AllergenMilk}, "유당": {AllergenMilk}, "카제인": {AllergenMilk}, "milk": {AllergenMilk},

	"난류": {AllergenEggs}, "계란": {AllergenEggs}, "달걀": {AllergenEggs}, "전란": {AllergenEggs},
	"전란액": {AllergenEggs}, "난백": {AllergenEggs}, "난황": {AllergenEggs}, "egg": {AllergenEggs},
	"eggs": {AllergenEggs},

	"밀": {AllergenWheat}, "밀가루": {AllergenWheat}, "소맥분": {AllergenWheat}, "소맥": {AllergenWheat},
	"글루텐": {AllergenWheat}, "wheat": {AllergenWheat},

	"메밀": {AllergenBuckwheat},
	"땅콩": {AllergenPeanuts}, "낙화생": {AllergenPeanuts}, "peanut": {AllergenPeanuts},
	"대두": {AllergenSoybeans}, "콩": {AllergenSoybeans}, "대두유": {AllergenSoybeans}, "soy": {AllergenSoybeans},
	"soybean": {AllergenSoybeans},

	"호두": {AllergenWalnut, AllergenTreeNuts}, "잣": {AllergenPineNut, AllergenTreeNuts},
	"아몬드": {AllergenTreeNuts}, "캐슈넛": {AllergenTreeNuts}, "피스타치오": {AllergenTreeNuts},

	"새우": {AllergenShrimp, AllergenCrustaceans}, "게": {AllergenCrab, AllergenCrustaceans},
	"꽃게": {AllergenCrab, AllergenCrustaceans}, "갑각류": {AllergenCrustaceans},
	"shrimp": {AllergenShrimp, AllergenCrustaceans}, "crab": {AllergenCrab, AllergenCrustaceans},

	"고등어": {AllergenMackerel, AllergenFish}, "어류": {AllergenFish}, "생선": {AllergenFish},
	"멸치": {AllergenFish}, "fish": {AllergenFish},

	"오징어": {AllergenSquid, AllergenMolluscs}, "조개류": {AllergenMolluscs}, "굴": {AllergenMolluscs},
	"전복": {AllergenMolluscs}, "홍합": {AllergenMolluscs},

	"참깨": {AllergenSesame}, "깨": {AllergenSesame}, "sesame": {AllergenSesame},
	"돼지고기": {AllergenPork}, "돈육": {AllergenPork}, "pork": {AllergenPork},
	"쇠고기": {AllergenBeef}, "소고기": {AllergenBeef}, "우육": {AllergenBeef}, "beef": {AllergenBeef},
	"닭고기": {AllergenChicken}, "계육": {AllergenChicken}, "chicken": {AllergenChicken},
	"복숭아": {AllergenPeach}, "토마토": {AllergenTomato},
	"아황산류": {AllergenSulfites}, "아황산": {AllergenSulfites}, "이산화황": {AllergenSulfites},
	"sulfites": {AllergenSulfites},
}

// allergyKeywordSuffixes are stripped from a token that does not match as-is
var allergyKeywordSuffixes = []string{"함유", "성분", "류"}

// compatibleNames lists obligation wordings that satisfy a canonical allergen
var compatibleNames = map[string][]string{
	AllergenCrustaceans: {"Crustacean shellfish", "Crustacean"},
	AllergenTreeNuts:    {"Nuts"},
	AllergenSulfites:    {"Sulphites", "Sulphur dioxide and sulphites"},
	AllergenSoybeans:    {"Soy", "Soybean", "Soya"},
	AllergenWheat:       {"Cereals containing gluten"},
	AllergenEggs:        {"Egg"},
	AllergenPeanuts:     {"Peanut"},
	AllergenMolluscs:    {"Mollusks"},
}

// kindSynonyms are interchangeable registry classification keywords
var kindSynonyms = [][]string{
	{"계란", "달걀", "난류", "전란"},
	{"우유", "원유", "유제품", "가공유"},
	{"밀가루", "소맥분", "밀"},
	{"대두", "콩", "두류"},
	{"두부", "두부류", "두류가공품"},
	{"돼지고기", "돈육", "식육가공품"},
	{"소고기", "쇠고기", "우육"},
	{"닭고기", "계육", "닭"},
	{"땅콩", "낙화생", "견과류"},
	{"참깨", "깨", "참기름"},
	{"간장", "양조간장", "진간장", "장류"},
	{"된장", "장류"},
	{"어묵", "어육가공품"},
	{"햄", "소시지", "식육가공품"},
	{"치즈", "자연치즈", "가공치즈"},
	{"버터", "유지류"},
	{"빵", "빵류", "과자류"},
	{"라면", "면류", "유탕면"},
	{"케첩", "토마토케첩", "소스류"},
}

// AllergenMatcher resolves ingredient names and registry text to canonical allergens.
// All lookups are exact on normalised text; it holds no mutable state.
type AllergenMatcher struct {
	multi    map[string][]string
	single   map[string]string
	keywords map[string][]string
	synonyms map[string][]string
}

// NewAllergenMatcher builds a matcher over the built-in dictionaries
func NewAllergenMatcher() *AllergenMatcher {
	m := &AllergenMatcher{
		multi:    make(map[string][]string, len(multiAllergenIngredients)),
		single:   make(map[string]string, len(singleAllergenIngredients)),
		keywords: make(map[string][]string, len(allergyKeywords)),
		synonyms: make(map[string][]string),
	}
	for k, v := range multiAllergenIngredients {
		m.multi[textnorm.Key(k)] = v
	}
	for k, v := range singleAllergenIngredients {
		m.single[textnorm.Key(k)] = v
	}
	for k, v := range allergyKeywords {
		m.keywords[textnorm.Key(k)] = v
	}
	for _, group := range kindSynonyms {
		for _, word := range group {
			key := textnorm.Key(word)
			m.synonyms[key] = append(m.synonyms[key], group...)
		}
	}
	return m
}

// DirectMultiMatch returns every canonical allergen of an ingredient known to carry several
func (m *AllergenMatcher) DirectMultiMatch(ingredient string) []string {
	canonicals := m.multi[textnorm.Key(ingredient)]
	if len(canonicals) == 0 {
		return nil
	}
	out := make([]string, len(canonicals))
	copy(out, canonicals)
	return out
}

// DirectMatch returns the single canonical allergen of an ingredient
func (m *AllergenMatcher) DirectMatch(ingredient string) (string, bool) {
	canonical, ok := m.single[textnorm.Key(ingredient)]
	return canonical, ok
}

// AllergensFromAllergyText reads a registry allergy declaration such as "대두, 밀, 우유 함유"
func (m *AllergenMatcher) AllergensFromAllergyText(text string) []string {
	if IsUnknownAllergy(text) {
		return nil
	}
	return m.AllergensFromTokens(textnorm.Tokenize(text))
}

// AllergensFromTokens maps raw material tokens to canonicals.
// Compound tokens match a keyword of two or more runes at their end, so 탈지대두 yields Soybeans.
func (m *AllergenMatcher) AllergensFromTokens(tokens []string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(canonicals []string) {
		for _, c := range canonicals {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}

	for _, token := range tokens {
		for _, part := range textnorm.Tokenize(token) {
			add(m.matchKeyword(part))
		}
	}
	return out
}

func (m *AllergenMatcher) matchKeyword(token string) []string {
	if c, ok := m.keywords[token]; ok {
		return c
	}
	stripped := token
	for _, suffix := range allergyKeywordSuffixes {
		if s := strings.TrimSuffix(stripped, suffix); s != "" && s != stripped {
			stripped = s
			if c, ok := m.keywords[stripped]; ok {
				return c
			}
		}
	}
	var best string
	for keyword := range m.keywords {
		if textnorm.RuneLen(keyword) < 2 || !strings.HasSuffix(stripped, keyword) {
			continue
		}
		if len(keyword) > len(best) || (len(keyword) == len(best) && keyword < best) {
			best = keyword
		}
	}
	if best != "" {
		return m.keywords[best]
	}
	return nil
}

// ExpandKindQueries returns alternative classification keywords for an ingredient, excluding itself
func (m *AllergenMatcher) ExpandKindQueries(ingredient string) []string {
	key := textnorm.Key(ingredient)
	if key == "" {
		return nil
	}

	var out []string
	seen := map[string]struct{}{key: {}}
	add := func(q string) {
		k := textnorm.Key(q)
		if k == "" {
			return
		}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, q)
	}

	for _, syn := range m.synonyms[key] {
		add(syn)
	}
	if compact := textnorm.Compact(ingredient); compact != ingredient {
		add(compact)
	}
	if stem := strings.TrimSuffix(key, "가루"); stem != key {
		add(stem)
	}
	return out
}

// ResolveForCountry reports whether a canonical allergen is on the obligation list,
// returning the list's own wording for it
func ResolveForCountry(canonical string, obligation []string) (string, bool) {
	for _, o := range obligation {
		if strings.EqualFold(o, canonical) {
			return o, true
		}
	}
	for _, alias := range compatibleNames[canonical] {
		for _, o := range obligation {
			if strings.EqualFold(o, alias) {
				return o, true
			}
		}
	}
	return "", false
}

// FilterByObligation keeps the obligated canonicals in the country's wording, de-duplicated
func FilterByObligation(canonicals, obligation []string) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, c := range canonicals {
		name, ok := ResolveForCountry(c, obligation)
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// IsUnknownAllergy reports whether a registry allergy value carries no information
func IsUnknownAllergy(text string) bool {
	compact := textnorm.Compact(text)
	if compact == "" {
		return true
	}
	if strings.Contains(compact, "알수없") {
		return true
	}
	switch strings.ToLower(compact) {
	case "-", "없음", "n/a", "na", "해당없음":
		return true
	}
	return false
}
