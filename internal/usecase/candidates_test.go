package usecase

import (
	"reflect"
	"strings"
	"testing"
)

func TestPostProcessCandidates(t *testing.T) {
	raw := []string{
		" 반숙 란 ",
		"HACCP 계란",
		"계란",
		"계란",
		"란",
		"가나다라마바사아자차카타파",
		"식품용 달걀",
		"",
	}

	got := PostProcessCandidates(raw)
	want := []string{"반숙란", "계란"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PostProcessCandidates() = %v, want %v", got, want)
	}

	if got := PostProcessCandidates(nil); got == nil || len(got) != 0 {
		t.Errorf("PostProcessCandidates(nil) = %#v, want empty slice", got)
	}
}

func TestPostProcessCandidates_DenylistIsCaseInsensitive(t *testing.T) {
	if got := PostProcessCandidates([]string{"haccp달걀"}); len(got) != 0 {
		t.Errorf("PostProcessCandidates() = %v, want none", got)
	}
}

func TestExtractRelatedTokens(t *testing.T) {
	rawMaterial := "고추장[고춧가루, 소맥분(밀)], 정제수, 물엿, 대두유"

	tests := []struct {
		name       string
		ingredient string
		want       []string
	}{
		{"bracketed components", "고추장", []string{"고추장", "고춧가루", "소맥분", "밀"}},
		{"plain entry", "물엿", []string{"물엿"}},
		{"absent", "우유", nil},
		{"blank ingredient", " ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractRelatedTokens(tt.ingredient, rawMaterial)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractRelatedTokens(%q) = %v, want %v", tt.ingredient, got, tt.want)
			}
		})
	}

	if got := ExtractRelatedTokens("고추장", "  "); got != nil {
		t.Errorf("ExtractRelatedTokens() on blank raw material = %v, want nil", got)
	}
}

func TestConstrainToRawMaterial(t *testing.T) {
	got := ConstrainToRawMaterial([]string{"대두", "우유", "대두", " 소맥 분", ""}, "탈지대두, 소맥분")
	want := []string{"대두", "소맥 분"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ConstrainToRawMaterial() = %v, want %v", got, want)
	}
}

func TestPrompts(t *testing.T) {
	p := productNamePrompt("달걀")
	if !strings.Contains(p, "재료: 달걀") || !strings.Contains(p, "JSON") {
		t.Errorf("productNamePrompt() = %q", p)
	}

	r := relatedTokensPrompt("고추장", "고추장[고춧가루]")
	if !strings.Contains(r, "원재료: 고추장[고춧가루]") {
		t.Errorf("relatedTokensPrompt() = %q", r)
	}
}
