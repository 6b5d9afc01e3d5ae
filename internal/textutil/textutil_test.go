package textutil

import (
	"math"
	"testing"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Café Müller", "Cafe Muller"},
		{"Straße", "Strasse"},
		{"Łukasz Øster", "Lukasz Oster"},
		{`M{\"u}ller`, "M{u}ller"},
		{`Erd{\H{o}}s`, "Erd{{o}}s"},
		{`\emph{Deep} Learning`, "{Deep} Learning"},
		{`Smith \& Sons`, "Smith & Sons"},
		{"plain ascii", "plain ascii"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Fold(tt.in); got != tt.want {
				t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeText(t *testing.T) {
	got := NormalizeText("  {Deep}   Learning\n for  {M\\\"u}ller  ")
	want := "deep learning for muller"
	if got != want {
		t.Errorf("NormalizeText() = %q, want %q", got, want)
	}
}

func TestSignature(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		surname string
		want    string
	}{
		{"title and surname", "Deep Learning!", "Smith", "deeplearning|smith"},
		{"braces and accents", "{D}eep Léarning", "Sm{\\'i}th", "deeplearning|smith"},
		{"no surname", "Deep Learning", "", "deeplearning"},
		{"no title", "", "Smith", ""},
		{"punctuation only title", "?!", "Smith", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Signature(tt.title, tt.surname); got != tt.want {
				t.Errorf("Signature(%q, %q) = %q, want %q", tt.title, tt.surname, got, tt.want)
			}
		})
	}
}

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1.0},
		{"abc", "", 0.0},
		{"abc", "abc", 1.0},
		{"abc", "xyz", 0.0},
		{"abcd", "bcde", 0.75},
		{"café", "cafe", 0.75},
		{"deeplearning|smith", "deeplearning|smith", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			if got := Ratio(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Ratio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRatio_RecursesAroundLongestMatch(t *testing.T) {
	// "Xcd" matches first, then "ab" to its left.
	got := Ratio("abXcd", "abYXcd")
	want := 2.0 * 5 / 11
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Ratio() = %v, want %v", got, want)
	}
}

func TestTitleSimilarity(t *testing.T) {
	if got := TitleSimilarity("Deep Learning", "{D}eep  learning"); got != 1.0 {
		t.Errorf("TitleSimilarity of equivalent titles = %v, want 1", got)
	}
	got := TitleSimilarity("Introduction", "Introduction to Statistical Learning Theory")
	if got >= 0.85 {
		t.Errorf("TitleSimilarity of generic title = %v, want < 0.85", got)
	}
}
