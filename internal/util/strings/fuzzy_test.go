package strings

import (
	"testing"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"Point", "Pont", 1},
		{"Vector3", "Vector2", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			if got := Levenshtein(tt.a, tt.b); got != tt.expected {
				t.Errorf("Levenshtein(%q, %q) = %d; want %d", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestSimilar(t *testing.T) {
	candidates := []string{"Point", "Player", "Vector3", "boolean"}

	tests := []struct {
		name     string
		target   string
		limit    int
		expected []string
	}{
		{"one typo", "Pont", 3, []string{"Point"}},
		{"case insensitive", "vector3", 3, []string{"Vector3"}},
		{"too far", "Quaternion", 3, []string{}},
		{"exact name is not a suggestion", "Point", 3, []string{}},
		{"short names need a closer match", "ab", 3, []string{}},
		{"limit", "Bool", 1, []string{"boolean"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similar(tt.target, candidates, tt.limit)
			if len(got) != len(tt.expected) {
				t.Fatalf("Similar(%q) = %v; want %v", tt.target, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("Similar(%q)[%d] = %q; want %q", tt.target, i, got[i], tt.expected[i])
				}
			}
		})
	}
}
