package irgen

import "testing"

func TestNearestName(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		candidates []string
		want       string
	}{
		{"one edit", "lenght", []string{"length", "width"}, "length"},
		{"exact is skipped", "main", []string{"main", "mainn"}, "mainn"},
		{"too far", "x", []string{"completely_different"}, ""},
		{"ties resolve alphabetically", "ab", []string{"ac", "aa"}, "aa"},
		{"empty corpus", "anything", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nearestName(tt.input, tt.candidates); got != tt.want {
				t.Errorf("nearestName(%q, %v) = %q, want %q", tt.input, tt.candidates, got, tt.want)
			}
		})
	}
}
