package htmlsanitize_test

import (
	"testing"

	"github.com/dalemusser/bloodlink/internal/app/system/htmlsanitize"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "City Blood Bank", "City Blood Bank"},
		{"trims", "  Main St  ", "Main St"},
		{"ampersand survives", "Red Cross & Co", "Red Cross & Co"},
		{"strips tags", "<b>Central</b> Bank", "Central Bank"},
		{"drops script", "Bank<script>alert('x')</script>", "Bank"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.PlainText(tt.input); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
