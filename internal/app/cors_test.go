package app

import "testing"

func TestExtractOriginHost(t *testing.T) {
	tests := []struct{ origin, want string }{
		{"https://app.littlenest.io", "app.littlenest.io"},
		{"http://localhost:3000", "localhost:3000"},
		{"app.littlenest.io", "app.littlenest.io"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := extractOriginHost(tt.origin); got != tt.want {
			t.Errorf("extractOriginHost(%q) = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

func TestMatchOriginPattern(t *testing.T) {
	tests := []struct {
		pattern, host string
		want          bool
	}{
		{"app.littlenest.io", "app.littlenest.io", true},
		{"app.littlenest.io", "evil.littlenest.io", false},
		{"*.littlenest.io", "app.littlenest.io", true},
		{"*.littlenest.io", "littlenest.io.evil.com", false},
		{"localhost:*", "localhost:3000", true},
		{"localhost:*", "localhost.evil.com:3000", false},
	}
	for _, tt := range tests {
		if got := matchOriginPattern(tt.pattern, tt.host); got != tt.want {
			t.Errorf("matchOriginPattern(%q, %q) = %v, want %v", tt.pattern, tt.host, got, tt.want)
		}
	}
}
