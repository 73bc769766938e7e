package middleware

import "testing"

func TestNormalizeToken(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "abc.def.ghi", "abc.def.ghi"},
		{"bearer", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer lowercase", "bearer abc", "abc"},
		{"padded", "  Bearer  abc  ", "abc"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"bearer no token", "Bearer ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeToken(tc.in); got != tc.want {
				t.Errorf("NormalizeToken(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
