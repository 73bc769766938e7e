package realtime

import "testing"

func TestFirstPayloadCoercion(t *testing.T) {
	cases := []struct {
		name string
		args []any
		key  string
		want string
	}{
		{"map", []any{map[string]interface{}{"to": "bob"}}, "to", "bob"},
		{"json string", []any{`{"to":"bob"}`}, "to", "bob"},
		{"json bytes", []any{[]byte(`{"to":"bob"}`)}, "to", "bob"},
		{"struct fallback", []any{struct {
			To string `json:"to"`
		}{To: "bob"}}, "to", "bob"},
		{"no args", nil, "to", ""},
		{"nil arg", []any{nil}, "to", ""},
		{"bad json", []any{"{"}, "to", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := firstPayload(tc.args...)
			if got == nil {
				t.Fatal("firstPayload returned nil map")
			}
			if s := strField(got, tc.key); s != tc.want {
				t.Fatalf("strField(%q) = %q, want %q", tc.key, s, tc.want)
			}
		})
	}
}

func TestFieldHelpers(t *testing.T) {
	payload := map[string]interface{}{
		"name":  "  padded  ",
		"count": float64(7),
		"flag":  true,
		"meta":  map[string]interface{}{"k": "v"},
	}

	if got := strField(payload, "name"); got != "padded" {
		t.Fatalf("strField = %q", got)
	}
	if got := strField(payload, "count"); got != "" {
		t.Fatalf("strField on number = %q, want empty", got)
	}
	if got := intField(payload, "count"); got != 7 {
		t.Fatalf("intField = %d", got)
	}
	if got := intField(payload, "missing"); got != 0 {
		t.Fatalf("intField missing = %d", got)
	}
	if v, ok := boolField(payload, "flag"); !ok || !v {
		t.Fatalf("boolField = %v, %v", v, ok)
	}
	if _, ok := boolField(payload, "name"); ok {
		t.Fatal("boolField should reject non-bool")
	}
	if m := mapField(payload, "meta"); m["k"] != "v" {
		t.Fatalf("mapField = %v", m)
	}
	if m := mapField(payload, "missing"); m == nil || len(m) != 0 {
		t.Fatalf("mapField missing = %v, want empty map", m)
	}
}
