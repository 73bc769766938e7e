package content

import (
	"strings"
	"testing"
)

func TestRenderMarkdown(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "heading and emphasis",
			src:  "# Drop-off\n\nArrive **before** 9am.",
			want: []string{"<h1>Drop-off</h1>", "<strong>before</strong>"},
		},
		{
			name: "gfm table",
			src:  "| Day | Meal |\n| --- | --- |\n| Mon | Pasta |",
			want: []string{"<table>", "<td>Pasta</td>"},
		},
		{
			name: "raw html escaped",
			src:  "<script>alert(1)</script>",
			want: []string{"&lt;script&gt;"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderMarkdown(tt.src)
			for _, frag := range tt.want {
				if !strings.Contains(got, frag) {
					t.Errorf("RenderMarkdown(%q) = %q, missing %q", tt.src, got, frag)
				}
			}
			if strings.Contains(got, "<script>") {
				t.Errorf("raw html leaked through: %q", got)
			}
		})
	}
}
