package pagination

import "testing"

func TestClamp(t *testing.T) {
	cases := []struct {
		name       string
		page, size int
		wantPage   int
		wantSize   int
	}{
		{"defaults pass through", 1, 10, 1, 10},
		{"zero page", 0, 10, 1, 10},
		{"negative page", -3, 10, 1, 10},
		{"zero size", 2, 0, 2, DefaultSize},
		{"oversized", 1, 5000, 1, MaxSize},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := Clamp(tc.page, tc.size)
			if q.Page != tc.wantPage || q.Size != tc.wantSize {
				t.Errorf("Clamp(%d, %d) = {%d %d}, want {%d %d}",
					tc.page, tc.size, q.Page, q.Size, tc.wantPage, tc.wantSize)
			}
		})
	}
}

func TestMeta(t *testing.T) {
	m := Meta(25, Query{Page: 2, Size: 10})
	if m.TotalPage != 3 {
		t.Errorf("TotalPage = %d, want 3", m.TotalPage)
	}
	if !m.HasNextPage {
		t.Error("expected HasNextPage on page 2 of 3")
	}

	m = Meta(25, Query{Page: 3, Size: 10})
	if m.HasNextPage {
		t.Error("expected no next page on last page")
	}

	m = Meta(0, Query{Page: 1, Size: 10})
	if m.TotalPage != 0 || m.HasNextPage {
		t.Errorf("empty set: got %+v", m)
	}
}
