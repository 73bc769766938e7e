package progress

import (
	"testing"
	"time"
)

func TestValidReportType(t *testing.T) {
	for _, rt := range []string{"daily", "weekly", "monthly", "quarterly"} {
		if !validReportType(rt) {
			t.Errorf("validReportType(%q) = false", rt)
		}
	}
	for _, rt := range []string{"", "yearly", "Daily"} {
		if validReportType(rt) {
			t.Errorf("validReportType(%q) = true", rt)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	if got := normalizeDate("2026-01-05"); got != "2026-01-05" {
		t.Errorf("normalizeDate(valid) = %q", got)
	}
	if got := normalizeDate(""); got != time.Now().Format("2006-01-02") {
		t.Errorf("normalizeDate(empty) = %q, want today", got)
	}
	if got := normalizeDate("05/01/2026"); got != "" {
		t.Errorf("normalizeDate(bad format) = %q, want empty", got)
	}
}
