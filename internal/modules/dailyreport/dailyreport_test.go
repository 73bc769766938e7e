package dailyreport

import (
	"testing"

	"github.com/littlenest/core/internal/models"
)

func TestValidMood(t *testing.T) {
	for _, m := range models.DailyReportMoods {
		if !validMood(m) {
			t.Errorf("validMood(%q) = false", m)
		}
	}
	// moods are compared exactly, including case
	for _, m := range []string{"", "happy", "HAPPY", "Sleepy"} {
		if validMood(m) {
			t.Errorf("validMood(%q) = true", m)
		}
	}
}

func TestToday(t *testing.T) {
	got := today()
	if len(got) != 10 || got[4] != '-' || got[7] != '-' {
		t.Errorf("today() = %q, want YYYY-MM-DD", got)
	}
}
