package school

import (
	"testing"

	"github.com/littlenest/core/internal/models"
)

func TestValidStatus(t *testing.T) {
	for _, s := range []string{models.StatusActive, models.StatusInactive, models.StatusPending} {
		if !validStatus(s) {
			t.Errorf("validStatus(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "Active", "ACTIVE", "deleted", "suspended"} {
		if validStatus(s) {
			t.Errorf("validStatus(%q) = true, want false", s)
		}
	}
}
