package feed

import (
	"testing"

	"github.com/littlenest/core/internal/models"
)

func TestValidPostType(t *testing.T) {
	for _, pt := range []string{
		models.PostTypeActivity, models.PostTypeObservation,
		models.PostTypeMilestone, models.PostTypeGeneral,
	} {
		if !validPostType(pt) {
			t.Errorf("validPostType(%q) = false", pt)
		}
	}
	for _, pt := range []string{"", "Activity", "story", "ACTIVITY"} {
		if validPostType(pt) {
			t.Errorf("validPostType(%q) = true", pt)
		}
	}
}

func TestValidVisibility(t *testing.T) {
	for _, v := range []string{
		models.VisibilityPublic, models.VisibilityParentsOnly, models.VisibilityTeachersOnly,
	} {
		if !validVisibility(v) {
			t.Errorf("validVisibility(%q) = false", v)
		}
	}
	for _, v := range []string{"", "private", "parents only", "Public"} {
		if validVisibility(v) {
			t.Errorf("validVisibility(%q) = true", v)
		}
	}
}
