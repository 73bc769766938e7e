package schedule

import (
	"testing"
	"time"

	"github.com/littlenest/core/internal/models"
)

func TestValidCategory(t *testing.T) {
	for _, cat := range models.ScheduleCategories {
		if !validCategory(cat) {
			t.Errorf("validCategory(%q) = false, want true", cat)
		}
	}
	for _, cat := range []string{"", "creative art", "Gym", "Creative  Art"} {
		if validCategory(cat) {
			t.Errorf("validCategory(%q) = true, want false", cat)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	if got := normalizeDate("2026-03-14"); got != "2026-03-14" {
		t.Errorf("normalizeDate(valid) = %q", got)
	}
	if got := normalizeDate(" 2026-03-14 "); got != "2026-03-14" {
		t.Errorf("normalizeDate(padded) = %q", got)
	}
	if got := normalizeDate(""); got != time.Now().Format("2006-01-02") {
		t.Errorf("normalizeDate(empty) = %q, want today", got)
	}
	for _, raw := range []string{"14-03-2026", "2026/03/14", "tomorrow", "2026-13-01"} {
		if got := normalizeDate(raw); got != "" {
			t.Errorf("normalizeDate(%q) = %q, want empty", raw, got)
		}
	}
}

func TestToViewCountsCompleted(t *testing.T) {
	view := toView(models.ScheduleModel{
		Activities: []models.ScheduleActivity{
			{Title: "Finger painting", Category: "Creative Art", IsCompleted: true},
			{Title: "Story time", Category: "Language And Literacy"},
			{Title: "Obstacle course", Category: "Physical Development", IsCompleted: true},
		},
	})
	if view.TotalActivities != 3 {
		t.Errorf("TotalActivities = %d, want 3", view.TotalActivities)
	}
	if view.CompletedActivities != 2 {
		t.Errorf("CompletedActivities = %d, want 2", view.CompletedActivities)
	}
}

func TestTemplatesUseValidCategories(t *testing.T) {
	templates := Templates()
	for _, group := range []string{"infant", "toddler", "preschool"} {
		activities, ok := templates[group]
		if !ok {
			t.Errorf("missing template for %q", group)
			continue
		}
		if len(activities) == 0 {
			t.Errorf("template %q is empty", group)
		}
		for _, a := range activities {
			if !validCategory(a.Category) {
				t.Errorf("template %q activity %q has invalid category %q", group, a.Title, a.Category)
			}
			if a.Title == "" {
				t.Errorf("template %q has untitled activity", group)
			}
		}
	}
}
