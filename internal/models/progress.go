package models

import "time"

// Progress report cadences.
const (
	ReportTypeDaily     = "daily"
	ReportTypeWeekly    = "weekly"
	ReportTypeMonthly   = "monthly"
	ReportTypeQuarterly = "quarterly"
)

// Meal is one meal entry on a progress report.
type Meal struct {
	Type        string `json:"type"` // breakfast | lunch | afternoon_snack | dinner
	Items       string `json:"items,omitempty"`
	Time        string `json:"time,omitempty"`
	AmountEaten string `json:"amount_eaten,omitempty"` // all | most | some | little | none
}

// MoodSummary summarizes the child's overall mood for the report period.
type MoodSummary struct {
	Overall string `json:"overall"`
	Notes   string `json:"notes,omitempty"`
}

// ProgressActivity is one activity entry with participation details.
type ProgressActivity struct {
	Name               string   `json:"name"`
	Category           string   `json:"category,omitempty"`
	Description        string   `json:"description,omitempty"`
	Participation      string   `json:"participation,omitempty"` // active | moderate | passive | reluctant
	SkillsDemonstrated []string `json:"skills_demonstrated,omitempty"`
	Time               string   `json:"time,omitempty"`
}

// Observation is a learning observation tied to a developmental domain.
type Observation struct {
	Domain           string   `json:"domain,omitempty"`
	Skill            string   `json:"skill,omitempty"`
	Indicator        string   `json:"indicator,omitempty"`
	Observation      string   `json:"observation,omitempty"`
	Photos           []string `json:"photos,omitempty"`
	DevelopmentLevel string   `json:"development_level,omitempty"` // emerging | developing | secure | advanced
}

// SleepSession is one nap entry.
type SleepSession struct {
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Duration  int    `json:"duration,omitempty"` // minutes
	Quality   string `json:"quality,omitempty"`  // good | restless | poor
}

// DiaperChange is one diaper change entry.
type DiaperChange struct {
	Time  string `json:"time,omitempty"`
	Type  string `json:"type,omitempty"` // wet | soiled | dry
	Notes string `json:"notes,omitempty"`
}

// Attendance summarizes presence for the report period.
type Attendance struct {
	Status       string `json:"status"` // present | absent | late | early_pickup
	CheckInTime  string `json:"check_in_time,omitempty"`
	CheckOutTime string `json:"check_out_time,omitempty"`
}

// ProgressPhoto is a captioned photo attached to a progress report.
type ProgressPhoto struct {
	URL       string     `json:"url"`
	Caption   string     `json:"caption,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Activity  string     `json:"activity,omitempty"`
}

// ProgressReportModel is the rich multi-section progress report a teacher
// prepares for a child, reviewed by the parent.
type ProgressReportModel struct {
	Base
	ChildID    string `json:"child_id"   gorm:"index:idx_progress_child_date;not null"`
	ParentID   string `json:"parent_id"  gorm:"index;not null"`
	TeacherID  string `json:"teacher_id" gorm:"index;not null"`
	RoomID     string `json:"room_id"    gorm:"index"`
	ReportDate string `json:"report_date" gorm:"index:idx_progress_child_date;not null"` // YYYY-MM-DD
	ReportType string `json:"report_type" gorm:"not null;default:daily"`

	Meals         []Meal             `json:"meals"          gorm:"type:longtext;serializer:json"`
	Mood          MoodSummary        `json:"mood"           gorm:"type:text;serializer:json"`
	Activities    []ProgressActivity `json:"activities"     gorm:"type:longtext;serializer:json"`
	Observations  []Observation      `json:"observations"   gorm:"type:longtext;serializer:json"`
	SleepSessions []SleepSession     `json:"sleep_sessions" gorm:"type:longtext;serializer:json"`
	DiaperChanges []DiaperChange     `json:"diaper_changes" gorm:"type:longtext;serializer:json"`
	Attendance    Attendance         `json:"attendance"     gorm:"type:text;serializer:json"`
	Photos        []ProgressPhoto    `json:"photos"         gorm:"type:longtext;serializer:json"`

	TeacherNotes string `json:"teacher_notes" gorm:"type:text"`
	ParentNotes  string `json:"parent_notes"  gorm:"type:text"`

	IsCompleted    bool       `json:"is_completed"  gorm:"not null;default:false"`
	ParentViewed   bool       `json:"parent_viewed" gorm:"not null;default:false"`
	ParentViewedAt *time.Time `json:"parent_viewed_at"`
}

func (ProgressReportModel) TableName() string { return "progress_reports" }
