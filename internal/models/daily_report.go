package models

// Mood values accepted on a daily report.
var DailyReportMoods = []string{"Happy", "Sad", "Angry", "Excited", "Calm", "Neutral"}

// CheckEvent is a check-in or check-out entry on a daily report.
type CheckEvent struct {
	Time   string `json:"time"`
	Status bool   `json:"status"`
}

// Temperature is a recorded temperature with its unit ("C" or "F").
type Temperature struct {
	Value *float64 `json:"value"`
	Unit  string   `json:"unit"`
}

// DailyReportModel is the one-per-child-per-day report teachers fill in
// section by section over the course of the day.
type DailyReportModel struct {
	Base
	ChildID   string `json:"child_id"   gorm:"uniqueIndex:idx_report_child_date;not null"`
	RoomID    string `json:"room_id"    gorm:"index;not null"`
	TeacherID string `json:"teacher_id" gorm:"index;not null"`
	Date      string `json:"date"       gorm:"uniqueIndex:idx_report_child_date;not null"` // YYYY-MM-DD

	CheckIn  CheckEvent `json:"check_in"  gorm:"embedded;embeddedPrefix:check_in_"`
	CheckOut CheckEvent `json:"check_out" gorm:"embedded;embeddedPrefix:check_out_"`

	Activities     string `json:"activities"`
	ActivitiesTime string `json:"activities_time"`

	Health            string `json:"health"`
	HealthCustomField string `json:"health_custom_field"`
	HealthTime        string `json:"health_time"`

	Temperature     Temperature `json:"temperature" gorm:"embedded;embeddedPrefix:temperature_"`
	TemperatureTime string      `json:"temperature_time"`

	Mood     string `json:"mood"`
	MoodTime string `json:"mood_time"`

	Supplies     string `json:"supplies"`
	SuppliesTime string `json:"supplies_time"`

	Naps     string `json:"naps"`
	NapsTime string `json:"naps_time"`

	Notes     string `json:"notes"`
	NotesTime string `json:"notes_time"`

	NameToFace     string `json:"name_to_face"`
	NameToFaceTime string `json:"name_to_face_time"`

	MoveRooms     string `json:"move_rooms"`
	MoveRoomsTime string `json:"move_rooms_time"`

	CustomField string `json:"custom_field"`
	IsSubmitted bool   `json:"is_submitted" gorm:"index;not null;default:false"`
}

func (DailyReportModel) TableName() string { return "daily_reports" }
