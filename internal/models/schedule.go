package models

import "time"

// ScheduleCategories are the accepted activity categories for daily schedules.
var ScheduleCategories = []string{
	"Creative Art",
	"Fine Motor Skills",
	"Language And Literacy",
	"Loose Part",
	"Music And Movement",
	"Science, Nature And Math",
	"Sensory Bin",
	"Physical Development",
	"Social Skills",
}

// ScheduleActivity is a single scheduled activity slot.
type ScheduleActivity struct {
	Time               string     `json:"time,omitempty"` // "08:00 AM"
	Category           string     `json:"category"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	Materials          []string   `json:"materials,omitempty"`
	Duration           int        `json:"duration,omitempty"` // minutes
	LearningObjectives []string   `json:"learning_objectives,omitempty"`
	AgeGroup           AgeGroup   `json:"age_group,omitempty"`
	IsCompleted        bool       `json:"is_completed"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	Notes              string     `json:"notes,omitempty"`
}

// ScheduleModel holds one room's plan for one date.
type ScheduleModel struct {
	Base
	RoomID     string             `json:"room_id" gorm:"uniqueIndex:idx_schedule_room_date;not null"`
	Date       string             `json:"date"    gorm:"uniqueIndex:idx_schedule_room_date;not null"` // YYYY-MM-DD
	Activities []ScheduleActivity `json:"activities" gorm:"type:longtext;serializer:json"`
	CreatedBy  string             `json:"created_by" gorm:"index;not null"`
	IsActive   bool               `json:"is_active"  gorm:"not null;default:true"`
}

func (ScheduleModel) TableName() string { return "daily_schedules" }
