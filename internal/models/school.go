package models

// SchoolModel represents a daycare school (tenant).
type SchoolModel struct {
	Base
	Name    string `json:"name"    gorm:"not null"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	AdminID string `json:"admin_id" gorm:"index"`
}

func (SchoolModel) TableName() string { return "schools" }

// RoomModel is a classroom within a school.
type RoomModel struct {
	Base
	SchoolID  string `json:"school_id" gorm:"index;not null"`
	Name      string `json:"name"      gorm:"not null"`
	AgeGroup  string `json:"age_group"`
	Capacity  int    `json:"capacity"`
	TeacherID string `json:"teacher_id" gorm:"index"`
}

func (RoomModel) TableName() string { return "rooms" }

// ChildModel links a child to a parent account and an assigned room.
type ChildModel struct {
	Base
	SchoolID    string `json:"school_id" gorm:"index;not null"`
	ParentID    string `json:"parent_id" gorm:"index;not null"`
	RoomID      string `json:"room_id"   gorm:"index"`
	FirstName   string `json:"first_name" gorm:"not null"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`
	Photo       string `json:"photo"`
	Status      string `json:"status" gorm:"index;not null;default:pending"`
	Allergies   string `json:"allergies"`
	Notes       string `json:"notes"`
}

func (ChildModel) TableName() string { return "children" }
