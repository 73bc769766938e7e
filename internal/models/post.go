package models

import "time"

// Post types for the activity feed.
const (
	PostTypeActivity    = "activity"
	PostTypeObservation = "observation"
	PostTypeMilestone   = "milestone"
	PostTypeGeneral     = "general"
)

// Post visibility levels.
const (
	VisibilityPublic       = "public"
	VisibilityParentsOnly  = "parents_only"
	VisibilityTeachersOnly = "teachers_only"
)

// AgeGroup describes the intended age range of an activity.
type AgeGroup struct {
	Min         int    `json:"min,omitempty"`
	Max         int    `json:"max,omitempty"`
	Description string `json:"description,omitempty"`
}

// ActivityDetails captures the curriculum context of an activity post.
type ActivityDetails struct {
	ActivityName string   `json:"activity_name,omitempty"`
	Domain       string   `json:"domain,omitempty"`
	SkillArea    string   `json:"skill_area,omitempty"`
	AgeGroup     AgeGroup `json:"age_group,omitempty"`
	Indicators   []string `json:"indicators,omitempty"`
	Materials    []string `json:"materials,omitempty"`
}

// PostModel is a teacher-authored feed post about a child.
type PostModel struct {
	Base
	ChildID         string          `json:"child_id"   gorm:"index;not null"`
	TeacherID       string          `json:"teacher_id" gorm:"index;not null"`
	RoomID          string          `json:"room_id"    gorm:"index;not null"`
	PostType        string          `json:"post_type"  gorm:"index;not null;default:activity"`
	Title           string          `json:"title"      gorm:"not null"`
	Description     string          `json:"description" gorm:"type:longtext;not null"`
	ActivityDetails ActivityDetails `json:"activity_details" gorm:"type:longtext;serializer:json"`
	Media           []Media         `json:"media"      gorm:"type:longtext;serializer:json"`
	Tags            []string        `json:"tags"       gorm:"type:longtext;serializer:json"`
	Visibility      string          `json:"visibility" gorm:"not null;default:parents_only"`
	IsArchived      bool            `json:"is_archived" gorm:"index;not null;default:false"`

	Likes    []PostLike    `json:"likes,omitempty"    gorm:"foreignKey:PostID"`
	Comments []PostComment `json:"comments,omitempty" gorm:"foreignKey:PostID"`
}

func (PostModel) TableName() string { return "posts" }

// PostLike records one user's like on a post.
type PostLike struct {
	Base
	PostID  string    `json:"post_id" gorm:"uniqueIndex:idx_post_like;not null"`
	UserID  string    `json:"user_id" gorm:"uniqueIndex:idx_post_like;not null"`
	LikedAt time.Time `json:"liked_at"`
}

func (PostLike) TableName() string { return "post_likes" }

// PostComment is a comment on a feed post.
type PostComment struct {
	Base
	PostID  string        `json:"post_id" gorm:"index;not null"`
	UserID  string        `json:"user_id" gorm:"index;not null"`
	Content string        `json:"content" gorm:"type:text;not null"`
	Likes   []CommentLike `json:"likes,omitempty" gorm:"foreignKey:CommentID"`
}

func (PostComment) TableName() string { return "post_comments" }

// CommentLike records one user's like on a comment.
type CommentLike struct {
	Base
	CommentID string    `json:"comment_id" gorm:"uniqueIndex:idx_comment_like;not null"`
	UserID    string    `json:"user_id"    gorm:"uniqueIndex:idx_comment_like;not null"`
	LikedAt   time.Time `json:"liked_at"`
}

func (CommentLike) TableName() string { return "comment_likes" }
