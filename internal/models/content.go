package models

// FaqModel is a question/answer pair shown in the parent app.
// Answer is stored as Markdown and rendered to HTML on read.
type FaqModel struct {
	Base
	Question  string `json:"question" gorm:"type:text;not null"`
	Answer    string `json:"answer"   gorm:"type:longtext;not null"`
	CreatedBy string `json:"created_by" gorm:"index"`
	UpdatedBy string `json:"updated_by"`
}

func (FaqModel) TableName() string { return "faqs" }

// AboutModel is a titled about-us section, Markdown content.
type AboutModel struct {
	Base
	Title     string `json:"title"   gorm:"not null"`
	Content   string `json:"content" gorm:"type:longtext;not null"`
	CreatedBy string `json:"created_by" gorm:"index"`
	UpdatedBy string `json:"updated_by"`
}

func (AboutModel) TableName() string { return "about_sections" }
