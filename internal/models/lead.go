package models

import "time"

type LeadStatus string

const (
	LeadNew       LeadStatus = "new"
	LeadContacted LeadStatus = "contacted"
	LeadConverted LeadStatus = "converted"
	LeadArchived  LeadStatus = "archived"
)

func (s LeadStatus) Valid() bool {
	switch s {
	case LeadNew, LeadContacted, LeadConverted, LeadArchived:
		return true
	}
	return false
}

const (
	SourceContactForm = "contact-form"
)

// ContactSubmission: заявка с сайта: контактная форма или мастер-опросник.
type ContactSubmission struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name    string     `gorm:"size:255;not null" json:"name"`
	Email   string     `gorm:"size:255;not null;index" json:"email"`
	Phone   string     `gorm:"size:50" json:"phone,omitempty"`
	Company string     `gorm:"size:255" json:"company,omitempty"`
	Message string     `gorm:"type:text" json:"message,omitempty"`
	Status  LeadStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Source  string     `gorm:"size:50;not null" json:"source"`

	FormID  string         `gorm:"size:64" json:"form_id,omitempty"`
	Locale  string         `gorm:"size:16" json:"locale,omitempty"`
	Answers map[string]any `gorm:"type:text;serializer:json" json:"answers,omitempty"`
}
