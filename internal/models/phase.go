package models

import "time"

type PhaseStatus string

const (
	PhasePending    PhaseStatus = PhaseStatus(StatusPending)
	PhaseInProgress PhaseStatus = PhaseStatus(StatusInProgress)
	PhaseReview     PhaseStatus = PhaseStatus(StatusReview)
	PhaseCompleted  PhaseStatus = PhaseStatus(StatusCompleted)
)

func (s PhaseStatus) Valid() bool {
	switch s {
	case PhasePending, PhaseInProgress, PhaseReview, PhaseCompleted:
		return true
	}
	return false
}

type ProjectPhase struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectID uint        `gorm:"index;not null" json:"project_id"`
	Name      string      `gorm:"size:255;not null" json:"name"`
	Order     int         `gorm:"column:sort_order;not null" json:"order"`
	Status    PhaseStatus `gorm:"type:varchar(20);not null" json:"status"`
}

// PhaseOrder задаёт порядок выдачи фаз во всех запросах.
const PhaseOrder = "sort_order asc, id asc"
