package models

import "time"

type ProjectStatus string

const (
	StatusPending    ProjectStatus = "pending"
	StatusApproved   ProjectStatus = "approved"
	StatusInProgress ProjectStatus = "in-progress"
	StatusReview     ProjectStatus = "review"
	StatusCompleted  ProjectStatus = "completed"
	StatusOnHold     ProjectStatus = "on-hold"
	StatusCancelled  ProjectStatus = "cancelled"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusInProgress, StatusReview,
		StatusCompleted, StatusOnHold, StatusCancelled:
		return true
	}
	return false
}

type ServiceType string

const (
	ServiceWebDesign   ServiceType = "web-design"
	ServiceWebDev      ServiceType = "web-development"
	ServiceEcommerce   ServiceType = "ecommerce"
	ServiceSEO         ServiceType = "seo"
	ServiceBranding    ServiceType = "branding"
	ServiceMaintenance ServiceType = "maintenance"
)

func (s ServiceType) Valid() bool {
	switch s {
	case ServiceWebDesign, ServiceWebDev, ServiceEcommerce, ServiceSEO,
		ServiceBranding, ServiceMaintenance:
		return true
	}
	return false
}

type PackageTier string

const (
	TierStarter      PackageTier = "starter"
	TierProfessional PackageTier = "professional"
	TierEnterprise   PackageTier = "enterprise"
)

func (t PackageTier) Valid() bool {
	switch t {
	case TierStarter, TierProfessional, TierEnterprise:
		return true
	}
	return false
}

type Project struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// владелец; связь называется User, иначе GORM примет User.UserID (uuid) за has-one
	UserID uint  `gorm:"index;not null" json:"user_id"`
	User   *User `json:"owner,omitempty"`

	Name        string        `gorm:"size:255;not null" json:"name"`
	ServiceType ServiceType   `gorm:"type:varchar(50);not null" json:"service_type"`
	PackageTier PackageTier   `gorm:"type:varchar(50);not null" json:"package_tier"`
	Status      ProjectStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Description string        `gorm:"type:text" json:"description,omitempty"`

	Phases   []ProjectPhase `gorm:"constraint:OnDelete:CASCADE" json:"phases"`
	Progress int            `gorm:"-" json:"progress"`
}

// ProgressPercent = завершённые фазы / все фазы, округление вниз.
func ProgressPercent(phases []ProjectPhase) int {
	if len(phases) == 0 {
		return 0
	}
	done := 0
	for _, ph := range phases {
		if ph.Status == PhaseCompleted {
			done++
		}
	}
	return done * 100 / len(phases)
}

// RefreshProgress пересчитывает Progress по загруженным фазам.
func (p *Project) RefreshProgress() {
	p.Progress = ProgressPercent(p.Phases)
}
