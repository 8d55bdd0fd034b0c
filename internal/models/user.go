package models

import "time"

type UserRole string

const (
	RoleClient  UserRole = "client"
	RoleManager UserRole = "manager"
	RoleAdmin   UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleClient, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// IsStaff: сотрудники агентства видят все проекты, а не только свои.
func (r UserRole) IsStaff() bool {
	return r == RoleManager || r == RoleAdmin
}

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID       string   `gorm:"uniqueIndex;size:36;not null" json:"user_id"` // внешний uuid профиля
	Email        string   `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name         string   `gorm:"size:255" json:"name"`
	Role         UserRole `gorm:"type:varchar(20);not null" json:"role"`
	Company      string   `gorm:"size:255" json:"company,omitempty"`
	Phone        string   `gorm:"size:50" json:"phone,omitempty"`
	PasswordHash string   `json:"-"`
}

// Activated false, пока приглашённый клиент не задал пароль.
func (u *User) Activated() bool {
	return u.PasswordHash != ""
}
