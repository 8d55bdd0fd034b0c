// Package testutil собирает окружение для тестов: sqlite в памяти вместо postgres.
package testutil

import (
	"fmt"
	"testing"

	"agency-portal/internal/database"
	"agency-portal/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

// NewDB подменяет database.DB на чистую базу в памяти до конца теста.
func NewDB(t *testing.T) {
	t.Helper()

	prev := database.DB
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	require.NoError(t, database.Open(sqlite.Open(dsn)))

	sqlDB, err := database.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
		database.DB = prev
	})
}

// MustUser создаёт пользователя с паролем "Passw0rd!".
func MustUser(t *testing.T, email string, role models.UserRole) *models.User {
	t.Helper()
	u, err := database.CreateUser(email, "Test "+string(role), Password, role)
	require.NoError(t, err)
	return u
}

const Password = "Passw0rd!"

// MustProject создаёт проект с фазами в указанных статусах.
func MustProject(t *testing.T, owner *models.User, name string, phases ...models.PhaseStatus) *models.Project {
	t.Helper()
	p := models.Project{
		UserID:      owner.ID,
		Name:        name,
		ServiceType: models.ServiceWebDesign,
		PackageTier: models.TierStarter,
		Status:      models.StatusInProgress,
	}
	for i, st := range phases {
		p.Phases = append(p.Phases, models.ProjectPhase{
			Name:   fmt.Sprintf("Phase %d", i+1),
			Order:  i + 1,
			Status: st,
		})
	}
	require.NoError(t, database.DB.Create(&p).Error)
	return &p
}
