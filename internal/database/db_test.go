package database_test

import (
	"testing"

	"agency-portal/internal/database"
	"agency-portal/internal/models"
	"agency-portal/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCreateUser_HashesPassword(t *testing.T) {
	testutil.NewDB(t)

	u, err := database.CreateUser("jane@client.test", "Jane", "secret-pass", models.RoleClient)
	require.NoError(t, err)

	assert.NotEmpty(t, u.UserID)
	assert.True(t, u.Activated())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret-pass")))

	invited, err := database.CreateUser("invitee@client.test", "", "", models.RoleClient)
	require.NoError(t, err)
	assert.False(t, invited.Activated())

	_, err = database.CreateUser("jane@client.test", "Dup", "x", models.RoleClient)
	assert.Error(t, err, "email is unique")
}

func TestCreateDefaultAdmin_Idempotent(t *testing.T) {
	testutil.NewDB(t)
	t.Setenv("ADMIN_EMAIL", "root@agency.test")

	database.CreateDefaultAdmin()
	database.CreateDefaultAdmin()

	var admins []models.User
	require.NoError(t, database.DB.Where("role = ?", models.RoleAdmin).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, "root@agency.test", admins[0].Email)
}

func TestSeedDemoUsers_SkipsExisting(t *testing.T) {
	testutil.NewDB(t)

	first := database.SeedDemoUsers()
	assert.Len(t, first, 2)
	assert.Empty(t, database.SeedDemoUsers())
}

func TestCreateAuditLog(t *testing.T) {
	testutil.NewDB(t)
	u := testutil.MustUser(t, "admin@agency.test", models.RoleAdmin)

	database.CreateAuditLog(u.ID, "project", 7, "create", "Created project: Site")
	database.CreateAuditLog(0, "project", 7, "create", "ignored without an actor")

	var logs []models.AuditLog
	require.NoError(t, database.DB.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "create", logs[0].Action)
	assert.Equal(t, uint(7), logs[0].EntityID)
}
