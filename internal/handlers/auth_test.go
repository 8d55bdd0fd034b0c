package handlers_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"agency-portal/internal/database"
	"agency-portal/internal/models"
	"agency-portal/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_CreatesClientAndSession(t *testing.T) {
	e := newEnv(t)
	c := e.anon(t)

	rr := c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "New@Client.com",
		"password": "longenough",
		"name":     "New Client",
		// роль из запроса игнорируется
		"role": "admin",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	u := decode[models.User](t, rr)
	assert.Equal(t, "new@client.com", u.Email)
	assert.Equal(t, models.RoleClient, u.Role)
	assert.NotContains(t, rr.Body.String(), "password")

	rr = c.do(http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, u.ID, decode[models.User](t, rr).ID)

	rr = e.anon(t).do(http.MethodPost, "/api/auth/register", map[string]string{
		"email": "new@client.com", "password": "longenough", "name": "Again",
	})
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestRegister_Validation(t *testing.T) {
	e := newEnv(t)

	rr := e.anon(t).do(http.MethodPost, "/api/auth/register", map[string]string{
		"email": "not-an-email", "password": "short", "name": "X",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "email")
}

func TestRegister_PasswordLimitIsInBytes(t *testing.T) {
	e := newEnv(t)

	// 40 рун, но 80 байт
	rr := e.anon(t).do(http.MethodPost, "/api/auth/register", map[string]string{
		"email": "long@client.com", "password": strings.Repeat("é", 40), "name": "Long",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), "72 bytes")

	rr = e.anon(t).do(http.MethodPost, "/api/auth/register", map[string]string{
		"email": "long@client.com", "password": strings.Repeat("é", 36), "name": "Long",
	})
	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	testutil.MustUser(t, "jane@client.com", models.RoleClient)

	rr := e.anon(t).do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "jane@client.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = e.anon(t).do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "nobody@client.com", "password": testutil.Password,
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	c := e.anon(t)
	rr = c.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": " JANE@client.com", "password": testutil.Password,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = c.do(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = c.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMe_Unauthorized(t *testing.T) {
	e := newEnv(t)

	rr := e.anon(t).do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rr.Body.String())
}

func TestSessionRoleIsReloadedFromDB(t *testing.T) {
	e := newEnv(t)
	c, u := e.login(t, "pm@agency.com", models.RoleManager)

	rr := c.do(http.MethodGet, "/api/admin/leads", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	require.NoError(t, database.DB.Model(u).Update("role", models.RoleClient).Error)

	rr = c.do(http.MethodGet, "/api/admin/leads", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestInvitationFlow(t *testing.T) {
	e := newEnv(t)
	mgr, _ := e.login(t, "pm@agency.com", models.RoleManager)

	rr := mgr.do(http.MethodPost, "/api/admin/invitations", map[string]string{
		"email": "Invited@Client.com", "name": "Invited", "company": "ACME",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	require.Len(t, e.notifier.invitations, 1)
	link := e.notifier.invitations[0]
	require.True(t, strings.HasPrefix(link, "https://portal.example.com/invite?token="), link)
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	token := parsed.Query().Get("token")

	// до принятия приглашения войти нельзя
	rr = e.anon(t).do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "invited@client.com", "password": "whatever1",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = e.anon(t).do(http.MethodPost, "/api/auth/invitations/accept", map[string]string{
		"token": token + "x", "password": "NewPassw0rd",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = e.anon(t).do(http.MethodPost, "/api/auth/invitations/accept", map[string]string{
		"token": token, "password": strings.Repeat("é", 40),
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	c := e.anon(t)
	rr = c.do(http.MethodPost, "/api/auth/invitations/accept", map[string]string{
		"token": token, "password": "NewPassw0rd", "name": "Invited Person",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	u := decode[models.User](t, rr)
	assert.Equal(t, "Invited Person", u.Name)
	assert.Equal(t, models.RoleClient, u.Role)

	rr = c.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = e.anon(t).do(http.MethodPost, "/api/auth/invitations/accept", map[string]string{
		"token": token, "password": "AnotherPass1",
	})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = mgr.do(http.MethodPost, "/api/admin/invitations", map[string]string{"email": "invited@client.com"})
	assert.Equal(t, http.StatusConflict, rr.Code)
}
