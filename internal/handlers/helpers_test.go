package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"agency-portal/internal/config"
	"agency-portal/internal/handlers"
	"agency-portal/internal/invite"
	"agency-portal/internal/models"
	"agency-portal/internal/ratelimit"
	"agency-portal/internal/server"
	"agency-portal/internal/testutil"
	"agency-portal/internal/wizard"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeNotifier struct {
	mu          sync.Mutex
	leads       []*models.ContactSubmission
	invitations []string
}

func (f *fakeNotifier) NotifyLead(lead *models.ContactSubmission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leads = append(f.leads, lead)
	return nil
}

func (f *fakeNotifier) SendInvitation(_ *models.User, link string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invitations = append(f.invitations, link)
	return nil
}

type fakeForwarder struct {
	mu    sync.Mutex
	leads []uint
	err   error
}

func (f *fakeForwarder) ForwardLead(_ context.Context, lead *models.ContactSubmission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leads = append(f.leads, lead.ID)
	return f.err
}

type env struct {
	router    *gin.Engine
	handler   *handlers.Handler
	notifier  *fakeNotifier
	forwarder *fakeForwarder
}

const inviteSecret = "test-invite-secret"

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWithLimiter(t, ratelimit.NewMemory(600, 100))
}

func newEnvWithLimiter(t *testing.T, limiter ratelimit.Limiter) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	testutil.NewDB(t)

	catalog, err := wizard.DefaultCatalog(zap.NewNop())
	require.NoError(t, err)

	e := &env{notifier: &fakeNotifier{}, forwarder: &fakeForwarder{}}
	e.handler = &handlers.Handler{
		Catalog:   catalog,
		Wizards:   wizard.NewMemoryStore(time.Hour),
		Mailer:    e.notifier,
		Forwarder: e.forwarder,
		Invites:   invite.NewIssuer(inviteSecret, 72*time.Hour),
		InviteTTL: 72 * time.Hour,
		PortalURL: "https://portal.example.com",
		Log:       zap.NewNop(),
	}
	cfg := &config.Config{
		SessionSecret:  "test-session-secret",
		AllowedOrigins: []string{"http://localhost:3000"},
	}
	e.router = server.NewRouter(cfg, e.handler, limiter, zap.NewNop())
	return e
}

// client хранит cookie сессии между запросами.
type client struct {
	t       *testing.T
	router  *gin.Engine
	cookies []*http.Cookie
}

func (e *env) anon(t *testing.T) *client {
	return &client{t: t, router: e.router}
}

// login создаёт пользователя и входит под ним.
func (e *env) login(t *testing.T, email string, role models.UserRole) (*client, *models.User) {
	t.Helper()
	u := testutil.MustUser(t, email, role)
	c := e.anon(t)
	rr := c.do(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": testutil.Password})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return c, u
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.RemoteAddr = "203.0.113.10:5555"
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	rr := httptest.NewRecorder()
	c.router.ServeHTTP(rr, req)

	for _, ck := range rr.Result().Cookies() {
		c.setCookie(ck)
	}
	return rr
}

func (c *client) setCookie(ck *http.Cookie) {
	for i, existing := range c.cookies {
		if existing.Name == ck.Name {
			if ck.MaxAge < 0 {
				c.cookies = append(c.cookies[:i], c.cookies[i+1:]...)
			} else {
				c.cookies[i] = ck
			}
			return
		}
	}
	if ck.MaxAge >= 0 {
		c.cookies = append(c.cookies, ck)
	}
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}
