package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/anonto42/nano-sns/backend/internal/metrics"
	"github.com/anonto42/nano-sns/backend/internal/middleware"
	"github.com/anonto42/nano-sns/backend/internal/models"
	"github.com/anonto42/nano-sns/backend/internal/repositories"
	"github.com/anonto42/nano-sns/backend/internal/services"
	"github.com/anonto42/nano-sns/backend/internal/validators"
	"github.com/anonto42/nano-sns/backend/internal/views"
	"github.com/anonto42/nano-sns/backend/pkg/mailer"
)

const (
	testPassword  = "correct horse battery"
	testCSRFToken = "test-csrf-token"
)

type testEnv struct {
	e        *echo.Echo
	db       *gorm.DB
	store    *repositories.Store
	resets   *services.PasswordResetService
	auth     *middleware.Authenticator
	mail     *recordingMailer
	pictures *memoryPictures
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}

type memoryPictures struct {
	saved map[string][]byte
}

func (p *memoryPictures) Save(_ context.Context, name string, data []byte) (string, error) {
	p.saved[name] = data
	return "user_image/" + name, nil
}

func newTestEnv(t *testing.T, firebase TokenVerifier) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repositories.Migrate(db))

	renderer, err := views.NewRenderer()
	require.NoError(t, err)
	log, _ := test.NewNullLogger()

	env := &testEnv{
		db:       db,
		store:    repositories.NewStore(db),
		mail:     &recordingMailer{},
		pictures: &memoryPictures{saved: map[string][]byte{}},
	}

	m := metrics.NewMetrics(prometheus.NewRegistry())
	env.resets = services.NewPasswordResetService(env.store, m, time.Hour)
	accounts := services.NewAccountService(env.store, env.resets, env.pictures, m)
	connections := services.NewConnectionService(env.store, m)
	messaging := services.NewMessagingService(env.store, m)
	notifier := services.NewNotifier(env.mail, "http://localhost:8080", "support@example.com")
	contacts := services.NewContactService(repositories.NewPostgresContactRepository(db), notifier, log)

	sessions := NewSessions("test-session-key", 3600, false)
	env.auth = middleware.NewAuthenticator("test-jwt-secret", time.Hour, false, accounts)

	e := echo.New()
	e.Validator = validators.NewValidator()
	e.Renderer = renderer
	e.HTTPErrorHandler = HTTPErrorHandler(e, log)
	e.Use(env.auth.JWTAuthMiddleware())
	e.Use(middleware.CSRF(false))
	requireLogin := middleware.RequireLogin()

	e.GET("/health", NewHealthHandler(db).HealthCheck)
	NewHomeHandler(connections, sessions).RegisterHomeRoutes(e)
	NewAuthHandler(accounts, env.resets, notifier, env.auth, sessions, firebase, log).RegisterAuthRoutes(e)
	NewUserHandler(accounts, connections, sessions).RegisterUserRoutes(e, requireLogin)
	NewConnectHandler(connections, sessions, log).RegisterConnectRoutes(e, requireLogin)
	NewMessageHandler(messaging, connections, accounts, renderer, sessions).RegisterMessageRoutes(e, requireLogin)
	NewContactHandler(contacts, sessions).RegisterContactRoutes(e, requireLogin)
	NewDebugHandler(accounts, env.store, sessions).RegisterDebugRoutes(e)

	env.e = e
	return env
}

func (env *testEnv) createUser(t *testing.T, name string) *models.User {
	t.Helper()

	hash, err := services.HashPassword(testPassword)
	require.NoError(t, err)
	user := &models.User{
		Username: name,
		Email:    fmt.Sprintf("%s@example.com", name),
		Password: hash,
		IsActive: true,
	}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

func (env *testEnv) makeFriends(t *testing.T, a, b *models.User) {
	t.Helper()
	require.NoError(t, env.db.Create(&models.UserConnect{FromUserID: a.ID, ToUserID: b.ID, Status: models.ConnectAccepted}).Error)
}

// login returns the auth cookie for user
func (env *testEnv) login(t *testing.T, user *models.User) *http.Cookie {
	t.Helper()

	rec := httptest.NewRecorder()
	c := env.e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, env.auth.Login(c, user))
	return findCookie(t, rec, middleware.CookieName)
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

// csrfCookie pairs with testCSRFToken the way a browser that loaded the form would
var csrfCookie = &http.Cookie{Name: middleware.CSRFCookieName, Value: testCSRFToken}

// do sends a request; form values, when given, are posted url-encoded.
// State-changing requests carry a valid CSRF token.
func (env *testEnv) do(method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	if method != http.MethodGet {
		withToken := url.Values{middleware.CSRFFormField: {testCSRFToken}}
		for k, v := range form {
			withToken[k] = v
		}
		form = withToken
		cookies = append(cookies, csrfCookie)
	}
	return env.send(method, target, form, cookies...)
}

// send is do without the CSRF token
func (env *testEnv) send(method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}

	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

// sessionCookie returns the session cookie a response set, or nil
func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionName {
			found = c
		}
	}
	return found
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
