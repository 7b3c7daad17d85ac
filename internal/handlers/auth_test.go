package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/nano-sns/backend/internal/middleware"
	"github.com/anonto42/nano-sns/backend/internal/models"
)

func loginForm(email, password string) url.Values {
	return url.Values{"email": {email}, "password": {password}, "confirm_password": {password}}
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "alice")

	rec := env.do(http.MethodPost, "/login?next=%2Fuser_search%3Fusername%3Db", loginForm("alice@example.com", testPassword))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/user_search?username=b", rec.Header().Get(echo.HeaderLocation))

	rec = env.do(http.MethodGet, "/", nil, findCookie(t, rec, middleware.CookieName))
	assert.Contains(t, rec.Body.String(), "Hello, alice")
}

func TestLogin_ExternalNextIsIgnored(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "alice")

	for _, next := range []string{"//evil.example.com", "https://evil.example.com/", "/\\evil.example.com"} {
		rec := env.do(http.MethodPost, "/login?next="+url.QueryEscape(next), loginForm("alice@example.com", testPassword))
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation), next)
	}
}

func TestLogin_Failures(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "alice")
	inactive := env.createUser(t, "bob")
	require.NoError(t, env.db.Model(inactive).Update("is_active", false).Error)

	cases := []struct {
		name string
		form url.Values
		want string
	}{
		{name: "unknown email", form: loginForm("nobody@example.com", testPassword), want: "This email address is not registered."},
		{name: "inactive account", form: loginForm("bob@example.com", testPassword), want: "This account is not active yet."},
		{name: "wrong password", form: loginForm("alice@example.com", "not the password"), want: "The password is incorrect."},
		{
			name: "confirmation mismatch",
			form: url.Values{"email": {"alice@example.com"}, "password": {testPassword}, "confirm_password": {"other"}},
			want: "The passwords do not match",
		},
		{name: "invalid email", form: loginForm("alice", testPassword), want: "The email address is invalid"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/login", tc.form)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
			for _, c := range rec.Result().Cookies() {
				assert.NotEqual(t, middleware.CookieName, c.Name)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.createUser(t, "alice")

	rec := env.do(http.MethodGet, "/logout", nil, env.login(t, alice))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, -1, findCookie(t, rec, middleware.CookieName).MaxAge)

	rec = env.do(http.MethodGet, "/", nil, sessionCookie(rec))
	assert.Contains(t, rec.Body.String(), "You have been logged out.")
}

func TestRegister_ThenSetPassword(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/register", url.Values{"email": {"carol@example.com"}, "username": {"carol"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "We sent a link to set your password to carol@example.com.")

	var user models.User
	require.NoError(t, env.db.Where("email = ?", "carol@example.com").First(&user).Error)
	assert.False(t, user.IsActive)

	var token models.PasswordResetToken
	require.NoError(t, env.db.Where("user_id = ?", user.ID).First(&token).Error)

	sent := env.mail.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"carol@example.com"}, sent[0].To)
	assert.Contains(t, sent[0].Body, "http://localhost:8080/reset_password/"+token.Token)

	target := "/reset_password/" + token.Token
	rec = env.do(http.MethodGet, target, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, target, url.Values{"password": {"short"}, "confirm_password": {"short"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Must be at least 10 characters")

	rec = env.do(http.MethodPost, target, url.Values{"password": {testPassword}, "confirm_password": {testPassword}})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))

	rec = env.do(http.MethodGet, "/login", nil, sessionCookie(rec))
	assert.Contains(t, rec.Body.String(), "Your password has been saved. Please log in.")

	rec = env.do(http.MethodPost, "/login", loginForm("carol@example.com", testPassword))
	assert.Equal(t, http.StatusFound, rec.Code)

	// the link works once
	rec = env.do(http.MethodGet, target, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRegister_EmailTaken(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "alice")

	rec := env.do(http.MethodPost, "/register", url.Values{"email": {"alice@example.com"}, "username": {"alice2"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "This email address is already registered")
	assert.Empty(t, env.mail.messages())
}

func TestResetPassword_BadTokens(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/reset_password/not-a-uuid", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	rec = env.do(http.MethodGet, "/reset_password/6f1c2a8e-3b4d-4c5e-9f60-718293a4b5c6", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Something went wrong")
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	env := newTestEnv(t, nil)
	bob := env.createUser(t, "bob")
	require.NoError(t, env.db.Model(bob).Update("is_active", false).Error)
	token := &models.PasswordResetToken{
		UserID:   bob.ID,
		Token:    "0b6f4d3c-2a19-4e87-b5d6-c7e8f9a0b1c2",
		ExpireAt: time.Now().UTC().Add(-time.Minute),
	}
	require.NoError(t, env.db.Create(token).Error)

	rec := env.do(http.MethodPost, "/reset_password/"+token.Token, url.Values{"password": {"a brand new secret"}, "confirm_password": {"a brand new secret"}})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Something went wrong")

	var after models.User
	require.NoError(t, env.db.First(&after, bob.ID).Error)
	assert.Equal(t, bob.Password, after.Password)
	assert.False(t, after.IsActive)

	var count int64
	require.NoError(t, env.db.Model(&models.PasswordResetToken{}).Where("id = ?", token.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestForgotPassword(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "alice")

	rec := env.do(http.MethodPost, "/forgot_password", url.Values{"email": {"nobody@example.com"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "This email address is not registered")
	assert.Empty(t, env.mail.messages())

	rec = env.do(http.MethodPost, "/forgot_password", url.Values{"email": {"alice@example.com"}})
	assert.Equal(t, http.StatusFound, rec.Code)
	require.Len(t, env.mail.messages(), 1)
	assert.Equal(t, "Set your password", env.mail.messages()[0].Subject)
}

type stubVerifier struct {
	email string
	err   error
}

func (v stubVerifier) VerifyIDToken(_ context.Context, _ string) (*auth.Token, error) {
	if v.err != nil {
		return nil, v.err
	}
	return &auth.Token{UID: "firebase-uid", Claims: map[string]interface{}{"email": v.email}}, nil
}

func postJSON(env *testEnv, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func TestFirebaseLogin(t *testing.T) {
	t.Run("known active user", func(t *testing.T) {
		env := newTestEnv(t, stubVerifier{email: "alice@example.com"})
		env.createUser(t, "alice")

		rec := postJSON(env, "/firebase_login", `{"id_token":"token"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"username":"alice"`)
		findCookie(t, rec, middleware.CookieName)
	})

	t.Run("unknown email", func(t *testing.T) {
		env := newTestEnv(t, stubVerifier{email: "nobody@example.com"})

		rec := postJSON(env, "/firebase_login", `{"id_token":"token"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("rejected token", func(t *testing.T) {
		env := newTestEnv(t, stubVerifier{err: errors.New("expired")})

		rec := postJSON(env, "/firebase_login", `{"id_token":"token"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		env := newTestEnv(t, stubVerifier{email: "alice@example.com"})

		rec := postJSON(env, "/firebase_login", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("disabled", func(t *testing.T) {
		env := newTestEnv(t, nil)

		rec := postJSON(env, "/firebase_login", `{"id_token":"token"}`)
		assert.Equal(t, http.StatusFound, rec.Code)
	})
}

func TestIsLocalURL(t *testing.T) {
	assert.True(t, isLocalURL("/"))
	assert.True(t, isLocalURL("/user_search?username=b&page=2"))
	assert.False(t, isLocalURL(""))
	assert.False(t, isLocalURL("user"))
	assert.False(t, isLocalURL("//evil.example.com"))
	assert.False(t, isLocalURL("http://evil.example.com"))
}

