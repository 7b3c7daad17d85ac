package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-sns/backend/internal/models"
)

// CookieName is the cookie that carries the signed login token
const CookieName = "nanosns_auth"

const userContextKey = "user"

// UserLoader loads the account a token refers to
type UserLoader interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// Authenticator issues and verifies login tokens kept in a cookie
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	secure bool
	users  UserLoader
}

// NewAuthenticator creates a new Authenticator
func NewAuthenticator(secret string, ttl time.Duration, secure bool, users UserLoader) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		users:  users,
	}
}

// Login signs a token for user and stores it in the auth cookie
func (a *Authenticator) Login(c echo.Context, user *models.User) error {
	now := time.Now()
	claims := &models.JwtCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  now.Add(a.ttl),
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Logout expires the auth cookie
func (a *Authenticator) Logout(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *Authenticator) parse(tokenString string) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// JWTAuthMiddleware loads the logged in user from the auth cookie. Requests without a
// valid cookie continue anonymously; a stale cookie is cleared.
func (a *Authenticator) JWTAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			claims, err := a.parse(cookie.Value)
			if err != nil {
				a.Logout(c)
				return next(c)
			}

			user, err := a.users.GetUser(c.Request().Context(), claims.UserID)
			if err != nil || !user.IsActive {
				a.Logout(c)
				return next(c)
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// RequireLogin redirects anonymous requests to the login page, remembering where they were going
func RequireLogin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentUser(c) == nil {
				return c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request().URL.RequestURI()))
			}
			return next(c)
		}
	}
}

// CurrentUser returns the logged in user, or nil
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(userContextKey).(*models.User)
	return user
}
