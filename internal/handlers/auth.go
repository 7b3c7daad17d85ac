package handlers

import (
	"context"
	"errors"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/anonto42/nano-sns/backend/internal/middleware"
	"github.com/anonto42/nano-sns/backend/internal/models"
	"github.com/anonto42/nano-sns/backend/internal/services"
	"github.com/anonto42/nano-sns/backend/internal/validators"
)

// TokenVerifier verifies Firebase ID tokens. *auth.Client implements it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthHandler handles login, registration and password reset requests
type AuthHandler struct {
	accounts *services.AccountService
	resets   *services.PasswordResetService
	notifier *services.Notifier
	auth     *middleware.Authenticator
	sessions *Sessions
	firebase TokenVerifier
	log      logrus.FieldLogger
}

// NewAuthHandler creates a new AuthHandler. firebase may be nil, which disables Firebase login.
func NewAuthHandler(
	accounts *services.AccountService,
	resets *services.PasswordResetService,
	notifier *services.Notifier,
	authenticator *middleware.Authenticator,
	sessions *Sessions,
	firebase TokenVerifier,
	log logrus.FieldLogger,
) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		resets:   resets,
		notifier: notifier,
		auth:     authenticator,
		sessions: sessions,
		firebase: firebase,
		log:      log,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(e *echo.Echo) {
	e.GET("/login", h.Login)
	e.POST("/login", h.Login)
	e.GET("/logout", h.Logout)
	e.GET("/register", h.Register)
	e.POST("/register", h.Register)
	e.GET("/reset_password/:token", h.ResetPassword)
	e.POST("/reset_password/:token", h.ResetPassword)
	e.GET("/forgot_password", h.ForgotPassword)
	e.POST("/forgot_password", h.ForgotPassword)
	if h.firebase != nil {
		e.POST("/firebase_login", h.FirebaseLogin)
	}
}

// Login checks the credentials and sets the auth cookie
func (h *AuthHandler) Login(c echo.Context) error {
	form := new(models.LoginForm)
	errs := validators.FieldErrors{}

	if c.Request().Method == http.MethodPost {
		if err := c.Bind(form); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid form")
		}
		if err := c.Validate(form); err != nil {
			errs = validators.Fields(err)
		} else {
			user, err := h.accounts.Authenticate(c.Request().Context(), form.Email, form.Password)
			switch {
			case errors.Is(err, services.ErrUserNotFound):
				h.sessions.AddFlash(c, "This email address is not registered.")
			case errors.Is(err, services.ErrUserInactive):
				h.sessions.AddFlash(c, "This account is not active yet. Set a password from the link we emailed you.")
			case errors.Is(err, services.ErrInvalidPassword):
				h.sessions.AddFlash(c, "The password is incorrect.")
			case err != nil:
				return internalError("Failed to authenticate", err)
			default:
				if err := h.auth.Login(c, user); err != nil {
					return internalError("Failed to sign token", err)
				}
				next := c.QueryParam("next")
				if !isLocalURL(next) {
					next = "/"
				}
				return redirect(c, h.sessions, next)
			}
		}
	}

	page := newPage(c, h.sessions, "Login")
	page.Form = form
	page.Errors = errs
	return render(c, h.sessions, http.StatusOK, "login.html", page)
}

// Logout clears the auth cookie
func (h *AuthHandler) Logout(c echo.Context) error {
	h.auth.Logout(c)
	h.sessions.AddFlash(c, "You have been logged out.")
	return redirect(c, h.sessions, "/")
}

// Register creates an inactive account and emails the link to set its password
func (h *AuthHandler) Register(c echo.Context) error {
	form := new(models.RegisterForm)
	errs := validators.FieldErrors{}

	if c.Request().Method == http.MethodPost {
		if err := c.Bind(form); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid form")
		}
		if err := c.Validate(form); err != nil {
			errs = validators.Fields(err)
		} else {
			ctx := c.Request().Context()
			user, token, err := h.accounts.Register(ctx, form.Username, form.Email)
			switch {
			case errors.Is(err, services.ErrEmailTaken):
				errs.Add("email", "This email address is already registered")
			case err != nil:
				return internalError("Failed to register", err)
			default:
				h.sendReset(c, user, token)
				form = new(models.RegisterForm)
			}
		}
	}

	page := newPage(c, h.sessions, "Register")
	page.Form = form
	page.Errors = errs
	return render(c, h.sessions, http.StatusOK, "register.html", page)
}

func (h *AuthHandler) sendReset(c echo.Context, user *models.User, token *models.PasswordResetToken) {
	if err := h.notifier.SendPasswordReset(c.Request().Context(), user, token); err != nil {
		h.log.WithFields(logrus.Fields{
			"error":   err.Error(),
			"user_id": user.ID,
		}).Error("Failed to send password reset mail")
		h.sessions.AddFlash(c, "We could not send the email. Please request a new link from the forgot password page.")
		return
	}
	h.sessions.AddFlash(c, "We sent a link to set your password to "+user.Email+".")
}

// ResetPassword sets a password from an emailed link and activates the account
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	token := c.Param("token")
	if _, err := uuid.Parse(token); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Unknown token")
	}

	ctx := c.Request().Context()
	_, found, err := h.resets.Resolve(ctx, token)
	if err != nil {
		return internalError("Failed to resolve token", err)
	}
	if !found {
		return echo.NewHTTPError(http.StatusInternalServerError, "Password reset token not found or expired")
	}

	form := new(models.ResetPasswordForm)
	errs := validators.FieldErrors{}

	if c.Request().Method == http.MethodPost {
		if err := c.Bind(form); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid form")
		}
		if err := c.Validate(form); err != nil {
			errs = validators.Fields(err)
		} else {
			if _, err := h.resets.Consume(ctx, token, form.Password); err != nil {
				return internalError("Failed to save password", err)
			}
			h.sessions.AddFlash(c, "Your password has been saved. Please log in.")
			return redirect(c, h.sessions, "/login")
		}
	}

	page := newPage(c, h.sessions, "Set password")
	page.Errors = errs
	return render(c, h.sessions, http.StatusOK, "reset_password.html", page)
}

// ForgotPassword emails a new reset link to a registered address
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	form := new(models.ForgotPasswordForm)
	errs := validators.FieldErrors{}

	if c.Request().Method == http.MethodPost {
		if err := c.Bind(form); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid form")
		}
		if err := c.Validate(form); err != nil {
			errs = validators.Fields(err)
		} else {
			user, token, err := h.accounts.RequestReset(c.Request().Context(), form.Email)
			switch {
			case errors.Is(err, services.ErrUserNotFound):
				errs.Add("email", "This email address is not registered")
			case err != nil:
				return internalError("Failed to issue token", err)
			default:
				h.sendReset(c, user, token)
				return redirect(c, h.sessions, "/")
			}
		}
	}

	page := newPage(c, h.sessions, "Forgot password")
	page.Form = form
	page.Errors = errs
	return render(c, h.sessions, http.StatusOK, "forgot_password.html", page)
}

// FirebaseLogin verifies a Firebase ID token and logs in the active account with the same email
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Firebase ID token is required")
	}

	ctx := c.Request().Context()
	token, err := h.firebase.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		h.log.WithError(err).Warn("Firebase ID token rejected")
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	email, _ := token.Claims["email"].(string)
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Firebase account has no email address")
	}

	user, err := h.accounts.GetUserByEmail(ctx, email)
	if errors.Is(err, services.ErrUserNotFound) {
		return echo.NewHTTPError(http.StatusForbidden, "No account is registered with this email address")
	}
	if err != nil {
		return internalError("Failed to get user", err)
	}
	if !user.IsActive {
		return echo.NewHTTPError(http.StatusForbidden, "Account is not active")
	}

	if err := h.auth.Login(c, user); err != nil {
		return internalError("Failed to sign token", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user":     user.ToCompact(),
		"redirect": "/",
	})
}
