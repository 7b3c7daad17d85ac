package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-sns/backend/internal/middleware"
	"github.com/anonto42/nano-sns/backend/internal/models"
	"github.com/anonto42/nano-sns/backend/internal/services"
	"github.com/anonto42/nano-sns/backend/internal/validators"
)

// MaxPictureSize is the largest profile picture accepted
const MaxPictureSize = 5 << 20

// UserHandler handles HTTP requests related to the logged in user's account
type UserHandler struct {
	accounts    *services.AccountService
	connections *services.ConnectionService
	sessions    *Sessions
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(accounts *services.AccountService, connections *services.ConnectionService, sessions *Sessions) *UserHandler {
	return &UserHandler{accounts: accounts, connections: connections, sessions: sessions}
}

// RegisterUserRoutes registers profile, password and search routes behind m
func (h *UserHandler) RegisterUserRoutes(e *echo.Echo, m ...echo.MiddlewareFunc) {
	e.GET("/user", h.Profile, m...)
	e.POST("/user", h.Profile, m...)
	e.GET("/change_password", h.ChangePassword, m...)
	e.POST("/change_password", h.ChangePassword, m...)
	e.GET("/user_search", h.Search, m...)
}

// Profile shows and updates the username, email and picture
func (h *UserHandler) Profile(c echo.Context) error {
	user := middleware.CurrentUser(c)
	form := &models.UserForm{Email: user.Email, Username: user.Username}
	errs := validators.FieldErrors{}

	if c.Request().Method == http.MethodPost {
		form = new(models.UserForm)
		if err := c.Bind(form); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid form")
		}
		if err := c.Validate(form); err != nil {
			errs = validators.Fields(err)
		}

		picture, ok := readPicture(c)
		if !ok {
			errs.Add("picture_path", invalidPictureMessage)
		}

		if !errs.Any() {
			_, err := h.accounts.UpdateProfile(c.Request().Context(), user.ID, form.Username, form.Email, picture)
			switch {
			case errors.Is(err, services.ErrEmailTaken):
				errs.Add("email", "This email address is already registered")
			case err != nil:
				return internalError("Failed to update profile", err)
			default:
				h.sessions.AddFlash(c, "Your profile has been updated.")
				return redirect(c, h.sessions, "/user")
			}
		}
	}

	page := newPage(c, h.sessions, "Profile")
	page.Form = form
	page.Errors = errs
	return render(c, h.sessions, http.StatusOK, "user.html", page)
}

const invalidPictureMessage = "Upload a JPEG, PNG or GIF image of at most 5 MB"

// readPicture returns the uploaded picture, or nil when none was sent. ok is false for
// uploads that are too large or not an image.
func readPicture(c echo.Context) (data []byte, ok bool) {
	fh, err := c.FormFile("picture_path")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, true
	}
	if err != nil || fh.Size > MaxPictureSize {
		return nil, false
	}

	f, err := fh.Open()
	if err != nil {
		return nil, false
	}
	defer f.Close()

	data, err = io.ReadAll(io.LimitReader(f, MaxPictureSize+1))
	if err != nil || len(data) > MaxPictureSize {
		return nil, false
	}
	if len(data) == 0 {
		return nil, true
	}
	return data, strings.HasPrefix(http.DetectContentType(data), "image/")
}

// ChangePassword replaces the logged in user's password
func (h *UserHandler) ChangePassword(c echo.Context) error {
	errs := validators.FieldErrors{}

	if c.Request().Method == http.MethodPost {
		form := new(models.ChangePasswordForm)
		if err := c.Bind(form); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid form")
		}
		if err := c.Validate(form); err != nil {
			errs = validators.Fields(err)
		} else {
			user := middleware.CurrentUser(c)
			if err := h.accounts.ChangePassword(c.Request().Context(), user.ID, form.Password); err != nil {
				return internalError("Failed to change password", err)
			}
			h.sessions.AddFlash(c, "Your password has been changed.")
			return redirect(c, h.sessions, "/")
		}
	}

	page := newPage(c, h.sessions, "Change password")
	page.Errors = errs
	return render(c, h.sessions, http.StatusOK, "change_password.html", page)
}

// queryPage reads ?page=, treating anything missing or malformed as the first page
func queryPage(c echo.Context) int {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Search finds active users by username and shows how each relates to the viewer
func (h *UserHandler) Search(c echo.Context) error {
	form := new(models.UserSearchForm)
	if err := c.Bind(form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid search")
	}

	page := newPage(c, h.sessions, "Search")
	page.Form = form

	if form.Username != "" {
		if err := c.Validate(form); err != nil {
			page.Errors = validators.Fields(err)
		} else {
			user := middleware.CurrentUser(c)
			result, err := h.connections.SearchUsers(c.Request().Context(), user.ID, form.Username, queryPage(c))
			if err != nil {
				return internalError("Failed to search users", err)
			}
			page.Data = result
		}
	}

	h.sessions.SetReturnTo(c, c.Request().URL.RequestURI())
	return render(c, h.sessions, http.StatusOK, "user_search.html", page)
}
