package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-sns/backend/internal/middleware"
	"github.com/anonto42/nano-sns/backend/internal/models"
	"github.com/anonto42/nano-sns/backend/internal/services"
	"github.com/anonto42/nano-sns/backend/internal/validators"
)

// ContactHandler handles support inquiries
type ContactHandler struct {
	contacts *services.ContactService
	sessions *Sessions
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(contacts *services.ContactService, sessions *Sessions) *ContactHandler {
	return &ContactHandler{contacts: contacts, sessions: sessions}
}

// RegisterContactRoutes registers the contact form behind m
func (h *ContactHandler) RegisterContactRoutes(e *echo.Echo, m ...echo.MiddlewareFunc) {
	e.GET("/contact", h.Contact, m...)
	e.POST("/contact", h.Contact, m...)
}

// Contact stores an inquiry and notifies support. The page lists earlier inquiries.
func (h *ContactHandler) Contact(c echo.Context) error {
	form := new(models.ContactForm)
	errs := validators.FieldErrors{}
	user := middleware.CurrentUser(c)

	if c.Request().Method == http.MethodPost {
		if err := c.Bind(form); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid form")
		}
		if err := c.Validate(form); err != nil {
			errs = validators.Fields(err)
		} else {
			if _, err := h.contacts.Submit(c.Request().Context(), user, form.Body); err != nil {
				return internalError("Failed to save inquiry", err)
			}
			h.sessions.AddFlash(c, "Thank you. We received your inquiry.")
			return redirect(c, h.sessions, "/")
		}
	}

	history, err := h.contacts.History(c.Request().Context(), user.ID)
	if err != nil {
		return internalError("Failed to list inquiries", err)
	}

	page := newPage(c, h.sessions, "Contact")
	page.Form = form
	page.Errors = errs
	page.Data = history
	return render(c, h.sessions, http.StatusOK, "contact.html", page)
}
