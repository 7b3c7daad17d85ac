package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/anonto42/nano-sns/backend/internal/models"
	"github.com/anonto42/nano-sns/backend/pkg/mailer"
)

// Notifier composes the emails the application sends
type Notifier struct {
	mailer       mailer.Mailer
	baseURL      string
	supportEmail string
}

// NewNotifier creates a new Notifier. baseURL is used to build links in the mail body.
func NewNotifier(m mailer.Mailer, baseURL, supportEmail string) *Notifier {
	return &Notifier{
		mailer:       m,
		baseURL:      strings.TrimRight(baseURL, "/"),
		supportEmail: supportEmail,
	}
}

// ResetURL returns the link that resolves token
func (n *Notifier) ResetURL(token string) string {
	return n.baseURL + "/reset_password/" + token
}

// SendPasswordReset mails the reset link to the user
func (n *Notifier) SendPasswordReset(ctx context.Context, user *models.User, token *models.PasswordResetToken) error {
	body := fmt.Sprintf("Hello %s,\n\nSet your password with the link below. It expires at %s.\n\n%s\n",
		user.Username, token.ExpireAt.Format("2006-01-02 15:04 MST"), n.ResetURL(token.Token))
	return n.mailer.Send(ctx, mailer.Message{
		To:      []string{user.Email},
		Subject: "Set your password",
		Body:    body,
	})
}

// SendContactReceived forwards an inquiry to support with the user in copy
func (n *Notifier) SendContactReceived(ctx context.Context, user *models.User, inquiry string) error {
	body := fmt.Sprintf("An inquiry was received from %s <%s> (user %d).\n\n%s\n\nWe will reply within a week.\n",
		user.Username, user.Email, user.ID, inquiry)
	return n.mailer.Send(ctx, mailer.Message{
		To:      []string{n.supportEmail},
		Cc:      []string{user.Email},
		Subject: "Inquiry received",
		Body:    body,
	})
}
