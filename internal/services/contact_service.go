package services

import (
	"context"
	"fmt"

	"github.com/anonto42/nano-sns/backend/internal/models"
	"github.com/anonto42/nano-sns/backend/internal/repositories"
	"github.com/sirupsen/logrus"
)

// ContactService records support inquiries
type ContactService struct {
	contacts repositories.ContactRepository
	notifier *Notifier
	log      logrus.FieldLogger
}

// NewContactService creates a new ContactService
func NewContactService(contacts repositories.ContactRepository, notifier *Notifier, log logrus.FieldLogger) *ContactService {
	return &ContactService{contacts: contacts, notifier: notifier, log: log}
}

// Submit stores the inquiry and notifies support. A failed notification is logged only.
func (s *ContactService) Submit(ctx context.Context, user *models.User, inquiry string) (*models.UserContact, error) {
	contact := &models.UserContact{UserID: user.ID, Inquiry: inquiry}
	if err := s.contacts.CreateContact(ctx, contact); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}

	if err := s.notifier.SendContactReceived(ctx, user, inquiry); err != nil {
		s.log.WithFields(logrus.Fields{
			"error":   err.Error(),
			"user_id": user.ID,
		}).Error("Failed to send contact notification")
	}
	return contact, nil
}

// History lists the inquiries a user has sent, newest first
func (s *ContactService) History(ctx context.Context, userID uint) ([]models.UserContact, error) {
	contacts, err := s.contacts.GetContactsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get contacts: %w", err)
	}
	return contacts, nil
}
