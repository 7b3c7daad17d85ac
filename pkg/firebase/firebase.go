package firebase

import (
	"context"
	"errors"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// NewAuthClient initializes the Firebase app from a service account file and returns its
// auth client. An empty credentialsPath disables Firebase sign-in and yields a nil client.
func NewAuthClient(ctx context.Context, credentialsPath string, log logrus.FieldLogger) (*auth.Client, error) {
	if credentialsPath == "" {
		log.Info("Firebase credentials not configured, Firebase login disabled")
		return nil, nil
	}

	if _, err := os.Stat(credentialsPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	log.WithField("credentials", credentialsPath).Info("Firebase auth client initialized")
	return client, nil
}
