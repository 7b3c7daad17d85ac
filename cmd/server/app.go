package main

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/anonto42/nano-sns/backend/internal/repositories"
	"github.com/anonto42/nano-sns/backend/pkg/config"
	"github.com/anonto42/nano-sns/backend/pkg/mailer"
	"github.com/anonto42/nano-sns/backend/pkg/storage"
)

// app is what every command needs: configuration, a logger and open databases
type app struct {
	cfg *config.Config
	log *logrus.Logger
	db  *config.DB
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}

	log, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	db, err := config.InitDB(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, db: db}, nil
}

func (a *app) setupMiddleware(e *echo.Echo) {
	e.Logger.SetOutput(a.log.Writer())
	config.SetupMiddleware(e, a.cfg, a.log)
}

func newMailer(cfg *config.Config, log logrus.FieldLogger) mailer.Mailer {
	if !cfg.SMTPEnabled() {
		log.Warn("SMTP_HOST not set, mail is written to the log")
		return mailer.NewLogMailer(log)
	}
	return mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
}

func newPictureStore(ctx context.Context, cfg *config.Config) (storage.PictureStore, error) {
	if cfg.S3Bucket == "" {
		return storage.NewLocalStore(cfg.StaticDir), nil
	}
	return storage.NewS3Store(ctx, storage.S3Config{
		Endpoint:       cfg.S3Endpoint,
		Region:         cfg.S3Region,
		Bucket:         cfg.S3Bucket,
		AccessKey:      cfg.S3AccessKey,
		SecretKey:      cfg.S3SecretKey,
		PublicURL:      cfg.S3PublicURL,
		ForcePathStyle: cfg.S3ForcePathStyle,
	})
}

// newContactRepository keeps inquiries in MongoDB when it is configured
func newContactRepository(cfg *config.Config, db *config.DB) repositories.ContactRepository {
	if db.Mongo != nil {
		return repositories.NewMongoContactRepository(db.Mongo.Database(cfg.MongoDatabase))
	}
	return repositories.NewPostgresContactRepository(db.SQL)
}
