package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds runtime configuration for the server.
type Config struct {
	Port    string `env:"PORT,default=8080"`
	Env     string `env:"ENV,default=development"`
	BaseURL string `env:"BASE_URL,default=http://localhost:8080"`

	DBDriver        string `env:"DB_DRIVER,default=postgres"`
	PostgresConnStr string `env:"POSTGRES_CONN_STR"`
	SQLitePath      string `env:"SQLITE_PATH,default=nano-sns.db"`
	MongoURI        string `env:"MONGO_URI"`
	MongoDatabase   string `env:"MONGO_DATABASE,default=nanosns"`
	AutoMigrate     bool   `env:"AUTO_MIGRATE,default=true"`

	JWTSecret     string        `env:"JWT_SECRET,default=supersecretjwtkey"`
	SessionKey    string        `env:"SESSION_KEY,default=supersecretsessionkey"`
	SessionTTL    time.Duration `env:"SESSION_TTL,default=168h"`
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL,default=24h"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT,default=587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASS"`
	MailFrom     string `env:"MAIL_FROM,default=no-reply@nano-sns.local"`
	SupportEmail string `env:"SUPPORT_EMAIL,default=support@nano-sns.local"`

	StaticDir        string `env:"STATIC_DIR,default=static"`
	S3Endpoint       string `env:"S3_ENDPOINT"`
	S3Region         string `env:"S3_REGION,default=us-east-1"`
	S3Bucket         string `env:"S3_BUCKET"`
	S3AccessKey      string `env:"S3_ACCESS_KEY"`
	S3SecretKey      string `env:"S3_SECRET_KEY"`
	S3PublicURL      string `env:"S3_PUBLIC_URL"`
	S3ForcePathStyle bool   `env:"S3_FORCE_PATH_STYLE,default=true"`

	FirebaseCredentialsPath string  `env:"FIREBASE_CREDENTIALS_PATH"`
	OTLPEndpoint            string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	RateLimit               float64 `env:"RATE_LIMIT,default=20"`
	LogLevel                string  `env:"LOG_LEVEL,default=info"`
	LogFormat               string  `env:"LOG_FORMAT,default=json"`
	DebugRoutes             bool    `env:"DEBUG_ROUTES,default=false"`
}

// Load reads .env when present, then returns a Config populated from environment variables.
func Load(ctx context.Context) (*Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that depend on each other
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres:
		if c.PostgresConnStr == "" {
			return errors.New("POSTGRES_CONN_STR must be set when DB_DRIVER is postgres")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH must be set when DB_DRIVER is sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.IsProduction() && (c.JWTSecret == "supersecretjwtkey" || c.SessionKey == "supersecretsessionkey") {
		return errors.New("JWT_SECRET and SESSION_KEY must be changed in production")
	}
	return nil
}

// IsProduction reports whether cookies should be marked secure
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// SMTPEnabled reports whether mail goes out over SMTP rather than to the log
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}
