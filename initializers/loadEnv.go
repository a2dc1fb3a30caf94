package initializers

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	DatabaseDSN string `envconfig:"DATABASE_DSN" required:"true"`
	JWTSecret   string `envconfig:"JWT_SECRET" required:"true"`

	PaystackSecretKey string        `envconfig:"PAYSTACK_SECRET_KEY"`
	PaystackBaseURL   string        `envconfig:"PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	GatewayTimeout    time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"30s"`

	// PublicURL is where this API is reachable by the payment gateway callback.
	PublicURL      string   `envconfig:"PUBLIC_URL" default:"http://localhost:8080"`
	FrontendURL    string   `envconfig:"FRONTEND_URL" default:"http://localhost:4200"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:4200,https://www.amexan.store"`

	RabbitMQURL string `envconfig:"RABBITMQ_URL"`
	EventsQueue string `envconfig:"EVENTS_QUEUE" default:"marketplace_events"`

	RedisAddr      string        `envconfig:"REDIS_ADDR"`
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`

	FromEmail         string `envconfig:"FROM_EMAIL"`
	FromEmailPassword string `envconfig:"FROM_EMAIL_PASSWORD"`
	FromEmailSMTP     string `envconfig:"FROM_EMAIL_SMTP"`
	SMTPAddress       string `envconfig:"SMTP_ADDRESS"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadEnv reads a local .env file when present. Missing files are fine in deployed
// environments where variables come from the process.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file loaded")
	}
}

func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process environment config")
	}
	return &cfg, nil
}
