package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Password  PasswordConfig
	RateLimit RateLimitConfig
	Stripe    StripeConfig
	Sendgrid  SendgridConfig
	PubSub    PubSubConfig
	Outbox    OutboxConfig
	Audit     AuditConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPWARD_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPWARD_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SHOPWARD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPWARD_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"SHOPWARD_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"SHOPWARD_DB_DSN"`

	Host     string `envconfig:"SHOPWARD_DB_HOST"`
	Port     int    `envconfig:"SHOPWARD_DB_PORT" default:"5432"`
	User     string `envconfig:"SHOPWARD_DB_USER"`
	Password string `envconfig:"SHOPWARD_DB_PASSWORD"`
	Name     string `envconfig:"SHOPWARD_DB_NAME"`
	SSLMode  string `envconfig:"SHOPWARD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPWARD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPWARD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPWARD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPWARD_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	TxRetryAttempts int           `envconfig:"SHOPWARD_DB_TX_RETRY_ATTEMPTS" default:"3"`
	TxRetryBase     time.Duration `envconfig:"SHOPWARD_DB_TX_RETRY_BASE" default:"100ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPWARD_REDIS_URL" required:"true"`
	Password     string        `envconfig:"SHOPWARD_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPWARD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPWARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPWARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPWARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPWARD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPWARD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SHOPWARD_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SHOPWARD_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SHOPWARD_JWT_EXPIRATION_MINUTES" default:"15"`
	RefreshTokenTTLMinutes int    `envconfig:"SHOPWARD_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SHOPWARD_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SHOPWARD_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SHOPWARD_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SHOPWARD_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SHOPWARD_ARGON_KEY_LEN" default:"32"`
}

type RateLimitConfig struct {
	Window   time.Duration `envconfig:"SHOPWARD_RATE_LIMIT_WINDOW" default:"1m"`
	Requests int           `envconfig:"SHOPWARD_RATE_LIMIT_REQUESTS" default:"120"`
}

type StripeConfig struct {
	APIKey        string `envconfig:"SHOPWARD_STRIPE_API_KEY"`
	WebhookSecret string `envconfig:"SHOPWARD_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"SHOPWARD_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SendgridConfig struct {
	APIKey    string `envconfig:"SHOPWARD_SENDGRID_API_KEY"`
	FromEmail string `envconfig:"SHOPWARD_SENDGRID_FROM_EMAIL"`
	FromName  string `envconfig:"SHOPWARD_SENDGRID_FROM_NAME" default:"Shopward"`
}

type PubSubConfig struct {
	ProjectID          string `envconfig:"SHOPWARD_GCP_PROJECT_ID"`
	OrdersTopic        string `envconfig:"SHOPWARD_PUBSUB_ORDERS_TOPIC" default:"shopward-order-events"`
	OrdersSubscription string `envconfig:"SHOPWARD_PUBSUB_ORDERS_SUBSCRIPTION" default:"shopward-order-events-worker"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SHOPWARD_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SHOPWARD_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SHOPWARD_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type AuditConfig struct {
	RetentionDays int           `envconfig:"SHOPWARD_AUDIT_RETENTION_DAYS" default:"365"`
	PurgeInterval time.Duration `envconfig:"SHOPWARD_AUDIT_PURGE_INTERVAL" default:"24h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	required := map[string]string{
		"SHOPWARD_DB_HOST": db.Host,
		"SHOPWARD_DB_USER": db.User,
		"SHOPWARD_DB_NAME": db.Name,
	}
	for _, key := range []string{"SHOPWARD_DB_HOST", "SHOPWARD_DB_USER", "SHOPWARD_DB_NAME"} {
		if required[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either SHOPWARD_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
