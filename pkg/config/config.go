package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const devJWTSecret = "supersecretjwtkey"

// Config holds every runtime setting of the server.
type Config struct {
	Port string
	Env  string

	PostgresURL   string
	MongoURI      string
	MongoDatabase string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTTTL    time.Duration

	FirebaseCredentialsPath string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	PublicBaseURL string
	MediaDir      string
	MediaMaxBytes int64

	RateLimitRPS      float64
	NotifyTimeout     time.Duration
	SchedulerInterval time.Duration
	CommentMaxDepth   int
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is fine, the environment may already be populated.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:                    v.GetString("PORT"),
		Env:                     strings.ToLower(v.GetString("ENV")),
		PostgresURL:             v.GetString("POSTGRES_URL"),
		MongoURI:                v.GetString("MONGO_URI"),
		MongoDatabase:           v.GetString("MONGO_DATABASE"),
		RedisAddr:               v.GetString("REDIS_ADDR"),
		RedisPassword:           v.GetString("REDIS_PASSWORD"),
		RedisDB:                 v.GetInt("REDIS_DB"),
		JWTSecret:               v.GetString("JWT_SECRET"),
		JWTTTL:                  v.GetDuration("JWT_TTL"),
		FirebaseCredentialsPath: v.GetString("FIREBASE_CREDENTIALS_PATH"),
		SMTPHost:                v.GetString("SMTP_HOST"),
		SMTPPort:                v.GetInt("SMTP_PORT"),
		SMTPUsername:            v.GetString("SMTP_USERNAME"),
		SMTPPassword:            v.GetString("SMTP_PASSWORD"),
		MailFrom:                v.GetString("MAIL_FROM"),
		PublicBaseURL:           strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		MediaDir:                v.GetString("MEDIA_DIR"),
		MediaMaxBytes:           v.GetInt64("MEDIA_MAX_BYTES"),
		RateLimitRPS:            v.GetFloat64("RATE_LIMIT_RPS"),
		NotifyTimeout:           v.GetDuration("NOTIFY_TIMEOUT"),
		SchedulerInterval:       v.GetDuration("SCHEDULER_INTERVAL"),
		CommentMaxDepth:         v.GetInt("COMMENT_MAX_DEPTH"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("MONGO_DATABASE", "inkwell")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_SECRET", devJWTSecret)
	v.SetDefault("JWT_TTL", 72*time.Hour)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("MAIL_FROM", "no-reply@inkwell.local")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("MEDIA_DIR", "./uploads")
	v.SetDefault("MEDIA_MAX_BYTES", 10<<20)
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("NOTIFY_TIMEOUT", 5*time.Second)
	v.SetDefault("SCHEDULER_INTERVAL", time.Minute)
	v.SetDefault("COMMENT_MAX_DEPTH", 6)
}

func (c *Config) validate() error {
	if c.PostgresURL == "" {
		return fmt.Errorf("POSTGRES_URL environment variable not set")
	}
	if c.IsProduction() && c.JWTSecret == devJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.CommentMaxDepth < 0 {
		return fmt.Errorf("COMMENT_MAX_DEPTH must not be negative")
	}
	return nil
}
