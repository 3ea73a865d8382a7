package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"stylefit/models"
)

type Config struct {
	HTTPPort string
	AppEnv   string

	DBDriver   string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	SQLitePath string

	JWTSecret  string
	SessionTTL time.Duration

	RedisAddr       string
	RateLimitPerMin int

	AWSRegion     string
	S3Bucket      string
	S3Region      string
	CloudFrontURL string
	MaxPhotoBytes int64
	SESEmail      string
	OrderTopicARN string

	PaymentGatewayURL string
	PaymentPG         string

	StageInterval time.Duration
	SettleDelay   time.Duration
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		AppEnv:            getEnv("APP_ENV", "production"),
		DBDriver:          getEnv("DB_DRIVER", "postgres"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBName:            getEnv("DB_NAME", "stylefit"),
		DBPort:            getEnv("DB_PORT", "5432"),
		SQLitePath:        getEnv("SQLITE_PATH", "stylefit.db"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		AWSRegion:         getEnv("AWS_REGION", "ap-northeast-2"),
		S3Bucket:          getEnv("S3_BUCKET", ""),
		CloudFrontURL:     getEnv("CLOUDFRONT_URL", ""),
		SESEmail:          getEnv("SES_EMAIL", ""),
		OrderTopicARN:     getEnv("SNS_ORDER_TOPIC_ARN", ""),
		PaymentGatewayURL: getEnv("PAYMENT_GATEWAY_URL", ""),
		PaymentPG:         getEnv("PAYMENT_PG", "html5_inicis"),
	}
	cfg.S3Region = getEnv("S3_REGION", cfg.AWSRegion)

	var err error
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.StageInterval, err = getDuration("LOAD_STAGE_INTERVAL", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.SettleDelay, err = getDuration("LOAD_SETTLE_DELAY", 400*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMin, err = getInt("RATE_LIMIT_PER_MIN", 120); err != nil {
		return nil, err
	}
	maxPhoto, err := getInt("MAX_PHOTO_BYTES", 10<<20)
	if err != nil {
		return nil, err
	}
	cfg.MaxPhotoBytes = int64(maxPhoto)

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return nil, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", cfg.DBDriver)
	}
	return cfg, nil
}

func (c *Config) Development() bool { return c.AppEnv == "development" }

// OpenDB connects with the configured driver and migrates the schema.
func OpenDB(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
		dialector = postgres.Open(dsn)
	}

	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if cfg.Development() {
		gcfg.Logger = logger.Default.LogMode(logger.Info)
	}
	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.Session{}, &models.PremiumOrder{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return db, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
