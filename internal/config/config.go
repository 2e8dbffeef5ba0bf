package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	MatchModeWallClock    = "wall_clock"
	MatchModeMinuteOfWeek = "minute_of_week"

	DedupOncePerOccurrence = "once_per_occurrence"
	DedupEveryTick         = "every_tick"
)

type Config struct {
	DBDSN              string
	Environment        string
	LogLevel           string
	MigrationsDisabled bool
	Location           *time.Location

	// Планировщик
	TickInterval       time.Duration
	Lookahead          time.Duration
	CredentialTTL      time.Duration
	MatchMode          string
	DedupPolicy        string
	MaxInFlight        int
	DeliveryRatePerSec int
	MatchTimeout       time.Duration

	// Redis для меток отправки (опционально)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Почта
	SendgridAPIKey string
	MailFrom       string
	MailFromName   string

	// Telegram для отчётов оператору (опционально)
	TelegramToken       string
	TelegramAdminChatID int64
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return FromEnv(os.Getenv)
}

// FromEnv собирает конфиг из переданного источника переменных
func FromEnv(getenv func(string) string) (*Config, error) {
	p := parser{getenv: getenv}

	cfg := &Config{
		DBDSN:              getenv("DB_DSN"),
		Environment:        p.str("ENV", "development"),
		LogLevel:           p.str("LOG_LEVEL", "info"),
		MigrationsDisabled: p.boolean("MIGRATIONS_DISABLED", false),

		TickInterval:       p.duration("TICK_INTERVAL", time.Minute),
		Lookahead:          p.duration("LOOKAHEAD", 10*time.Minute),
		CredentialTTL:      p.duration("CREDENTIAL_TTL", time.Hour),
		MatchMode:          p.str("MATCH_MODE", MatchModeWallClock),
		DedupPolicy:        p.str("DEDUP_POLICY", DedupOncePerOccurrence),
		MaxInFlight:        p.integer("MAX_IN_FLIGHT", 4),
		DeliveryRatePerSec: p.integer("DELIVERY_RATE_PER_SEC", 5),
		MatchTimeout:       p.duration("MATCH_TIMEOUT", 30*time.Second),

		RedisAddr:     getenv("REDIS_ADDR"),
		RedisPassword: getenv("REDIS_PASSWORD"),
		RedisDB:       p.integer("REDIS_DB", 0),

		SendgridAPIKey: getenv("SENDGRID_API_KEY"),
		MailFrom:       p.str("MAIL_FROM", "onboarding@smartclass.local"),
		MailFromName:   p.str("MAIL_FROM_NAME", "Smart Class Management"),

		TelegramToken:       getenv("TELEGRAM_TOKEN"),
		TelegramAdminChatID: int64(p.integer("TELEGRAM_ADMIN_CHAT_ID", 0)),
	}

	tz := p.str("TIMEZONE", "Local")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		p.fail("TIMEZONE", tz, err)
	}
	cfg.Location = loc

	if p.err != nil {
		return nil, p.err
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Printf("Config loaded\n")

	return cfg, nil
}

func (c *Config) validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("TICK_INTERVAL must be positive")
	}
	if c.Lookahead < 0 {
		return fmt.Errorf("LOOKAHEAD must not be negative")
	}
	if c.CredentialTTL <= 0 {
		return fmt.Errorf("CREDENTIAL_TTL must be positive")
	}
	if c.MatchMode != MatchModeWallClock && c.MatchMode != MatchModeMinuteOfWeek {
		return fmt.Errorf("unknown MATCH_MODE %q", c.MatchMode)
	}
	if c.DedupPolicy != DedupOncePerOccurrence && c.DedupPolicy != DedupEveryTick {
		return fmt.Errorf("unknown DEDUP_POLICY %q", c.DedupPolicy)
	}
	if c.MaxInFlight <= 0 {
		return fmt.Errorf("MAX_IN_FLIGHT must be positive")
	}
	if c.DeliveryRatePerSec <= 0 {
		return fmt.Errorf("DELIVERY_RATE_PER_SEC must be positive")
	}
	if c.TelegramAdminChatID != 0 && c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_ADMIN_CHAT_ID requires TELEGRAM_TOKEN")
	}
	return nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// parser запоминает первую ошибку разбора
type parser struct {
	getenv func(string) string
	err    error
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
}

func (p *parser) str(key, def string) string {
	if v := p.getenv(key); v != "" {
		return v
	}
	return def
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return d
}

func (p *parser) integer(key string, def int) int {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p *parser) boolean(key string, def bool) bool {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return b
}
