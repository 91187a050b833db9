package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

const (
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
)

type Config struct {
	Port            int           `env:"PORT,default=8080"`
	StoreDriver     string        `env:"STORE_DRIVER,default=postgres"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	BadgerPath      string        `env:"BADGER_PATH"`
	RedisURL        string        `env:"REDIS_URL"`
	JWTSecret       string        `env:"JWT_SECRET,required=true"`
	TokenDuration   time.Duration `env:"TOKEN_DURATION,default=24h"`
	LogLevel        string        `env:"LOG_LEVEL,default=info"`
	RoomUniqueNames bool          `env:"ROOM_UNIQUE_NAMES,default=true"`
	CensoredWords   string        `env:"CENSORED_WORDS"`
	CensorChar      string        `env:"CENSOR_CHAR,default=*"`
	HistoryLimit    int           `env:"HISTORY_LIMIT,default=50"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	Origins         string        `env:"ALLOWED_ORIGINS"`
}

// Load reads .env.local, then .env, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(".env.local"); err != nil {
		// a missing .env is fine, the environment may carry everything
		_ = godotenv.Load()
	}
	es, err := env.EnvironToEnvSet(os.Environ())
	if err != nil {
		return Config{}, err
	}
	return Parse(es)
}

func Parse(es env.EnvSet) (Config, error) {
	var cfg Config
	if err := env.Unmarshal(es, &cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case DriverBadger:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverBadger, c.StoreDriver)
	}
	if _, err := c.CensorRune(); err != nil {
		return err
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("HISTORY_LIMIT must be positive, got %d", c.HistoryLimit)
	}
	return nil
}

// Words splits CENSORED_WORDS on commas.
func (c Config) Words() []string {
	return splitList(c.CensoredWords)
}

func splitList(raw string) []string {
	items := lo.Map(strings.Split(raw, ","), func(w string, _ int) string {
		return strings.TrimSpace(w)
	})
	return lo.Compact(items)
}

// AllowedOrigins lists websocket origins. Empty accepts any origin.
func (c Config) AllowedOrigins() []string {
	return splitList(c.Origins)
}

func (c Config) CensorRune() (rune, error) {
	r := []rune(c.CensorChar)
	if len(r) != 1 {
		return 0, fmt.Errorf("CENSOR_CHAR must be a single character, got %q", c.CensorChar)
	}
	return r[0], nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
