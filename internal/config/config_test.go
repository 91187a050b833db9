package config

import (
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	req := require.New(t)

	cfg, err := Parse(env.EnvSet{
		"JWT_SECRET":   "secret",
		"DATABASE_URL": "postgres://localhost/hr",
	})

	req.NoError(err)
	req.Equal(8080, cfg.Port)
	req.Equal(":8080", cfg.Addr())
	req.Equal(DriverPostgres, cfg.StoreDriver)
	req.True(cfg.RoomUniqueNames)
	req.Equal(24*time.Hour, cfg.TokenDuration)
	req.Equal(50, cfg.HistoryLimit)
	req.Empty(cfg.Words())
	r, err := cfg.CensorRune()
	req.NoError(err)
	req.Equal('*', r)
}

func TestParse_Badger(t *testing.T) {
	req := require.New(t)

	cfg, err := Parse(env.EnvSet{
		"JWT_SECRET":        "secret",
		"STORE_DRIVER":      "badger",
		"ROOM_UNIQUE_NAMES": "false",
		"CENSORED_WORDS":    "darn, heck ,,",
	})

	req.NoError(err)
	req.False(cfg.RoomUniqueNames)
	req.Equal([]string{"darn", "heck"}, cfg.Words())
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]env.EnvSet{
		"missing secret":   {"DATABASE_URL": "postgres://localhost/hr"},
		"postgres no url":  {"JWT_SECRET": "s"},
		"unknown driver":   {"JWT_SECRET": "s", "STORE_DRIVER": "mongo"},
		"long censor char": {"JWT_SECRET": "s", "STORE_DRIVER": "badger", "CENSOR_CHAR": "**"},
	}

	for name, es := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(es)
			require.Error(t, err)
		})
	}
}

func TestParse_AllowedOrigins(t *testing.T) {
	cfg, err := Parse(env.EnvSet{
		"JWT_SECRET":      "secret",
		"STORE_DRIVER":    "badger",
		"ALLOWED_ORIGINS": "https://hr.example.com, https://admin.example.com",
	})

	require.NoError(t, err)
	require.Equal(t, []string{"https://hr.example.com", "https://admin.example.com"}, cfg.AllowedOrigins())
}
