package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"journal/auth"
	"journal/crypto"
)

type Config struct {
	AppName       string `json:"app_name"`
	ListenIP      string `json:"listen_ip"`
	ListenPort    int    `json:"listen_port"`
	DatabaseURL   string `json:"database_url"`
	AuthUsername  string `json:"auth_username"`
	AuthPassword  string `json:"auth_password"` // pre-hashed, bcrypt or argon2id
	AuthSecret    string `json:"auth_secret"`
	SessionMaxAge int    `json:"session_max_age"` // seconds
	SecureCookies bool   `json:"secure_cookies"`

	// GeneratedSecret is set when AuthSecret was missing and a random one
	// was created. Tickets will not survive a restart.
	GeneratedSecret bool `json:"-"`
}

func Defaults() Config {
	return Config{
		AppName:       "Learning Journal",
		ListenIP:      "127.0.0.1",
		ListenPort:    6543,
		DatabaseURL:   "./journal.db",
		SessionMaxAge: 86400 * 7,
	}
}

// Load builds a Config from defaults, then the JSON file at path (skipped
// when path is empty), then the environment.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, err
		}
		defer file.Close()

		if err := json.NewDecoder(file).Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	// No key, or the placeholder: generate a random one
	if cfg.AuthSecret == "" || cfg.AuthSecret == "CHANGE_ME_IN_PRODUCTION" {
		key, err := crypto.RandomKey(32)
		if err != nil {
			return Config{}, err
		}
		cfg.AuthSecret = key
		cfg.GeneratedSecret = true
	}

	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("AUTH_USERNAME"); v != "" {
		cfg.AuthUsername = v
	}
	if v := os.Getenv("AUTH_PASSWORD"); v != "" {
		cfg.AuthPassword = v
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		cfg.AuthSecret = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("JOURNAL_LISTEN_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("JOURNAL_LISTEN_PORT: %w", err)
		}
		cfg.ListenPort = port
	}
	return nil
}

func (c Config) Validate() error {
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return fmt.Errorf("listen port out of range: %d", c.ListenPort)
	}
	if c.DatabaseURL == "" {
		return errors.New("database url is required")
	}
	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("session max age must be positive: %d", c.SessionMaxAge)
	}
	return nil
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ListenIP, c.ListenPort)
}

// Credentials returns the single identity allowed to log in.
func (c Config) Credentials() auth.Credentials {
	return auth.Credentials{Username: c.AuthUsername, PasswordHash: c.AuthPassword}
}
