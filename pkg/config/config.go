package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	ConfigFileName = ".rplantdash.json"
	PrefsFileName  = ".rplantdash-prefs.json"

	DefaultBaseURL = "https://pool.rplant.xyz"
	DefaultCoin    = "skydoge"
	DefaultWallet  = "39LufvKS7pjW6yzqZXp2VKnogvtutUuWVc"
)

// PoolConfig identifies the pool API and the wallet being monitored.
type PoolConfig struct {
	BaseURL               string `json:"base_url"`
	Coin                  string `json:"coin"`
	Wallet                string `json:"wallet"`
	ExplorerURL           string `json:"explorer_url,omitempty"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds,omitempty"`
}

// Config holds application-wide settings.
type Config struct {
	Pool                   PoolConfig `json:"pool"`
	PollIntervalSeconds    int        `json:"poll_interval_seconds"`
	RefreshCooldownSeconds int        `json:"refresh_cooldown_seconds"`
	PrefsPath              string     `json:"prefs_path"`
	LogFile                string     `json:"log_file,omitempty"`
	LogLevel               string     `json:"log_level"`
	LogFormat              string     `json:"log_format"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	prefsPath := PrefsFileName
	if home, err := os.UserHomeDir(); err == nil {
		prefsPath = filepath.Join(home, PrefsFileName)
	}
	return Config{
		Pool: PoolConfig{
			BaseURL: DefaultBaseURL,
			Coin:    DefaultCoin,
			Wallet:  DefaultWallet,
		},
		PollIntervalSeconds:    60,
		RefreshCooldownSeconds: 5,
		PrefsPath:              prefsPath,
		LogLevel:               "info",
		LogFormat:              "text",
	}
}

func GetConfigPath(customPath string) (string, error) {
	if customPath != "" {
		return customPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigFileName), nil
}

func LoadConfigFromFile(path string) (Config, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	defer func() { _ = f.Close() }()
	return LoadConfig(f)
}

func LoadConfig(r io.Reader) (Config, error) {
	var raw struct {
		Pool *struct {
			BaseURL               *string `json:"base_url"`
			Coin                  *string `json:"coin"`
			Wallet                *string `json:"wallet"`
			ExplorerURL           *string `json:"explorer_url"`
			RequestTimeoutSeconds *int    `json:"request_timeout_seconds"`
		} `json:"pool"`
		PollIntervalSeconds    *int    `json:"poll_interval_seconds"`
		RefreshCooldownSeconds *int    `json:"refresh_cooldown_seconds"`
		PrefsPath              *string `json:"prefs_path"`
		LogFile                *string `json:"log_file"`
		LogLevel               *string `json:"log_level"`
		LogFormat              *string `json:"log_format"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if p := raw.Pool; p != nil {
		if p.BaseURL != nil {
			cfg.Pool.BaseURL = strings.TrimRight(strings.TrimSpace(*p.BaseURL), "/")
		}
		if p.Coin != nil {
			cfg.Pool.Coin = strings.TrimSpace(*p.Coin)
		}
		if p.Wallet != nil {
			cfg.Pool.Wallet = strings.TrimSpace(*p.Wallet)
		}
		if p.ExplorerURL != nil {
			cfg.Pool.ExplorerURL = strings.TrimSpace(*p.ExplorerURL)
		}
		if p.RequestTimeoutSeconds != nil {
			cfg.Pool.RequestTimeoutSeconds = *p.RequestTimeoutSeconds
		}
	}
	if raw.PollIntervalSeconds != nil {
		cfg.PollIntervalSeconds = *raw.PollIntervalSeconds
	}
	if raw.RefreshCooldownSeconds != nil {
		cfg.RefreshCooldownSeconds = *raw.RefreshCooldownSeconds
	}
	if raw.PrefsPath != nil {
		cfg.PrefsPath = *raw.PrefsPath
	}
	if raw.LogFile != nil {
		cfg.LogFile = *raw.LogFile
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.LogFormat != nil {
		cfg.LogFormat = *raw.LogFormat
	}
	return cfg, nil
}

// Validate reports the first setting that would prevent polling.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Pool.BaseURL) == "" {
		return fmt.Errorf("validation failed: pool base_url is empty")
	}
	if strings.TrimSpace(c.Pool.Coin) == "" {
		return fmt.Errorf("validation failed: pool coin is empty")
	}
	if strings.TrimSpace(c.Pool.Wallet) == "" {
		return fmt.Errorf("validation failed: pool wallet is empty")
	}
	if c.PollIntervalSeconds <= 0 {
		return fmt.Errorf("validation failed: poll_interval_seconds must be positive, got %d", c.PollIntervalSeconds)
	}
	if c.Pool.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("validation failed: request_timeout_seconds must not be negative")
	}
	if strings.TrimSpace(c.PrefsPath) == "" {
		return fmt.Errorf("validation failed: prefs_path is empty")
	}
	return nil
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c Config) RefreshCooldown() time.Duration {
	return time.Duration(c.RefreshCooldownSeconds) * time.Second
}

// RequestTimeout is zero when the transport default applies.
func (c PoolConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
