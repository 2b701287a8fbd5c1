package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// SessionBackend names the store holding the persisted session record.
type SessionBackend string

const (
	SessionBackendSQLite SessionBackend = "sqlite"
	SessionBackendRedis  SessionBackend = "redis"
)

// Duration is a time.Duration that decodes from TOML strings such as "1s" or "500ms".
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText renders the duration in Go syntax.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Auth     AuthConfig     `toml:"auth"`
	Session  SessionConfig  `toml:"session"`
	Board    BoardConfig    `toml:"board"`
	Logging  LoggingConfig  `toml:"logging"`
	UI       UIConfig       `toml:"ui"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type ServerConfig struct {
	HTTPBind       string `toml:"http_bind"`
	APIEndpoint    string `toml:"api_endpoint"`
	MCPEndpoint    string `toml:"mcp_endpoint"`
	EventsEndpoint string `toml:"events_endpoint"`
}

type AuthConfig struct {
	LoginDelay  Duration `toml:"login_delay"`
	InviteDelay Duration `toml:"invite_delay"`
	// TokenSecret signs API bearer tokens. Empty means a random per-process secret.
	TokenSecret   string   `toml:"token_secret"`
	TokenTTL      Duration `toml:"token_ttl"`
	InviteBaseURL string   `toml:"invite_base_url"`
}

type SessionConfig struct {
	Backend   SessionBackend `toml:"backend"`
	RedisAddr string         `toml:"redis_addr"`
	RedisDB   int            `toml:"redis_db"`
	Key       string         `toml:"key"`
}

type BoardConfig struct {
	SeedOnEmpty bool `toml:"seed_on_empty"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

type UIConfig struct {
	ConfirmDelete bool   `toml:"confirm_delete"`
	MarkdownStyle string `toml:"markdown_style"` // dark | light | notty
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Server: ServerConfig{
			HTTPBind:       "127.0.0.1:8080",
			APIEndpoint:    "/api/v1",
			MCPEndpoint:    "/mcp",
			EventsEndpoint: "/events",
		},
		Auth: AuthConfig{
			LoginDelay:    Duration(time.Second),
			InviteDelay:   Duration(500 * time.Millisecond),
			TokenTTL:      Duration(24 * time.Hour),
			InviteBaseURL: "http://localhost:8080",
		},
		Session: SessionConfig{
			Backend:   SessionBackendSQLite,
			RedisAddr: "127.0.0.1:6379",
			Key:       "taskopia_user",
		},
		Board: BoardConfig{
			SeedOnEmpty: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		UI: UIConfig{
			ConfirmDelete: true,
			MarkdownStyle: "dark",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	endpoints := map[string]string{}
	for name, value := range map[string]string{
		"server.api_endpoint":    c.Server.APIEndpoint,
		"server.mcp_endpoint":    c.Server.MCPEndpoint,
		"server.events_endpoint": c.Server.EventsEndpoint,
	} {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if !strings.HasPrefix(value, "/") {
			return fmt.Errorf("%s must start with /: %q", name, value)
		}
		if other, ok := endpoints[value]; ok {
			return fmt.Errorf("%s duplicates %s: %q", name, other, value)
		}
		endpoints[value] = name
	}

	if c.Auth.LoginDelay < 0 {
		return errors.New("auth.login_delay must be >= 0")
	}
	if c.Auth.InviteDelay < 0 {
		return errors.New("auth.invite_delay must be >= 0")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be > 0")
	}
	base := strings.TrimSpace(c.Auth.InviteBaseURL)
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return fmt.Errorf("auth.invite_base_url must be an http(s) URL: %q", base)
	}

	switch c.Session.Backend {
	case SessionBackendSQLite:
	case SessionBackendRedis:
		if strings.TrimSpace(c.Session.RedisAddr) == "" {
			return errors.New("session.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("invalid session.backend: %q", c.Session.Backend)
	}
	if c.Session.RedisDB < 0 {
		return errors.New("session.redis_db must be >= 0")
	}
	if strings.TrimSpace(c.Session.Key) == "" {
		return errors.New("session.key is required")
	}

	switch strings.TrimSpace(strings.ToLower(c.Logging.Level)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	switch strings.TrimSpace(strings.ToLower(c.UI.MarkdownStyle)) {
	case "", "dark", "light", "notty":
	default:
		return fmt.Errorf("invalid ui.markdown_style: %q", c.UI.MarkdownStyle)
	}

	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
