package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/goserg/blockcleaner/internal/domain"
	"github.com/goserg/blockcleaner/internal/ratelimit"
)

const DefaultPath = "configs/blockcleaner.toml"

const (
	ModeLocal  = "local"
	ModeRemote = "remote"

	BackendFile  = "file"
	BackendRedis = "redis"
)

var (
	ErrInvalidMode      = errors.New("client.mode must be local or remote")
	ErrInvalidBackend   = errors.New("snapshot.backend must be file or redis")
	ErrInvalidThreshold = errors.New("cleanup.threshold must be at least 1")
	ErrInvalidLimit     = errors.New("cleanup.limit must not be negative")
	ErrInvalidSelfRank  = errors.New("cleanup.self_rank is not a valid standing")
	ErrMissingSelf      = errors.New("remote mode needs remote.self_game_name and remote.self_tag_line or cleanup.self_rank")
)

type Client struct {
	Mode         string           `toml:"mode"`
	ProcessNames []string         `toml:"process_names"`
	Timeout      time.Duration    `toml:"timeout"`
	Limits       ratelimit.Config `toml:"limits"`
}

type Remote struct {
	RegionalURL  string `toml:"regional_url"`
	PlatformURL  string `toml:"platform_url"`
	APIKey       string `toml:"api_key"`
	SelfGameName string `toml:"self_game_name"`
	SelfTagLine  string `toml:"self_tag_line"`
}

type Cleanup struct {
	Threshold    int           `toml:"threshold"`
	Limit        int           `toml:"limit"`
	RemovalPause time.Duration `toml:"removal_pause"`
	SelfRank     string        `toml:"self_rank"`
	ReportPath   string        `toml:"report_path"`
}

type Snapshot struct {
	Backend       string `toml:"backend"`
	Path          string `toml:"path"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	RedisKey      string `toml:"redis_key"`
}

type Server struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	MetricsAddr string `toml:"metrics_addr"`
	Debug       bool   `toml:"debug_mode"`
}

type Notify struct {
	TelegramToken string `toml:"telegram_token"`
	ChatID        int64  `toml:"chat_id"`
}

type Log struct {
	Level string `toml:"level"`
}

type Config struct {
	Client   Client
	Remote   Remote
	Cleanup  Cleanup
	Snapshot Snapshot
	Server   Server
	Notify   Notify
	Log      Log
}

func Default() Config {
	return Config{
		Client: Client{
			Mode:         ModeLocal,
			ProcessNames: []string{"LeagueClientUx.exe", "LeagueClientUx"},
			Timeout:      10 * time.Second,
		},
		Remote: Remote{
			RegionalURL: "https://americas.api.riotgames.com",
			PlatformURL: "https://br1.api.riotgames.com",
		},
		Cleanup: Cleanup{
			Threshold:    3,
			RemovalPause: 500 * time.Millisecond,
		},
		Snapshot: Snapshot{
			Backend:   BackendFile,
			Path:      "bloqueados.json",
			RedisAddr: "localhost:6379",
			RedisKey:  "blockcleaner:snapshot",
		},
		Server: Server{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Log: Log{Level: "info"},
	}
}

// New reads path over the defaults. A missing file is not an error.
// Secrets from the environment win over the file.
func New(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if key := os.Getenv("RIOT_API_KEY"); key != "" {
		cfg.Remote.APIKey = key
	}
	if token := os.Getenv("TELEGRAM_APITOKEN"); token != "" {
		cfg.Notify.TelegramToken = token
	}
	if pass := os.Getenv("BLOCKCLEANER_REDIS_PASSWORD"); pass != "" {
		cfg.Snapshot.RedisPassword = pass
	}
	if cfg.Client.Limits == (ratelimit.Config{}) {
		cfg.Client.Limits = cfg.DefaultLimits()
	}
	return cfg, nil
}

// DefaultLimits returns the ceilings for the configured client mode.
func (c Config) DefaultLimits() ratelimit.Config {
	if c.Client.Mode == ModeRemote {
		return ratelimit.RemoteDefaults()
	}
	return ratelimit.LocalDefaults()
}

func (c Config) Validate() error {
	var errs []error
	if c.Client.Mode != ModeLocal && c.Client.Mode != ModeRemote {
		errs = append(errs, fmt.Errorf("%w, got %q", ErrInvalidMode, c.Client.Mode))
	}
	if c.Snapshot.Backend != BackendFile && c.Snapshot.Backend != BackendRedis {
		errs = append(errs, fmt.Errorf("%w, got %q", ErrInvalidBackend, c.Snapshot.Backend))
	}
	if c.Cleanup.Threshold < 1 {
		errs = append(errs, ErrInvalidThreshold)
	}
	if c.Cleanup.Limit < 0 {
		errs = append(errs, ErrInvalidLimit)
	}
	if c.Cleanup.SelfRank != "" {
		if _, err := domain.ParseStanding(c.Cleanup.SelfRank); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidSelfRank, err))
		}
	}
	if c.Client.Mode == ModeRemote && c.Cleanup.SelfRank == "" &&
		(c.Remote.SelfGameName == "" || c.Remote.SelfTagLine == "") {
		errs = append(errs, ErrMissingSelf)
	}
	return errors.Join(errs...)
}
