package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/pders01/reel/internal/debuglog"
)

const envPrefix = "REEL"

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Search   SearchConfig   `mapstructure:"search"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Feed     FeedConfig     `mapstructure:"feed"`
	UI       UIConfig       `mapstructure:"ui"`
	Opener   OpenerConfig   `mapstructure:"opener"`
	Keys     KeyConfig      `mapstructure:"keys"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

type SearchConfig struct {
	Debounce       time.Duration `mapstructure:"debounce"`
	Limit          int           `mapstructure:"limit"`
	MinQueryLength int           `mapstructure:"min_query_length"`
}

type CatalogConfig struct {
	// Source is "fake" for the bundled sample catalog or "tmdb".
	Source          string     `mapstructure:"source"`
	SimulateLatency bool       `mapstructure:"simulate_latency"`
	TMDB            TMDBConfig `mapstructure:"tmdb"`
}

type TMDBConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	AccessToken   string        `mapstructure:"access_token"`
	Language      string        `mapstructure:"language"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
	UserAgent     string        `mapstructure:"user_agent"`
}

type FeedConfig struct {
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
}

type UIConfig struct {
	Colors UIColors `mapstructure:"colors"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
}

type OpenerConfig struct {
	DefaultOpener string `mapstructure:"default_opener"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit       string `mapstructure:"quit"`
	Search     string `mapstructure:"search"`
	Refresh    string `mapstructure:"refresh"`
	Favorite   string `mapstructure:"favorite"`
	Watchlist  string `mapstructure:"watchlist"`
	Open       string `mapstructure:"open"`
	ClearError string `mapstructure:"clear_error"`
	Back       string `mapstructure:"back"`
	Help       string `mapstructure:"help"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dbPath := filepath.Join(homeDir, ".reel.db")
	searchIndexPath := filepath.Join(homeDir, ".reel", "index.bleve")

	return &Config{
		Database: DatabaseConfig{
			Path:        dbPath,
			Timeout:     1 * time.Second,
			SearchIndex: searchIndexPath,
		},
		Search: SearchConfig{
			Debounce:       300 * time.Millisecond,
			Limit:          20,
			MinQueryLength: 2,
		},
		Catalog: CatalogConfig{
			Source:          "fake",
			SimulateLatency: true,
			TMDB: TMDBConfig{
				BaseURL:       "https://api.themoviedb.org/3",
				Language:      "en-US",
				Timeout:       10 * time.Second,
				RatePerSecond: 20,
				Burst:         5,
				UserAgent:     "reel/1.0 (https://github.com/pders01/reel)",
			},
		},
		Feed: FeedConfig{
			HTTPTimeout: 30 * time.Second,
			UserAgent:   "reel/1.0 (https://github.com/pders01/reel)",
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:    "#FF6B6B",
				Secondary:  "#4ECDC4",
				Accent:     "#95E1D3",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
		},
		Opener: OpenerConfig{
			DefaultOpener: getDefaultOpener(),
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:       "q",
				Search:     "s",
				Refresh:    "r",
				Favorite:   "f",
				Watchlist:  "w",
				Open:       "o",
				ClearError: "e",
				Back:       "esc",
				Help:       "?",
			},
		},
		Log: LogConfig{
			Level: "off",
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "reel", "config.toml")
}

// settings flattens cfg into dotted viper keys. Every leaf is listed so that
// environment overrides such as REEL_CATALOG_TMDB_API_KEY resolve.
func settings(cfg *Config) map[string]interface{} {
	return map[string]interface{}{
		"database.path":         cfg.Database.Path,
		"database.timeout":      cfg.Database.Timeout.String(),
		"database.search_index": cfg.Database.SearchIndex,

		"search.debounce":         cfg.Search.Debounce.String(),
		"search.limit":            cfg.Search.Limit,
		"search.min_query_length": cfg.Search.MinQueryLength,

		"catalog.source":               cfg.Catalog.Source,
		"catalog.simulate_latency":     cfg.Catalog.SimulateLatency,
		"catalog.tmdb.base_url":        cfg.Catalog.TMDB.BaseURL,
		"catalog.tmdb.api_key":         cfg.Catalog.TMDB.APIKey,
		"catalog.tmdb.access_token":    cfg.Catalog.TMDB.AccessToken,
		"catalog.tmdb.language":        cfg.Catalog.TMDB.Language,
		"catalog.tmdb.timeout":         cfg.Catalog.TMDB.Timeout.String(),
		"catalog.tmdb.rate_per_second": cfg.Catalog.TMDB.RatePerSecond,
		"catalog.tmdb.burst":           cfg.Catalog.TMDB.Burst,
		"catalog.tmdb.user_agent":      cfg.Catalog.TMDB.UserAgent,

		"feed.http_timeout": cfg.Feed.HTTPTimeout.String(),
		"feed.user_agent":   cfg.Feed.UserAgent,

		"ui.colors.primary":    cfg.UI.Colors.Primary,
		"ui.colors.secondary":  cfg.UI.Colors.Secondary,
		"ui.colors.accent":     cfg.UI.Colors.Accent,
		"ui.colors.background": cfg.UI.Colors.Background,
		"ui.colors.surface":    cfg.UI.Colors.Surface,
		"ui.colors.text":       cfg.UI.Colors.Text,
		"ui.colors.muted":      cfg.UI.Colors.Muted,
		"ui.colors.error":      cfg.UI.Colors.Error,
		"ui.colors.success":    cfg.UI.Colors.Success,

		"opener.default_opener": cfg.Opener.DefaultOpener,

		"keys.modifier":             cfg.Keys.Modifier,
		"keys.bindings.quit":        cfg.Keys.Bindings.Quit,
		"keys.bindings.search":      cfg.Keys.Bindings.Search,
		"keys.bindings.refresh":     cfg.Keys.Bindings.Refresh,
		"keys.bindings.favorite":    cfg.Keys.Bindings.Favorite,
		"keys.bindings.watchlist":   cfg.Keys.Bindings.Watchlist,
		"keys.bindings.open":        cfg.Keys.Bindings.Open,
		"keys.bindings.clear_error": cfg.Keys.Bindings.ClearError,
		"keys.bindings.back":        cfg.Keys.Bindings.Back,
		"keys.bindings.help":        cfg.Keys.Bindings.Help,

		"log.level": cfg.Log.Level,
		"log.file":  cfg.Log.File,
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	for k, val := range settings(defaultConfig()) {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func Load(configPath string) (*Config, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "reel")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand paths after loading
	expandPaths(&config)

	return &config, nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Log.File = expandPath(cfg.Log.File)
}

func Save(config *Config, path string) error {
	v := viper.New()
	for k, val := range settings(config) {
		v.Set(k, val)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}

// Watch reloads the config file at path whenever it is written and passes
// the result to onChange. Reload failures are logged and skipped.
func Watch(path string, onChange func(*Config)) error {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			debuglog.Warnf("config reload %s: %v", e.Name, err)
			return
		}
		debuglog.Infof("config reloaded from %s", e.Name)
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}
