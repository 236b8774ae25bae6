package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/20after4/configdir"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"mprisbar/player"
)

const appName = "mprisbar"

// Config holds all application configuration
type Config struct {
	Player struct {
		Service    string `mapstructure:"service"`
		ObjectPath string `mapstructure:"object_path"`
		TimeoutMs  int    `mapstructure:"timeout_ms"`
		Workers    int    `mapstructure:"workers"`
	} `mapstructure:"player"`
	UI struct {
		Color     string `mapstructure:"color"`
		ColorMode string `mapstructure:"color_mode"`
		MaxWidth  int    `mapstructure:"max_width"`
	} `mapstructure:"ui"`
	Artwork struct {
		Enabled      bool `mapstructure:"enabled"`
		Padding      int  `mapstructure:"padding"`
		WidthPixels  int  `mapstructure:"width_pixels"`
		WidthColumns int  `mapstructure:"width_columns"`
	} `mapstructure:"artwork"`
	Text struct {
		MaxLengthWithArt int `mapstructure:"max_length_with_art"`
		MaxLengthNoArt   int `mapstructure:"max_length_no_art"`
	} `mapstructure:"text"`
	Timing struct {
		UIRefreshMs int `mapstructure:"ui_refresh_ms"`
		PollMs      int `mapstructure:"poll_ms"`
	} `mapstructure:"timing"`
	Log struct {
		Level string `mapstructure:"level"`
		File  string `mapstructure:"file"`
	} `mapstructure:"log"`
}

// PlayerOptions maps the player section onto bridge options.
func (c Config) PlayerOptions() player.Options {
	return player.Options{
		Service:       c.Player.Service,
		ObjectPath:    c.Player.ObjectPath,
		Timeout:       time.Duration(c.Player.TimeoutMs) * time.Millisecond,
		PollInterval:  time.Duration(c.Timing.PollMs) * time.Millisecond,
		Workers:       c.Player.Workers,
		TrackPosition: true,
	}
}

// SafeConfig wraps Config with thread-safe access
type SafeConfig struct {
	mu  sync.RWMutex
	cfg Config
}

// Get returns a copy of the current config (thread-safe read)
func (sc *SafeConfig) Get() Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.cfg
}

// Set updates the config (thread-safe write)
func (sc *SafeConfig) Set(cfg Config) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.cfg = cfg
}

var config = &SafeConfig{}

// Config file changed notification
type configReloadMsg struct{}

var configChangeChan = make(chan struct{}, 1)

// Watch for config file changes
func watchConfigCmd() tea.Cmd {
	return func() tea.Msg {
		<-configChangeChan
		return configReloadMsg{}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("player.service", player.DefaultService)
	v.SetDefault("player.object_path", player.DefaultObjectPath)
	v.SetDefault("player.timeout_ms", int(player.DefaultTimeout/time.Millisecond))
	v.SetDefault("player.workers", player.DefaultWorkers)
	v.SetDefault("ui.color", "2")
	v.SetDefault("ui.color_mode", "manual")
	v.SetDefault("ui.max_width", 45)
	v.SetDefault("artwork.enabled", true)
	v.SetDefault("artwork.padding", 15)
	v.SetDefault("artwork.width_pixels", 300)
	v.SetDefault("artwork.width_columns", 13)
	v.SetDefault("text.max_length_with_art", 22)
	v.SetDefault("text.max_length_no_art", 36)
	v.SetDefault("timing.ui_refresh_ms", 100)
	v.SetDefault("timing.poll_ms", int(player.DefaultPollInterval/time.Millisecond))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(configdir.LocalCache(appName), appName+".log"))
}

// configDir returns the directory config.yaml is read from.
func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	return configdir.LocalConfig(appName)
}

func initConfig() {
	v := viper.GetViper()
	setDefaults(v)

	// Set config file location following XDG standard
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir())

	// Environment variable support with MPRISBAR_ prefix
	v.SetEnvPrefix("MPRISBAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore error if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: Error reading config file: %v\n", err)
		}
	}

	// Command-line flags take precedence
	if colorFlag != "2" {
		v.Set("ui.color", colorFlag)
	}
	if noArtworkFlag {
		v.Set("artwork.enabled", false)
	}
	if playerFlag != "" {
		v.Set("player.service", player.ServiceName(playerFlag))
	}

	cfg := loadConfig(v, os.Stderr)
	config.Set(cfg)

	// Watch for config file changes and live reload
	v.OnConfigChange(func(e fsnotify.Event) {
		config.Set(loadConfig(v, io.Discard))
		select {
		case configChangeChan <- struct{}{}:
		default:
			// Channel full, skip notification
		}
	})
	v.WatchConfig()
}

// loadConfig unmarshals and validates, writing warnings to w.
func loadConfig(v *viper.Viper, w io.Writer) Config {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		fmt.Fprintf(w, "Warning: Error parsing config: %v\n", err)
	}
	printConfigWarnings(w, validateConfig(&cfg))
	return cfg
}

var (
	ansiColorPattern = regexp.MustCompile(`^[0-9]{1,3}$`)
	hexColorPattern  = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	logLevels        = []string{"trace", "debug", "info", "warn", "error", "disabled"}
)

// isValidColor accepts ANSI codes (0-255 digits) and #RGB / #RRGGBB hex
func isValidColor(color string) bool {
	return ansiColorPattern.MatchString(color) || hexColorPattern.MatchString(color)
}

// validateConfig replaces invalid values with defaults and returns one
// warning per replaced field.
func validateConfig(cfg *Config) []string {
	var warnings []string
	fix := func(field string, bad interface{}, apply func()) {
		warnings = append(warnings, fmt.Sprintf("invalid %s %v, using default", field, bad))
		apply()
	}

	if !strings.HasPrefix(cfg.Player.Service, player.ServicePrefix) {
		fix("player.service", cfg.Player.Service, func() { cfg.Player.Service = player.DefaultService })
	}
	if !strings.HasPrefix(cfg.Player.ObjectPath, "/") {
		fix("player.object_path", cfg.Player.ObjectPath, func() { cfg.Player.ObjectPath = player.DefaultObjectPath })
	}
	if cfg.Player.TimeoutMs <= 0 {
		fix("player.timeout_ms", cfg.Player.TimeoutMs, func() { cfg.Player.TimeoutMs = int(player.DefaultTimeout / time.Millisecond) })
	}
	if cfg.Player.Workers <= 0 || cfg.Player.Workers > 64 {
		fix("player.workers", cfg.Player.Workers, func() { cfg.Player.Workers = player.DefaultWorkers })
	}
	if !isValidColor(cfg.UI.Color) {
		fix("ui.color", cfg.UI.Color, func() { cfg.UI.Color = "2" })
	}
	if cfg.UI.ColorMode != "manual" && cfg.UI.ColorMode != "auto" {
		fix("ui.color_mode", cfg.UI.ColorMode, func() { cfg.UI.ColorMode = "manual" })
	}
	if cfg.UI.MaxWidth < 30 || cfg.UI.MaxWidth > 200 {
		fix("ui.max_width", cfg.UI.MaxWidth, func() { cfg.UI.MaxWidth = 45 })
	}
	if cfg.Artwork.Padding < 0 || cfg.Artwork.Padding > 50 {
		fix("artwork.padding", cfg.Artwork.Padding, func() { cfg.Artwork.Padding = 15 })
	}
	if cfg.Artwork.WidthPixels < 50 || cfg.Artwork.WidthPixels > 1000 {
		fix("artwork.width_pixels", cfg.Artwork.WidthPixels, func() { cfg.Artwork.WidthPixels = 300 })
	}
	if cfg.Artwork.WidthColumns < 5 || cfg.Artwork.WidthColumns > 50 {
		fix("artwork.width_columns", cfg.Artwork.WidthColumns, func() { cfg.Artwork.WidthColumns = 13 })
	}
	if cfg.Text.MaxLengthWithArt < 10 {
		fix("text.max_length_with_art", cfg.Text.MaxLengthWithArt, func() { cfg.Text.MaxLengthWithArt = 22 })
	}
	if cfg.Text.MaxLengthNoArt < 10 {
		fix("text.max_length_no_art", cfg.Text.MaxLengthNoArt, func() { cfg.Text.MaxLengthNoArt = 36 })
	}
	if cfg.Timing.UIRefreshMs < 16 || cfg.Timing.UIRefreshMs > 1000 {
		fix("timing.ui_refresh_ms", cfg.Timing.UIRefreshMs, func() { cfg.Timing.UIRefreshMs = 100 })
	}
	if cfg.Timing.PollMs < 50 || cfg.Timing.PollMs > 60000 {
		fix("timing.poll_ms", cfg.Timing.PollMs, func() { cfg.Timing.PollMs = int(player.DefaultPollInterval / time.Millisecond) })
	}
	if !validLogLevel(cfg.Log.Level) {
		fix("log.level", cfg.Log.Level, func() { cfg.Log.Level = "info" })
	}
	return warnings
}

func validLogLevel(level string) bool {
	for _, l := range logLevels {
		if l == level {
			return true
		}
	}
	return false
}

func printConfigWarnings(w io.Writer, warnings []string) {
	for _, warning := range warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
}
