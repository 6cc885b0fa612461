package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Anna      AnnaConfig     `mapstructure:"anna"`
	Downloads DownloadConfig `mapstructure:"downloads"`
	Network   NetworkConfig  `mapstructure:"network"`
	History   HistoryConfig  `mapstructure:"history"`
	Log       LogConfig      `mapstructure:"log"`
}

// AnnaConfig holds Anna's Archive settings
type AnnaConfig struct {
	SecretKey string `mapstructure:"secret_key"`
	BaseURL   string `mapstructure:"base_url"`
}

// DownloadConfig holds download settings
type DownloadConfig struct {
	Path           string `mapstructure:"path"`
	VerifyChecksum bool   `mapstructure:"verify_checksum"`
}

// NetworkConfig holds network settings
type NetworkConfig struct {
	PageTimeout     time.Duration `mapstructure:"page_timeout"`
	APITimeout      time.Duration `mapstructure:"api_timeout"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	UserAgent       string        `mapstructure:"user_agent"`
	IPv4Only        bool          `mapstructure:"ipv4_only"`
	BrowserFallback bool          `mapstructure:"browser_fallback"`
}

// HistoryConfig controls the local search/download journal
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LogConfig holds diagnostic logging settings
type LogConfig struct {
	Level string `mapstructure:"level"`
}

const (
	// DefaultBaseURL is the archive host used when none is configured
	DefaultBaseURL = "annas-archive.org"
	// ResultsFile is the name of the search results artifact inside the download dir
	ResultsFile = "search_results.json"
)

// GetConfigDir returns the configuration directory path
func GetConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "annas")
}

// GetDBPath returns the database file path
func GetDBPath() string {
	return filepath.Join(GetConfigDir(), "annas.db")
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// newViper builds a viper instance with defaults, env bindings and the
// config file location. The file itself is not read.
func newViper(cfgFile string) *viper.Viper {
	v := viper.New()

	v.SetDefault("anna.base_url", DefaultBaseURL)
	v.SetDefault("anna.secret_key", "")
	v.SetDefault("downloads.path", "~/Downloads/books")
	v.SetDefault("downloads.verify_checksum", true)
	v.SetDefault("network.page_timeout", 30*time.Second)
	v.SetDefault("network.api_timeout", 30*time.Second)
	v.SetDefault("network.download_timeout", 60*time.Second)
	v.SetDefault("network.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("network.ipv4_only", true)
	v.SetDefault("network.browser_fallback", false)
	v.SetDefault("history.enabled", true)
	v.SetDefault("log.level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(GetConfigDir())
	}

	// Environment variable overrides
	v.SetEnvPrefix("ANNAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("anna.secret_key", "ANNAS_SECRET_KEY")
	_ = v.BindEnv("downloads.path", "ANNAS_DOWNLOAD_PATH")
	_ = v.BindEnv("log.level", "ANNAS_LOG_LEVEL")

	return v
}

// Load reads configuration from defaults, the config file (if present) and
// the environment.
func Load(cfgFile string) (*Config, error) {
	v := newViper(cfgFile)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicitly named file must exist; the default location is optional.
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Downloads.Path = expandPath(cfg.Downloads.Path)
	return cfg, nil
}

// Set writes a configuration value to the config file. Only values already
// in the file and the new one are written, never defaults or environment.
func Set(cfgFile, key, value string) error {
	path := cfgFile
	if path == "" {
		path = GetConfigPath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read config: %w", err)
	}
	v.Set(key, value)

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return v.WriteConfigAs(path)
}

// GetValue retrieves a configuration value
func GetValue(cfgFile, key string) interface{} {
	v := newViper(cfgFile)
	_ = v.ReadInConfig()
	if !v.IsSet(key) {
		return nil
	}
	return v.Get(key)
}

// SiteURL returns the archive's canonical base URL with a scheme.
func (a AnnaConfig) SiteURL() string {
	base := strings.TrimSpace(a.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	return strings.TrimRight(base, "/")
}

// ResultsPath returns where search results are persisted
func (d DownloadConfig) ResultsPath() string {
	return filepath.Join(d.Path, ResultsFile)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
