// Package config loads cnkicrawl settings from defaults, a YAML file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. CNKICRAWL_MAX_PAGES.
	EnvPrefix = "CNKICRAWL"
	fileName  = "cnkicrawl"
)

// Config is the resolved configuration of one run.
type Config struct {
	BaseURL       string        `mapstructure:"base_url"`
	Profile       string        `mapstructure:"profile"`
	Headless      bool          `mapstructure:"headless"`
	WaitTimeout   time.Duration `mapstructure:"wait_timeout"`
	SearchDelay   time.Duration `mapstructure:"search_delay"`
	PageDelay     time.Duration `mapstructure:"page_delay"`
	MaxPages      int           `mapstructure:"max_pages"`
	BatchMaxPages int           `mapstructure:"batch_max_pages"`
	OutputDir     string        `mapstructure:"output_dir"`
	UserAgent     string        `mapstructure:"user_agent"`
	WindowSize    string        `mapstructure:"window_size"`
	Proxy         string        `mapstructure:"proxy"`
	Dedupe        bool          `mapstructure:"dedupe"`
	HistoryDB     string        `mapstructure:"history_db"`
	LogLevel      string        `mapstructure:"log_level"`
}

// DefaultUserAgent is a desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// New returns a viper instance carrying every default and the environment
// binding. Flags are bound by the caller.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("base_url", "https://kns.cnki.net")
	v.SetDefault("profile", "improved")
	v.SetDefault("headless", true)
	v.SetDefault("wait_timeout", time.Duration(0)) // 0: the profile's own bound
	v.SetDefault("search_delay", 3*time.Second)
	v.SetDefault("page_delay", 2*time.Second)
	v.SetDefault("max_pages", 5)
	v.SetDefault("batch_max_pages", 2)
	v.SetDefault("output_dir", "output")
	v.SetDefault("user_agent", DefaultUserAgent)
	v.SetDefault("window_size", "1920,1080")
	v.SetDefault("proxy", "")
	v.SetDefault("dedupe", false)
	v.SetDefault("history_db", defaultHistoryDB())
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

func defaultHistoryDB() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "history.db"
	}
	return filepath.Join(home, ".config", fileName, "history.db")
}

// ReadFile reads cfgFile, or searches ./cnkicrawl.yaml and
// ~/.config/cnkicrawl/cnkicrawl.yaml when cfgFile is empty. It returns the file
// used, or "" when none was found.
func ReadFile(v *viper.Viper, cfgFile string) (string, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(fileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", fileName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		secondsHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// secondsHook decodes bare numbers, such as "page_delay: 2" or
// CNKICRAWL_PAGE_DELAY=2, as seconds. Strings with a unit ("2s", "500ms")
// are left to the duration hook.
func secondsHook(from, to reflect.Type, data any) (any, error) {
	if to != durationType || from == durationType {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return time.Duration(reflect.ValueOf(data).Int()) * time.Second, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return time.Duration(reflect.ValueOf(data).Uint()) * time.Second, nil
	case reflect.Float32, reflect.Float64:
		return time.Duration(reflect.ValueOf(data).Float() * float64(time.Second)), nil
	case reflect.String:
		if f, err := strconv.ParseFloat(data.(string), 64); err == nil {
			return time.Duration(f * float64(time.Second)), nil
		}
	}
	return data, nil
}

// Validate rejects values no run can work with.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url must not be empty")
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("max_pages must be at least 1, got %d", c.MaxPages)
	}
	if c.BatchMaxPages < 1 {
		return fmt.Errorf("batch_max_pages must be at least 1, got %d", c.BatchMaxPages)
	}
	if c.WaitTimeout < 0 || c.SearchDelay < 0 || c.PageDelay < 0 {
		return errors.New("durations must not be negative")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	return nil
}
