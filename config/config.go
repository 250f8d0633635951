package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/spektr-org/ednadash/engine"
	"github.com/spektr-org/ednadash/schema"
)

// EnvPrefix prefixes environment overrides: EDNADASH_DATA_LOCATION.
const EnvPrefix = "EDNADASH"

type Config struct {
	Data struct {
		// Location is a base URL (http/https) or a local directory.
		Location string `mapstructure:"location"`
		Prefix   string `mapstructure:"prefix"`
	} `mapstructure:"data"`

	Table struct {
		ItemsPerPage int `mapstructure:"items_per_page"`
	} `mapstructure:"table"`

	Load struct {
		Timeout      time.Duration `mapstructure:"timeout"`
		VerifyAssets bool          `mapstructure:"verify_assets"`
	} `mapstructure:"load"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Shell struct {
		Prompt      string `mapstructure:"prompt"`
		HistoryFile string `mapstructure:"history_file"`
	} `mapstructure:"shell"`

	// Columns adjusts table columns: artifact name → column key → override.
	Columns map[string]map[string]schema.ColumnOverride `mapstructure:"columns"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.location", ".")
	v.SetDefault("data.prefix", "/data")
	v.SetDefault("table.items_per_page", 10)
	v.SetDefault("load.timeout", 30*time.Second)
	v.SetDefault("load.verify_assets", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("shell.prompt", "ednadash> ")
	v.SetDefault("shell.history_file", "")
}

// LoadConfig reads path (YAML) over the defaults, then applies EDNADASH_*
// environment overrides. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var (
	errNoLocation   = errors.New("data.location is required")
	errItemsPerPage = errors.New("table.items_per_page must be positive")
	errTimeout      = errors.New("load.timeout must not be negative")
	errLogFormat    = errors.New("log.format must be console or json")
	errLogLevel     = errors.New("log.level is not a zerolog level")
	errColumnKind   = errors.New("columns: unknown kind")
	errColumnRender = errors.New("columns: bad render spec")
)

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Data.Location) == "" {
		errs = append(errs, errNoLocation)
	}
	if c.Table.ItemsPerPage <= 0 {
		errs = append(errs, fmt.Errorf("%w: %d", errItemsPerPage, c.Table.ItemsPerPage))
	}
	if c.Load.Timeout < 0 {
		errs = append(errs, errTimeout)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: %q", errLogFormat, c.Log.Format))
	}
	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		errs = append(errs, fmt.Errorf("%w: %q", errLogLevel, c.Log.Level))
	}
	for table, cols := range c.Columns {
		for key, o := range cols {
			if o.Kind != "" && !o.Kind.Valid() {
				errs = append(errs, fmt.Errorf("%w: %s.%s: %q", errColumnKind, table, key, o.Kind))
			}
			if _, err := engine.ParseRenderer(o.Render); err != nil {
				errs = append(errs, fmt.Errorf("%w: %s.%s: %w", errColumnRender, table, key, err))
			}
		}
	}
	return errors.Join(errs...)
}
