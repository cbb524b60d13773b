// Package config resolves memorynet settings from defaults, memorynet.yaml,
// MEMORYNET_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "MEMORYNET"
	configName = "memorynet"
	configType = "yaml"
)

const (
	defaultSyncMode     = "FULL"
	defaultHTTPListen   = "127.0.0.1:8480"
	defaultMaxCitations = 3
	defaultTimezone     = "Local"
)

type Config struct {
	DB       DBConfig       `mapstructure:"db"`
	User     UserConfig     `mapstructure:"user"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Log      LogConfig      `mapstructure:"log"`
	Brain    BrainConfig    `mapstructure:"brain"`
	Timeline TimelineConfig `mapstructure:"timeline"`
}

type DBConfig struct {
	// Path is the SQLite file. Empty means the platform default.
	Path string `mapstructure:"path"`
	WAL  bool   `mapstructure:"wal"`
	Sync string `mapstructure:"sync"`
}

type UserConfig struct {
	Email string `mapstructure:"email"`
}

type HTTPConfig struct {
	Listen string `mapstructure:"listen"`
}

type LogConfig struct {
	Debug bool `mapstructure:"debug"`
}

type BrainConfig struct {
	MaxCitations int `mapstructure:"max_citations"`
}

type TimelineConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// Location resolves Timeline.Timezone. "Local" and "" mean time.Local.
func (c Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Timeline.Timezone)
	if tz == "" || tz == defaultTimezone {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timeline.timezone %q: %w", tz, err)
	}
	return loc, nil
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"db":            "db.path",
	"wal":           "db.wal",
	"sync":          "db.sync",
	"user":          "user.email",
	"listen":        "http.listen",
	"debug":         "log.debug",
	"max-citations": "brain.max_citations",
	"tz":            "timeline.timezone",
}

// InitViper returns a viper instance with defaults, the config file and the
// environment wired in. configFile overrides discovery in configDirs; a
// missing discovered file is not an error, a missing explicit one is.
func InitViper(configFile string, configDirs ...string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		for _, dir := range configDirs {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db.path", "")
	v.SetDefault("db.wal", false)
	v.SetDefault("db.sync", defaultSyncMode)
	v.SetDefault("user.email", "")
	v.SetDefault("http.listen", defaultHTTPListen)
	v.SetDefault("log.debug", false)
	v.SetDefault("brain.max_citations", defaultMaxCitations)
	v.SetDefault("timeline.timezone", defaultTimezone)
}

// BindFlags binds every known flag present in flags. Call it once the
// command's flags are parsed.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}

// Load decodes v into a Config.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Brain.MaxCitations <= 0 {
		return Config{}, fmt.Errorf("brain.max_citations must be positive, got %d", cfg.Brain.MaxCitations)
	}
	return cfg, nil
}
