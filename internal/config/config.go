package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"dario.cat/mergo"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/configme/internal/loader"
	"github.com/eugenenazirov/configme/internal/logging"
	"github.com/eugenenazirov/configme/internal/storage"
)

const (
	defaultDir            = "config"
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50

	// OutputYAML prints settings as YAML.
	OutputYAML = "yaml"
	// OutputJSON prints settings as indented JSON.
	OutputJSON = "json"
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	// ConfigFile is the optional YAML file holding these options.
	ConfigFile string `yaml:"-" env:"CONFIGME_CONFIG"`

	Environment string `yaml:"environment" env:"CONFIGME_ENV"`
	Dir         string `yaml:"dir" env:"CONFIGME_DIR"`
	Format      string `yaml:"format" env:"CONFIGME_FORMAT"`
	Output      string `yaml:"output" env:"CONFIGME_OUTPUT"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL"`

	Port                  string        `yaml:"port" env:"PORT"`
	ShutdownGracePeriod   time.Duration `yaml:"shutdown_grace_period" env:"SHUTDOWN_GRACE_PERIOD"`
	ReadHeaderTimeout     time.Duration `yaml:"read_header_timeout" env:"READ_HEADER_TIMEOUT"`
	WriteTimeout          time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout           time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	RateLimitRPS          float64       `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	RateLimitBurst        int           `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`

	// Set through toggles, see layer.
	DisableRequestLogging bool `yaml:"-" env:"-"`
	DisableRateLimit      bool `yaml:"-" env:"-"`
}

// toggles holds the boolean options of one layer. A nil field was not set by
// that layer, so a higher layer can turn an option back off.
type toggles struct {
	DisableRequestLogging *bool `yaml:"disable_request_logging" env:"DISABLE_REQUEST_LOGGING"`
	DisableRateLimit      *bool `yaml:"disable_rate_limit" env:"DISABLE_RATE_LIMIT"`
}

// layer is one configuration source. mergo skips zero values when
// overriding, which is fine for strings and numbers but not for booleans.
type layer struct {
	Config  `yaml:",inline"`
	Toggles toggles `yaml:",inline"`
}

// applyTo merges l over cfg.
func (l layer) applyTo(cfg *Config) error {
	if err := mergo.Merge(cfg, l.Config, mergo.WithOverride); err != nil {
		return err
	}
	if l.Toggles.DisableRequestLogging != nil {
		cfg.DisableRequestLogging = *l.Toggles.DisableRequestLogging
	}
	if l.Toggles.DisableRateLimit != nil {
		cfg.DisableRateLimit = *l.Toggles.DisableRateLimit
	}
	return nil
}

// CLIOverrides holds command-line flag overrides. Nil fields were not set.
type CLIOverrides struct {
	ConfigFile     string
	Environment    *string
	Dir            *string
	Format         *string
	Output         *string
	LogLevel       *string
	Port           *string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	envLayer, err := parseEnv()
	if err != nil {
		return Config{}, err
	}
	if err := envLayer.applyTo(&cfg); err != nil {
		return Config{}, fmt.Errorf("merge environment config: %w", err)
	}

	cliLayer := cliConfig(overrides)

	configFile := cfg.ConfigFile
	if cliLayer.ConfigFile != "" {
		configFile = cliLayer.ConfigFile
	}
	if configFile != "" {
		fileLayer, err := loadFromFile(configFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := fileLayer.applyTo(&cfg); err != nil {
			return Config{}, fmt.Errorf("merge YAML config: %w", err)
		}
	}

	if err := cliLayer.applyTo(&cfg); err != nil {
		return Config{}, fmt.Errorf("merge CLI overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Environment:         storage.DefaultEnvironment,
		Dir:                 defaultDir,
		Format:              loader.FormatYAML,
		Output:              OutputYAML,
		LogLevel:            logging.DefaultLevel,
		Port:                defaultPort,
		ShutdownGracePeriod: 10 * time.Second,
		ReadHeaderTimeout:   5 * time.Second,
		WriteTimeout:        15 * time.Second,
		IdleTimeout:         60 * time.Second,
		RateLimitRPS:        defaultRateLimitRPS,
		RateLimitBurst:      defaultRateLimitBurst,
	}
}

// loadFromFile loads configuration from a YAML file. Unknown keys are
// rejected.
func loadFromFile(path string) (layer, error) {
	f, err := os.Open(path)
	if err != nil {
		return layer{}, fmt.Errorf("read file: %w", err)
	}
	defer f.Close()

	var fileLayer layer
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&fileLayer); err != nil && !errors.Is(err, io.EOF) {
		return layer{}, fmt.Errorf("parse YAML: %w", err)
	}
	return fileLayer, nil
}

// cliConfig turns the flags that were set into a Config layer. A rate of
// zero on the command line disables rate limiting.
func cliConfig(overrides *CLIOverrides) layer {
	var cfg layer
	if overrides == nil {
		return cfg
	}

	cfg.ConfigFile = overrides.ConfigFile
	cfg.Environment = stringValue(overrides.Environment)
	cfg.Dir = stringValue(overrides.Dir)
	cfg.Format = stringValue(overrides.Format)
	cfg.Output = stringValue(overrides.Output)
	cfg.LogLevel = stringValue(overrides.LogLevel)
	cfg.Port = stringValue(overrides.Port)

	if overrides.RateLimitRPS != nil {
		if *overrides.RateLimitRPS == 0 {
			cfg.Toggles.DisableRateLimit = ptr(true)
		}
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}
	if overrides.RateLimitBurst != nil {
		if *overrides.RateLimitBurst == 0 {
			cfg.Toggles.DisableRateLimit = ptr(true)
		}
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
	return cfg
}

func ptr[T any](v T) *T {
	return &v
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// validate checks the final configuration and reports every problem found.
func (c Config) validate() error {
	var errs []error

	if strings.TrimSpace(c.Dir) == "" {
		errs = append(errs, errors.New("settings directory cannot be empty"))
	}
	if _, err := loader.ForFormat(c.Format); err != nil {
		errs = append(errs, err)
	}
	if c.Output != OutputYAML && c.Output != OutputJSON {
		errs = append(errs, fmt.Errorf("unknown output %q, expected %s or %s", c.Output, OutputYAML, OutputJSON))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level: %w", err))
	}
	if c.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS must be >= 0"))
	}
	if c.RateLimitBurst < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST must be >= 0"))
	}

	return errors.Join(errs...)
}
