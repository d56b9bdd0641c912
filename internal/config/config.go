// Package config loads the serialterm application settings from defaults,
// an optional YAML file and SERIALTERM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/allbin/serialterm"
)

// EnvPrefix is prepended to every environment override, e.g.
// SERIALTERM_SERIAL_BAUD_RATE.
const EnvPrefix = "SERIALTERM"

// Config represents the application configuration
type Config struct {
	Serial     SerialConfig     `mapstructure:"serial"`
	Supervisor SupervisorConfig `mapstructure:"supervisor"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Export     ExportConfig     `mapstructure:"export"`
}

// SerialConfig holds the line settings used for every opened device
type SerialConfig struct {
	BaudRate    int           `mapstructure:"baud_rate"`
	DataBits    int           `mapstructure:"data_bits"`
	StopBits    int           `mapstructure:"stop_bits"`
	Parity      string        `mapstructure:"parity"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

// SupervisorConfig holds the loop cadences
type SupervisorConfig struct {
	RetryInterval  time.Duration `mapstructure:"retry_interval"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReadInterval   time.Duration `mapstructure:"read_interval"`
	ScanInterval   time.Duration `mapstructure:"scan_interval"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"` // stderr, stdout or a file path
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// ExportConfig controls where the TUI writes buffer exports
type ExportConfig struct {
	Path string `mapstructure:"path"`
}

// SetDefaults registers the default value of every key on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("serial.baud_rate", 9600)
	v.SetDefault("serial.data_bits", 8)
	v.SetDefault("serial.stop_bits", 1)
	v.SetDefault("serial.parity", "none")
	v.SetDefault("serial.read_timeout", 100*time.Millisecond)

	v.SetDefault("supervisor.retry_interval", 500*time.Millisecond)
	v.SetDefault("supervisor.connect_timeout", 10*time.Second)
	v.SetDefault("supervisor.read_interval", 20*time.Millisecond)
	v.SetDefault("supervisor.scan_interval", 250*time.Millisecond)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", false)

	v.SetDefault("export.path", "serialterm-export.csv")
}

// Load reads configuration into a Config. configFile may be empty, in which
// case $HOME/.serialterm.yaml is used if it exists.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".serialterm")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate rejects settings the serial layer would refuse
func (c *Config) Validate() error {
	if c.Serial.BaudRate <= 0 {
		return fmt.Errorf("serial.baud_rate must be positive, got %d", c.Serial.BaudRate)
	}
	if c.Serial.DataBits < 5 || c.Serial.DataBits > 8 {
		return fmt.Errorf("serial.data_bits must be 5-8, got %d", c.Serial.DataBits)
	}
	if c.Serial.StopBits != 1 && c.Serial.StopBits != 2 {
		return fmt.Errorf("serial.stop_bits must be 1 or 2, got %d", c.Serial.StopBits)
	}
	if _, ok := parities[strings.ToLower(c.Serial.Parity)]; !ok {
		return fmt.Errorf("serial.parity must be one of none, odd, even, mark, space, got %q", c.Serial.Parity)
	}

	for key, d := range map[string]time.Duration{
		"serial.read_timeout":        c.Serial.ReadTimeout,
		"supervisor.retry_interval":  c.Supervisor.RetryInterval,
		"supervisor.connect_timeout": c.Supervisor.ConnectTimeout,
		"supervisor.read_interval":   c.Supervisor.ReadInterval,
		"supervisor.scan_interval":   c.Supervisor.ScanInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", key, d)
		}
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

var parities = map[string]serialterm.Parity{
	"":      serialterm.ParityNone,
	"none":  serialterm.ParityNone,
	"odd":   serialterm.ParityOdd,
	"even":  serialterm.ParityEven,
	"mark":  serialterm.ParityMark,
	"space": serialterm.ParitySpace,
}

// Options converts the line settings into serialterm options
func (s SerialConfig) Options() []serialterm.Option {
	return []serialterm.Option{
		serialterm.WithBaudRate(s.BaudRate),
		serialterm.WithDataBits(s.DataBits),
		serialterm.WithStopBits(s.StopBits),
		serialterm.WithParity(parities[strings.ToLower(s.Parity)]),
		serialterm.WithReadTimeout(s.ReadTimeout),
	}
}

// Options converts the cadences into supervisor options
func (s SupervisorConfig) Options() []serialterm.SupervisorOption {
	return []serialterm.SupervisorOption{
		serialterm.WithRetryInterval(s.RetryInterval),
		serialterm.WithConnectTimeout(s.ConnectTimeout),
		serialterm.WithReadInterval(s.ReadInterval),
		serialterm.WithScanInterval(s.ScanInterval),
	}
}
