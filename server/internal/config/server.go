package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	commoncfg "github.com/Covcloud-LLC/rating-workbench/core/config"
)

// DefaultMessage is the status message served on /api when none is configured.
const DefaultMessage = "ok"

// ServerConfig holds configuration for the workbench server.
type ServerConfig struct {
	Port           int           `yaml:"port"`
	MetricsAddr    string        `yaml:"metrics_addr"`
	Message        string        `yaml:"message"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	RedisAddr      string        `yaml:"redis_addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	DrainTimeout   time.Duration `yaml:"drain_timeout"`
	LogLevel       string        `yaml:"log_level"`
	LogFormat      string        `yaml:"log_format"`
	ConfigFile     string        `yaml:"-"`
}

// SetDefaults initializes c with built-in defaults for unset fields.
func (c *ServerConfig) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "console"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Message == "" {
		c.Message = DefaultMessage
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.DrainTimeout == 0 {
		c.DrainTimeout = 10 * time.Second
	}
	if c.ConfigFile == "" {
		c.ConfigFile = commoncfg.DefaultConfigPath("server.yaml")
	}
}

// ApplyEnv overlays environment variables onto the current config values.
func (c *ServerConfig) ApplyEnv() {
	if v := commoncfg.GetEnv("CONFIG_FILE", ""); v != "" {
		c.ConfigFile = v
	}
	if v := commoncfg.GetEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := commoncfg.GetEnv("LOG_FORMAT", ""); v != "" {
		c.LogFormat = v
	}
	if v := commoncfg.GetEnv("PORT", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Port = n
		}
	}
	if v := commoncfg.GetEnv("METRICS_PORT", ""); v != "" {
		c.MetricsAddr = normalizeAddr(v)
	}
	if v := commoncfg.GetEnv("STATUS_MESSAGE", ""); v != "" {
		c.Message = v
	}
	if v := commoncfg.GetEnv("REDIS_ADDR", ""); v != "" {
		c.RedisAddr = v
	}
	if v := commoncfg.GetEnv("REQUEST_TIMEOUT", ""); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RequestTimeout = time.Duration(f * float64(time.Second))
		}
	}
	if v := commoncfg.GetEnv("DRAIN_TIMEOUT", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.DrainTimeout = d
		}
	}
	if v := commoncfg.GetEnv("ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = commoncfg.SplitComma(v)
	}
}

// BindFlagsFromCurrent binds command line flags on fs using the current
// config values as defaults.
func (c *ServerConfig) BindFlagsFromCurrent(fs *flag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "server config file path")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log verbosity (all, debug, info, warn, error, fatal, none)")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log output format (console, json)")
	fs.IntVar(&c.Port, "port", c.Port, "HTTP listen port for the public API")
	fs.Func("metrics-port", "Prometheus metrics listen address or port; defaults to the value of --port", func(v string) error {
		c.MetricsAddr = normalizeAddr(v)
		return nil
	})
	fs.StringVar(&c.Message, "message", c.Message, "status message returned by GET /api")
	fs.StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "redis connection URL for shared server state")
	fs.Func("request-timeout", "maximum duration in seconds to serve a request", func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		c.RequestTimeout = time.Duration(f * float64(time.Second))
		return nil
	})
	fs.DurationVar(&c.DrainTimeout, "drain-timeout", c.DrainTimeout, "time to wait for in-flight requests on shutdown (-1 to wait indefinitely, 0 to exit immediately)")
	fs.Func("allowed-origins", "comma separated list of allowed CORS origins", func(v string) error {
		c.AllowedOrigins = commoncfg.SplitComma(v)
		return nil
	})
}

// LoadFile populates the config from a YAML file. Durations accept Go
// duration strings such as "30s".
func (c *ServerConfig) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Finalize resolves values that depend on other fields. It runs after flags
// are parsed; an empty metrics address follows the API port.
func (c *ServerConfig) Finalize() {
	if c.MetricsAddr == "" {
		c.MetricsAddr = c.ListenAddr()
	} else {
		c.MetricsAddr = normalizeAddr(c.MetricsAddr)
	}
	if strings.TrimSpace(c.Message) == "" {
		c.Message = DefaultMessage
	}
}

// ListenAddr returns the address the public API listens on.
func (c ServerConfig) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// SharedMetrics reports whether /metrics is served on the main listener.
func (c ServerConfig) SharedMetrics() bool {
	return c.MetricsAddr == c.ListenAddr()
}

// ConfigFileFromArgs returns the value of a --config/-config argument, if any,
// so the file can be loaded before flags are parsed.
func ConfigFileFromArgs(args []string) (string, bool) {
	for i := 0; i < len(args); i++ {
		a := strings.TrimPrefix(args[i], "-")
		a = strings.TrimPrefix(a, "-")
		if a == "config" && i+1 < len(args) {
			return args[i+1], true
		}
		if strings.HasPrefix(a, "config=") {
			return strings.TrimPrefix(a, "config="), true
		}
	}
	return "", false
}

func normalizeAddr(v string) string {
	if strings.Contains(v, ":") {
		return v
	}
	return ":" + v
}
