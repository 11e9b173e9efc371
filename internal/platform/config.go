package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the project configuration file looked up by the CLI.
const ConfigFileName = "sparklet.yaml"

// Config is the file and environment configuration of a Sparklet store.
// Zero values mean "use the default".
type Config struct {
	Adapter   string `yaml:"adapter,omitempty"`
	Path      string `yaml:"path,omitempty"`
	Name      string `yaml:"name,omitempty"`
	Key       string `yaml:"key,omitempty"`
	RedisURL  string `yaml:"redis_url,omitempty"`
	BridgeURL string `yaml:"bridge_url,omitempty"`
	LogFile   string `yaml:"log_file,omitempty"`
	DevSafety *bool  `yaml:"dev_safety,omitempty"`
}

// LoadConfig reads a YAML config file. A missing file yields an empty
// config.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEnv loads .env style files into the process environment. Missing
// files are skipped and variables already set are kept.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from SPARKLET_* environment variables.
func (c *Config) ApplyEnv() error {
	for name, field := range map[string]*string{
		"SPARKLET_ADAPTER":    &c.Adapter,
		"SPARKLET_PATH":       &c.Path,
		"SPARKLET_NAME":       &c.Name,
		"SPARKLET_KEY":        &c.Key,
		"SPARKLET_REDIS_URL":  &c.RedisURL,
		"SPARKLET_BRIDGE_URL": &c.BridgeURL,
		"SPARKLET_LOG_FILE":   &c.LogFile,
	} {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*field = v
		}
	}

	if v, ok := os.LookupEnv("SPARKLET_DEV_SAFETY"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SPARKLET_DEV_SAFETY %q: %w", v, err)
		}
		c.DevSafety = &b
	}
	return nil
}

// Options converts the config into factory options.
func (c Config) Options() []Option {
	var opts []Option
	if c.Adapter != "" {
		opts = append(opts, WithAdapter(c.Adapter))
	}
	if c.Name != "" {
		opts = append(opts, WithStoreName(c.Name))
	}
	if c.Key != "" {
		opts = append(opts, WithKey(c.Key))
	}
	if c.RedisURL != "" {
		opts = append(opts, WithRedisURL(c.RedisURL))
	}
	if c.BridgeURL != "" {
		opts = append(opts, WithBridgeURL(c.BridgeURL))
	}
	if c.DevSafety != nil {
		opts = append(opts, WithDevSafety(*c.DevSafety))
	}
	return opts
}
