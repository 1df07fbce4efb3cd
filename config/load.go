package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zeki-aitech/vda5050-client/errors"
)

// envPrefix is the prefix of every environment override.
const envPrefix = "VDA5050"

// Load reads a configuration file, applies environment overrides, and
// validates the result. The format follows the file extension: .json via
// encoding/json, .yaml/.yml via yaml.v3. Fields absent from the file keep
// their Default() values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapFatal(err, "Config", "Load", "read "+path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapInvalid(err, "Config", "Load", "parse "+path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapInvalid(err, "Config", "Load", "parse "+path)
		}
	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("unsupported extension %q, want .json, .yaml or .yml", filepath.Ext(path)),
			"Config", "Load", "detect format")
	}

	ApplyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv returns the default configuration with environment overrides
// applied and validated. Demo binaries use it when no config file is given.
func FromEnv() (*Config, error) {
	cfg := Default()
	ApplyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides overlays VDA5050_* environment variables onto cfg.
// Credentials usually arrive this way rather than sitting in a file.
func ApplyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Broker.URL, "BROKER_URL")
	overrideString(&cfg.Broker.ClientID, "BROKER_CLIENT_ID")
	overrideString(&cfg.Broker.Username, "BROKER_USERNAME")
	overrideString(&cfg.Broker.Password, "BROKER_PASSWORD")

	overrideString(&cfg.Identity.InterfaceName, "INTERFACE_NAME")
	overrideString(&cfg.Identity.Version, "VERSION")
	overrideString(&cfg.Identity.Manufacturer, "MANUFACTURER")
	overrideString(&cfg.Identity.SerialNumber, "SERIAL_NUMBER")

	overrideString(&cfg.Logging.Level, "LOG_LEVEL")
	overrideString(&cfg.Logging.Format, "LOG_FORMAT")
}

func overrideString(target *string, name string) {
	if val := os.Getenv(envPrefix + "_" + name); val != "" {
		*target = val
	}
}

// SaveToFile writes the configuration as indented JSON, mostly to scaffold
// a starting config file for a deployment.
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.WrapInvalid(err, "Config", "SaveToFile", "marshal")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.WrapFatal(err, "Config", "SaveToFile", "write "+path)
	}
	return nil
}

// String returns an indented JSON view of the config with the broker
// password masked.
func (c *Config) String() string {
	masked := *c
	if masked.Broker.Password != "" {
		masked.Broker.Password = "********"
	}
	data, _ := json.MarshalIndent(&masked, "", "  ")
	return string(data)
}
