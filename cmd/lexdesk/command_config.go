package main

import (
	"errors"
	"flag"
	"io"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"lexdesk/internal/config"
)

type ConfigCommand struct {
	stdout     io.Writer
	stderr     io.Writer
	loadConfig func() (config.CoreConfig, error)
}

const (
	configFormatJSON = "json"
	configFormatTOML = "toml"
	configFormatYAML = "yaml"
)

type configOutput struct {
	ConfigPath string                  `json:"config_path,omitempty" toml:"config_path,omitempty" yaml:"config_path,omitempty"`
	Server     effectiveServerConfig   `json:"server" toml:"server" yaml:"server"`
	Logging    effectiveLoggingConfig  `json:"logging" toml:"logging" yaml:"logging"`
	Storage    effectiveStorageConfig  `json:"storage" toml:"storage" yaml:"storage"`
	Blob       effectiveBlobConfig     `json:"blob" toml:"blob" yaml:"blob"`
	Calendar   effectiveCalendarConfig `json:"calendar" toml:"calendar" yaml:"calendar"`
	UI         effectiveUIConfig       `json:"ui" toml:"ui" yaml:"ui"`
}

type effectiveServerConfig struct {
	Address        string `json:"address" toml:"address" yaml:"address"`
	BaseURL        string `json:"base_url" toml:"base_url" yaml:"base_url"`
	RequestTimeout string `json:"request_timeout" toml:"request_timeout" yaml:"request_timeout"`
	Metrics        bool   `json:"metrics" toml:"metrics" yaml:"metrics"`
}

type effectiveLoggingConfig struct {
	Level string `json:"level" toml:"level" yaml:"level"`
}

type effectiveStorageConfig struct {
	Backend string `json:"backend" toml:"backend" yaml:"backend"`
	Path    string `json:"path,omitempty" toml:"path,omitempty" yaml:"path,omitempty"`
}

type effectiveBlobConfig struct {
	Driver string `json:"driver" toml:"driver" yaml:"driver"`
	Root   string `json:"root,omitempty" toml:"root,omitempty" yaml:"root,omitempty"`
	Bucket string `json:"bucket,omitempty" toml:"bucket,omitempty" yaml:"bucket,omitempty"`
}

type effectiveCalendarConfig struct {
	Enabled         bool   `json:"enabled" toml:"enabled" yaml:"enabled"`
	CalendarID      string `json:"calendar_id" toml:"calendar_id" yaml:"calendar_id"`
	Timezone        string `json:"timezone" toml:"timezone" yaml:"timezone"`
	DefaultDuration string `json:"default_duration" toml:"default_duration" yaml:"default_duration"`
	TokenPath       string `json:"token_path,omitempty" toml:"token_path,omitempty" yaml:"token_path,omitempty"`
}

type effectiveUIConfig struct {
	Role    string `json:"role" toml:"role" yaml:"role"`
	Name    string `json:"name,omitempty" toml:"name,omitempty" yaml:"name,omitempty"`
	Email   string `json:"email,omitempty" toml:"email,omitempty" yaml:"email,omitempty"`
	Refresh string `json:"refresh" toml:"refresh" yaml:"refresh"`
}

func NewConfigCommand(stdout, stderr io.Writer, loadConfig func() (config.CoreConfig, error)) *ConfigCommand {
	if loadConfig == nil {
		loadConfig = config.LoadCoreConfig
	}
	return &ConfigCommand{
		stdout:     stdout,
		stderr:     stderr,
		loadConfig: loadConfig,
	}
}

func (c *ConfigCommand) Run(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	defaults := fs.Bool("default", false, "print default config values")
	format := fs.String("format", configFormatJSON, "output format: json|toml|yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}
	resolvedFormat, err := resolveConfigFormat(*format)
	if err != nil {
		return err
	}

	var cfg config.CoreConfig
	if *defaults {
		cfg = config.DefaultCoreConfig()
	} else {
		cfg, err = c.loadConfig()
		if err != nil {
			return err
		}
	}
	payload := buildConfigOutput(cfg)
	if !*defaults {
		if path, err := config.ConfigPath(); err == nil {
			payload.ConfigPath = path
		}
	}
	return writeConfigOutput(c.stdout, resolvedFormat, payload)
}

func buildConfigOutput(cfg config.CoreConfig) configOutput {
	out := configOutput{
		Server: effectiveServerConfig{
			Address:        cfg.ServerAddress(),
			BaseURL:        cfg.ServerBaseURL(),
			RequestTimeout: cfg.RequestTimeout().String(),
			Metrics:        cfg.MetricsEnabled(),
		},
		Logging: effectiveLoggingConfig{Level: cfg.LogLevel()},
		Storage: effectiveStorageConfig{Backend: cfg.StorageBackend()},
		Blob:    effectiveBlobConfig{Driver: cfg.BlobDriver()},
		Calendar: effectiveCalendarConfig{
			Enabled:         cfg.Calendar.Enabled,
			CalendarID:      cfg.CalendarID(),
			Timezone:        cfg.CalendarLocation().String(),
			DefaultDuration: cfg.MeetingDuration().String(),
		},
		UI: effectiveUIConfig{
			Role:    string(cfg.Profile().Role),
			Name:    cfg.Profile().Name,
			Email:   cfg.Profile().Email,
			Refresh: cfg.RefreshInterval().String(),
		},
	}
	if path, err := cfg.StoragePath(); err == nil {
		out.Storage.Path = path
	}
	switch out.Blob.Driver {
	case "s3":
		out.Blob.Bucket = cfg.Blob.S3.Bucket
	case "gcs":
		out.Blob.Bucket = cfg.Blob.GCS.Bucket
	default:
		if root, err := cfg.BlobRoot(); err == nil {
			out.Blob.Root = root
		}
	}
	if path, err := cfg.CalendarTokenPath(); err == nil {
		out.Calendar.TokenPath = path
	}
	return out
}

func writeConfigOutput(out io.Writer, format string, payload any) error {
	switch format {
	case configFormatJSON:
		return writeJSON(out, payload)
	case configFormatTOML:
		data, err := toml.Marshal(payload)
		if err != nil {
			return err
		}
		if len(data) == 0 || data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		_, err = out.Write(data)
		return err
	case configFormatYAML:
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(payload); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return errors.New("unsupported format")
	}
}

func resolveConfigFormat(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", configFormatJSON:
		return configFormatJSON, nil
	case configFormatTOML:
		return configFormatTOML, nil
	case configFormatYAML, "yml":
		return configFormatYAML, nil
	default:
		return "", errors.New("invalid format: must be json, toml, or yaml")
	}
}
