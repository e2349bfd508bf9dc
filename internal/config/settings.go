package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"lexdesk/internal/types"
)

const (
	defaultServerAddress   = "127.0.0.1:8787"
	defaultStorageBackend  = "bbolt"
	defaultBlobDriver      = "fs"
	defaultCalendarID      = "primary"
	defaultTimezone        = "UTC"
	defaultMeetingDuration = 30
	defaultRefreshInterval = 30 * time.Second
	defaultRequestTimeout  = 10 * time.Second
)

type CoreConfig struct {
	Server   ServerConfig   `toml:"server"`
	Logging  LoggingConfig  `toml:"logging"`
	Storage  StorageConfig  `toml:"storage"`
	Blob     BlobConfig     `toml:"blob"`
	Calendar CalendarConfig `toml:"calendar"`
	UI       UIConfig       `toml:"ui"`
}

type ServerConfig struct {
	Address        string `toml:"address"`
	RequestTimeout string `toml:"request_timeout"`
	Metrics        *bool  `toml:"metrics"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

type StorageConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

type BlobConfig struct {
	Driver string        `toml:"driver"`
	Root   string        `toml:"root"`
	S3     BlobS3Config  `toml:"s3"`
	GCS    BlobGCSConfig `toml:"gcs"`
}

type BlobS3Config struct {
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`
	Endpoint  string `toml:"endpoint"`
	PathStyle bool   `toml:"path_style"`
	Prefix    string `toml:"prefix"`
}

type BlobGCSConfig struct {
	Bucket          string `toml:"bucket"`
	CredentialsPath string `toml:"credentials_path"`
	Prefix          string `toml:"prefix"`
}

type CalendarConfig struct {
	Enabled         bool   `toml:"enabled"`
	CredentialsPath string `toml:"credentials_path"`
	TokenPath       string `toml:"token_path"`
	CalendarID      string `toml:"calendar_id"`
	Timezone        string `toml:"timezone"`
	DefaultDuration int    `toml:"default_duration"`
}

type UIConfig struct {
	Role    string `toml:"role"`
	Name    string `toml:"name"`
	Email   string `toml:"email"`
	Refresh string `toml:"refresh"`
}

func DefaultCoreConfig() CoreConfig {
	metrics := true
	return CoreConfig{
		Server: ServerConfig{
			Address:        defaultServerAddress,
			RequestTimeout: defaultRequestTimeout.String(),
			Metrics:        &metrics,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Storage: StorageConfig{
			Backend: defaultStorageBackend,
		},
		Blob: BlobConfig{
			Driver: defaultBlobDriver,
		},
		Calendar: CalendarConfig{
			CalendarID:      defaultCalendarID,
			Timezone:        defaultTimezone,
			DefaultDuration: defaultMeetingDuration,
		},
		UI: UIConfig{
			Role:    string(types.RoleAttorney),
			Refresh: defaultRefreshInterval.String(),
		},
	}
}

// LoadCoreConfig reads config.toml from the data dir, falling back to defaults
// when the file is absent, then applies LEXDESK_* environment overrides.
func LoadCoreConfig() (CoreConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return CoreConfig{}, err
	}
	cfg, err := loadCoreConfigFromPath(path)
	if err != nil {
		return CoreConfig{}, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *CoreConfig) applyEnv() {
	if addr := strings.TrimSpace(os.Getenv("LEXDESK_ADDRESS")); addr != "" {
		c.Server.Address = addr
	}
	if level := strings.TrimSpace(os.Getenv("LEXDESK_LOG_LEVEL")); level != "" {
		c.Logging.Level = level
	}
	if backend := strings.TrimSpace(os.Getenv("LEXDESK_STORAGE")); backend != "" {
		c.Storage.Backend = backend
	}
	if driver := strings.TrimSpace(os.Getenv("LEXDESK_BLOB_DRIVER")); driver != "" {
		c.Blob.Driver = driver
	}
}

func (c CoreConfig) ServerAddress() string {
	addr := strings.TrimSpace(c.Server.Address)
	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimPrefix(addr, "https://")
	addr = strings.TrimRight(addr, "/")
	if addr == "" {
		return defaultServerAddress
	}
	return addr
}

func (c CoreConfig) ServerBaseURL() string {
	return "http://" + c.ServerAddress()
}

func (c CoreConfig) RequestTimeout() time.Duration {
	return parseDurationOr(c.Server.RequestTimeout, defaultRequestTimeout)
}

func (c CoreConfig) MetricsEnabled() bool {
	if c.Server.Metrics == nil {
		return true
	}
	return *c.Server.Metrics
}

func (c CoreConfig) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

func (c CoreConfig) StorageBackend() string {
	backend := strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if backend == "" {
		return defaultStorageBackend
	}
	return backend
}

// StoragePath resolves the location for the configured backend.
func (c CoreConfig) StoragePath() (string, error) {
	if path := strings.TrimSpace(c.Storage.Path); path != "" {
		return resolveConfigPath(path)
	}
	switch c.StorageBackend() {
	case "sqlite":
		return SQLitePath()
	case "file":
		return RecordsDir()
	default:
		return DBPath()
	}
}

func (c CoreConfig) BlobDriver() string {
	driver := strings.ToLower(strings.TrimSpace(c.Blob.Driver))
	if driver == "" {
		return defaultBlobDriver
	}
	return driver
}

func (c CoreConfig) BlobRoot() (string, error) {
	if root := strings.TrimSpace(c.Blob.Root); root != "" {
		return resolveConfigPath(root)
	}
	return BlobDir()
}

func (c CoreConfig) CalendarTokenPath() (string, error) {
	if path := strings.TrimSpace(c.Calendar.TokenPath); path != "" {
		return resolveConfigPath(path)
	}
	return CalendarTokenPath()
}

func (c CoreConfig) CalendarCredentialsPath() (string, error) {
	path := strings.TrimSpace(c.Calendar.CredentialsPath)
	if path == "" {
		return "", errors.New("calendar credentials_path is not configured")
	}
	return resolveConfigPath(path)
}

func (c CoreConfig) CalendarID() string {
	id := strings.TrimSpace(c.Calendar.CalendarID)
	if id == "" {
		return defaultCalendarID
	}
	return id
}

func (c CoreConfig) CalendarLocation() *time.Location {
	name := strings.TrimSpace(c.Calendar.Timezone)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c CoreConfig) MeetingDuration() time.Duration {
	minutes := c.Calendar.DefaultDuration
	if minutes <= 0 {
		minutes = defaultMeetingDuration
	}
	return time.Duration(minutes) * time.Minute
}

func (c CoreConfig) Profile() types.Profile {
	role, ok := types.ParseRole(c.UI.Role)
	if !ok {
		role = types.RoleAttorney
	}
	return types.Profile{
		Name:  strings.TrimSpace(c.UI.Name),
		Email: types.NormalizeEmail(c.UI.Email),
		Role:  role,
	}
}

func (c CoreConfig) RefreshInterval() time.Duration {
	return parseDurationOr(c.UI.Refresh, defaultRefreshInterval)
}

func loadCoreConfigFromPath(path string) (CoreConfig, error) {
	cfg := DefaultCoreConfig()
	if err := readTOML(path, &cfg); err != nil {
		return CoreConfig{}, err
	}
	return cfg, nil
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}

func resolveConfigPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("path is required")
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, path), nil
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
