package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// QuestServer holds all configuration for the quest server.
type QuestServer struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`
	Path        string `yaml:"path"` // websocket endpoint

	LogLevel string `yaml:"log_level"`

	// World identity; keys the persisted daily rotation
	WorldID string `yaml:"world_id"`

	// Storage
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`

	// Content
	QuestsDir     string `yaml:"quests_dir"` // contains quests/ and daily/
	LangDir       string `yaml:"lang_dir"`
	DefaultLocale string `yaml:"default_locale"`

	Daily DailyConfig `yaml:"daily"`

	// Write queue / timeouts
	WriteTimeout  time.Duration `yaml:"write_timeout"`   // per-write deadline (default: 5s)
	ReadTimeout   time.Duration `yaml:"read_timeout"`    // idle client disconnect (default: 120s)
	SendQueueSize int           `yaml:"send_queue_size"` // per-client outbox capacity (default: 256)

	AutosaveInterval  time.Duration `yaml:"autosave_interval"`
	CompressThreshold int           `yaml:"compress_threshold"` // bytes; FULL sync bodies above are zstd-compressed, 0 disables
	LocalizeCacheSize int           `yaml:"localize_cache_size"`

	Admins []AdminAccount `yaml:"admins"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver     string `yaml:"driver"` // postgres | sqlite
	SQLitePath string `yaml:"sqlite_path"`
}

// DailyConfig configures the daily quest rotation.
type DailyConfig struct {
	RerollHour int    `yaml:"reroll_hour"` // 0-23
	Count      int    `yaml:"count"`
	Timezone   string `yaml:"timezone"` // IANA name, empty = local
}

// Location resolves Timezone.
func (d DailyConfig) Location() (*time.Location, error) {
	if d.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", d.Timezone, err)
	}
	return loc, nil
}

// AdminAccount grants admin access to the holder of a token.
type AdminAccount struct {
	Name        string `yaml:"name"`
	TokenHash   string `yaml:"token_hash"` // bcrypt
	AccessLevel int32  `yaml:"access_level"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultQuestServer returns QuestServer config with sensible defaults.
func DefaultQuestServer() QuestServer {
	return QuestServer{
		BindAddress: "0.0.0.0",
		Port:        7780,
		Path:        "/quests",
		LogLevel:    "info",
		WorldID:     "overworld",
		Storage: StorageConfig{
			Driver:     DriverSQLite,
			SQLitePath: "data/quests.sqlite",
		},
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "questd",
			Password: "questd",
			DBName:   "questd",
			SSLMode:  "disable",
		},
		QuestsDir:     "config/quests",
		LangDir:       "config/lang",
		DefaultLocale: "en_us",
		Daily: DailyConfig{
			RerollHour: 4,
			Count:      3,
		},
		WriteTimeout:      5 * time.Second,
		ReadTimeout:       120 * time.Second,
		SendQueueSize:     256,
		AutosaveInterval:  30 * time.Second,
		CompressThreshold: 4096,
		LocalizeCacheSize: 4096,
	}
}

// LoadQuestServer loads quest server config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadQuestServer(path string) (QuestServer, error) {
	cfg := DefaultQuestServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c QuestServer) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Daily.RerollHour < 0 || c.Daily.RerollHour > 23 {
		return fmt.Errorf("daily.reroll_hour %d out of range 0-23", c.Daily.RerollHour)
	}
	if c.Daily.Count < 0 {
		return fmt.Errorf("daily.count must not be negative")
	}
	if _, err := c.Daily.Location(); err != nil {
		return err
	}
	switch c.Storage.Driver {
	case DriverPostgres:
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.SendQueueSize <= 0 {
		return fmt.Errorf("send_queue_size must be positive")
	}
	if c.AutosaveInterval <= 0 {
		return fmt.Errorf("autosave_interval must be positive")
	}
	if c.WorldID == "" {
		return fmt.Errorf("world_id is required")
	}
	for _, a := range c.Admins {
		if a.Name == "" || a.TokenHash == "" {
			return fmt.Errorf("admin accounts need a name and a token_hash")
		}
	}
	return nil
}
