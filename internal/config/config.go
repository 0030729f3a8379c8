package config

import (
	"fmt"
	"time"

	"github.com/OCAP2/pointmap/pkg/core"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "pointmap.cfg.json"

// MemoryConfig holds in-memory storage backend settings.
// An empty SnapshotPath keeps the collection in process memory only.
type MemoryConfig struct {
	SnapshotPath string `json:"snapshotPath" mapstructure:"snapshotPath"`
}

// SQLiteConfig holds file-backed SQLite settings.
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// DBConfig holds Postgres connection settings.
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
	DB     DBConfig     `json:"db" mapstructure:"db"`
}

// MapConfig describes the initial viewport of the headless map surface.
type MapConfig struct {
	Center core.Location
	Zoom   int
	Width  int
	Height int
}

// PointsConfig holds defaults applied to new points.
type PointsConfig struct {
	DefaultLabel string
	DefaultMode  string
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// setDefaults registers every default. It is safe to call without a config
// file so callers that fail to Load still see sane values.
func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./pointmaplogs")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.snapshotPath", "./pointmap.points.json")
	viper.SetDefault("storage.sqlite.path", "./pointmap.db")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "pointmap")

	viper.SetDefault("map.center.lat", 47.5)
	viper.SetDefault("map.center.lng", -122.3)
	viper.SetDefault("map.zoom", 7)
	viper.SetDefault("map.width", 1024)
	viper.SetDefault("map.height", 768)

	viper.SetDefault("points.defaultLabel", core.DefaultLabel)
	viper.SetDefault("points.defaultMode", core.ModePoint.String())

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "pointmap")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// SetDefaults registers defaults without reading a file.
func SetDefaults() {
	setDefaults()
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStorageConfig returns the storage section.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			SnapshotPath: viper.GetString("storage.memory.snapshotPath"),
		},
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
		DB: DBConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
		},
	}
}

// GetMapConfig returns the viewport section.
func GetMapConfig() MapConfig {
	return MapConfig{
		Center: core.Location{
			Lat: viper.GetFloat64("map.center.lat"),
			Lng: viper.GetFloat64("map.center.lng"),
		},
		Zoom:   viper.GetInt("map.zoom"),
		Width:  viper.GetInt("map.width"),
		Height: viper.GetInt("map.height"),
	}
}

// GetPointsConfig returns the new-point defaults.
func GetPointsConfig() PointsConfig {
	return PointsConfig{
		DefaultLabel: viper.GetString("points.defaultLabel"),
		DefaultMode:  viper.GetString("points.defaultMode"),
	}
}

// GetOTelConfig returns the OpenTelemetry section.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}
