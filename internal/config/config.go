package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server        ServerConfig        `json:"server" yaml:"server"`
	Database      DatabaseConfig      `json:"database" yaml:"database"`
	DocumentStore DocumentStoreConfig `json:"document_store" yaml:"document_store"`
	Datasets      DatasetsConfig      `json:"datasets" yaml:"datasets"`
	Planner       PlannerConfig       `json:"planner" yaml:"planner"`
	Hotspots      HotspotsConfig      `json:"hotspots" yaml:"hotspots"`
	Reports       ReportsConfig       `json:"reports" yaml:"reports"`
	RateLimit     RateLimitConfig     `json:"rate_limit" yaml:"rate_limit"`
	Logging       LoggingConfig       `json:"logging" yaml:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host                string `json:"host" yaml:"host"`
	Port                int    `json:"port" yaml:"port"`
	ReadTimeoutSeconds  int    `json:"read_timeout_seconds" yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `json:"write_timeout_seconds" yaml:"write_timeout_seconds"`
	IdleTimeoutSeconds  int    `json:"idle_timeout_seconds" yaml:"idle_timeout_seconds"`
	Mode                string `json:"mode" yaml:"mode"`
	// AllowedOrigins lists CORS origins; empty allows any origin
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
}

// DatabaseConfig represents database configuration.
// Driver is "postgres" or "sqlite"; Path is only used by sqlite.
type DatabaseConfig struct {
	Driver         string `json:"driver" yaml:"driver"`
	Host           string `json:"host" yaml:"host"`
	Port           int    `json:"port" yaml:"port"`
	User           string `json:"user" yaml:"user"`
	Password       string `json:"password" yaml:"password"`
	DBName         string `json:"db_name" yaml:"db_name"`
	SSLMode        string `json:"ssl_mode" yaml:"ssl_mode"`
	Path           string `json:"path" yaml:"path"`
	MaxConnections int    `json:"max_connections" yaml:"max_connections"`
	MaxIdleConns   int    `json:"max_idle_conns" yaml:"max_idle_conns"`
	MaxLifetimeSec int    `json:"max_lifetime_seconds" yaml:"max_lifetime_seconds"`
	Disabled       bool   `json:"disabled" yaml:"disabled"`
}

// DocumentStoreConfig configures the MongoDB emission record store
type DocumentStoreConfig struct {
	URI      string `json:"uri" yaml:"uri"`
	Database string `json:"database" yaml:"database"`
}

// DatasetsConfig locates the three planning datasets.
// Each path may be a local file or an s3://bucket/key URI.
type DatasetsConfig struct {
	EmissionsPath string `json:"emissions_path" yaml:"emissions_path"`
	TrainingPath  string `json:"training_path" yaml:"training_path"`
	RegistryPath  string `json:"registry_path" yaml:"registry_path"`
	S3Region      string `json:"s3_region" yaml:"s3_region"`
}

// PlannerConfig controls model training and plan serving
type PlannerConfig struct {
	FallbackRegions    []string `json:"fallback_regions" yaml:"fallback_regions"`
	Trees              int      `json:"trees" yaml:"trees"`
	Seed               uint64   `json:"seed" yaml:"seed"`
	CacheTTLSeconds    int      `json:"cache_ttl_seconds" yaml:"cache_ttl_seconds"`
	AllowDegradedStart bool     `json:"allow_degraded_start" yaml:"allow_degraded_start"`
}

// HotspotsConfig schedules background hotspot classification
type HotspotsConfig struct {
	Schedule        string `json:"schedule" yaml:"schedule"`
	SummarySchedule string `json:"summary_schedule" yaml:"summary_schedule"`
	MaxPageSize     int    `json:"max_page_size" yaml:"max_page_size"`
}

// ReportsConfig configures plan exports
type ReportsConfig struct {
	S3Bucket string `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region string `json:"s3_region" yaml:"s3_region"`
}

// RateLimitConfig configures per-client request limiting
type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `json:"burst" yaml:"burst"`
}

// LoggingConfig
type LoggingConfig struct {
	Level       string `json:"level" yaml:"level"`
	Development bool   `json:"development" yaml:"development"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                "0.0.0.0",
			Port:                8080,
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 30,
			IdleTimeoutSeconds:  60,
			Mode:                "release",
		},
		Database: DatabaseConfig{
			Driver:         "postgres",
			Host:           "localhost",
			Port:           5432,
			User:           os.Getenv("USER"),
			DBName:         "offset_portal",
			SSLMode:        "disable",
			Path:           "offset_portal.db",
			MaxConnections: 25,
			MaxIdleConns:   5,
			MaxLifetimeSec: 300,
		},
		DocumentStore: DocumentStoreConfig{
			Database: "coal_emissions",
		},
		Datasets: DatasetsConfig{
			EmissionsPath: "data/coal_dataset_10k_5years.csv",
			TrainingPath:  "data/ml_training_data.csv",
			RegistryPath:  "data/operational_registry.csv",
			S3Region:      "ap-south-1",
		},
		Planner: PlannerConfig{
			Trees:           100,
			Seed:            42,
			CacheTTLSeconds: 300,
		},
		Hotspots: HotspotsConfig{
			Schedule:        "0 0 * * * *",
			SummarySchedule: "0 30 2 * * *",
			MaxPageSize:     1000,
		},
		Reports: ReportsConfig{
			S3Region: "ap-south-1",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from file and environment variables.
// A missing file is not an error; a malformed one is.
func LoadConfig(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	config := Default()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := unmarshal(configPath, data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	overrideWithEnv(config)

	return config, nil
}

func unmarshal(path string, data []byte, config *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, config)
	default:
		return json.Unmarshal(data, config)
	}
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		config.Server.Mode = mode
	}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		config.Server.AllowedOrigins = splitList(origins)
	}
	if driver := os.Getenv("DATABASE_DRIVER"); driver != "" {
		config.Database.Driver = driver
	}
	if dbHost := os.Getenv("DATABASE_HOST"); dbHost != "" {
		config.Database.Host = dbHost
	}
	if dbUser := os.Getenv("DATABASE_USER"); dbUser != "" {
		config.Database.User = dbUser
	}
	if dbPass := os.Getenv("DATABASE_PASSWORD"); dbPass != "" {
		config.Database.Password = dbPass
	}
	if dbName := os.Getenv("DATABASE_DBNAME"); dbName != "" {
		config.Database.DBName = dbName
	}
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		config.Database.Path = dbPath
	}
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		config.DocumentStore.URI = uri
	}
	if name := os.Getenv("MONGO_DB"); name != "" {
		config.DocumentStore.Database = name
	}
	if p := os.Getenv("EMISSIONS_DATASET"); p != "" {
		config.Datasets.EmissionsPath = p
	}
	if p := os.Getenv("TRAINING_DATASET"); p != "" {
		config.Datasets.TrainingPath = p
	}
	if p := os.Getenv("REGISTRY_DATASET"); p != "" {
		config.Datasets.RegistryPath = p
	}
	if regions := os.Getenv("PLANNER_FALLBACK_REGIONS"); regions != "" {
		config.Planner.FallbackRegions = splitList(regions)
	}
	if degraded := os.Getenv("PLANNER_ALLOW_DEGRADED_START"); degraded != "" {
		if b, err := strconv.ParseBool(degraded); err == nil {
			config.Planner.AllowDegradedStart = b
		}
	}
	if bucket := os.Getenv("REPORTS_S3_BUCKET"); bucket != "" {
		config.Reports.S3Bucket = bucket
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	if c.Driver == "sqlite" {
		return c.Path
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CacheTTL returns the plan cache lifetime
func (c *PlannerConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// Timeouts returns read, write and idle timeouts for the HTTP server
func (c *ServerConfig) Timeouts() (read, write, idle time.Duration) {
	return seconds(c.ReadTimeoutSeconds), seconds(c.WriteTimeoutSeconds), seconds(c.IdleTimeoutSeconds)
}
