// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/advisor/internal/modules/portfolio"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Signal sources
const (
	SignalSourceFile = "file"
	SignalSourceHTTP = "http"
)

// Config holds application configuration
type Config struct {
	DataDir     string // Base directory for the database and rendered reports (always absolute)
	AnalysisDir string // Directory scanned for upstream analysis outputs
	ReportsDir  string // Where rendered reports are written (always absolute)
	LogLevel    string
	LogPretty   bool
	Port        int
	DevMode     bool
	CORSOrigins []string

	PolicyFile string           // Optional YAML file overriding allocator tunables
	Allocator  portfolio.Config // Allocator tunables (defaults merged with PolicyFile)

	Signals   SignalsConfig
	Archive   ArchiveConfig
	Schedules ScheduleConfig

	WorkflowRetention time.Duration // Finished workflow runs older than this are dropped
	SnapshotRetention time.Duration // Snapshots older than this are deleted
}

// SignalsConfig configures where upstream signals come from
type SignalsConfig struct {
	Source      string // "file" or "http"
	ServiceURL  string // Base URL of the analysis service (http source)
	APIKey      string
	Timeout     time.Duration
	RateLimit   float64 // Requests per second
	Burst       int
	CacheTTL    time.Duration // Freshness window of cached provider responses
	MaxFailures uint32        // Consecutive failures before the circuit opens
}

// ArchiveConfig configures optional S3 archiving of rendered reports
type ArchiveConfig struct {
	Bucket          string // Empty disables archiving
	Prefix          string
	Region          string
	Endpoint        string // Custom endpoint for S3-compatible storage
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether archiving is configured
func (a ArchiveConfig) Enabled() bool {
	return a.Bucket != ""
}

// ScheduleConfig holds cron expressions (with seconds) for background jobs
type ScheduleConfig struct {
	CacheCleanup    string
	WorkflowCleanup string
	SnapshotCleanup string
	IntegrityCheck  string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	absDataDir, err := ensureDir(getEnv("ADVISOR_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare data directory: %w", err)
	}
	absReportsDir, err := ensureDir(getEnv("ADVISOR_REPORTS_DIR", filepath.Join(absDataDir, "reports")))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare reports directory: %w", err)
	}

	cfg := &Config{
		DataDir:     absDataDir,
		AnalysisDir: getEnv("ANALYSIS_DIR", "analysis_outputs"),
		ReportsDir:  absReportsDir,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogPretty:   getEnvAsBool("LOG_PRETTY", false),
		Port:        getEnvAsInt("PORT", 8080),
		DevMode:     getEnvAsBool("DEV_MODE", false),
		CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"*"}),
		PolicyFile:  getEnv("POLICY_FILE", ""),
		Signals: SignalsConfig{
			Source:      strings.ToLower(getEnv("SIGNAL_SOURCE", SignalSourceFile)),
			ServiceURL:  getEnv("SIGNAL_SERVICE_URL", "http://localhost:5000"),
			APIKey:      getEnv("SIGNAL_API_KEY", ""),
			Timeout:     time.Duration(getEnvAsInt("SIGNAL_TIMEOUT_SECONDS", 30)) * time.Second,
			RateLimit:   getEnvAsFloat("SIGNAL_RATE_LIMIT", 2),
			Burst:       getEnvAsInt("SIGNAL_BURST", 4),
			CacheTTL:    time.Duration(getEnvAsInt("SIGNAL_CACHE_TTL_MINUTES", 60)) * time.Minute,
			MaxFailures: uint32(getEnvAsInt("SIGNAL_MAX_FAILURES", 5)),
		},
		Archive: ArchiveConfig{
			Bucket:          getEnv("ARCHIVE_S3_BUCKET", ""),
			Prefix:          getEnv("ARCHIVE_S3_PREFIX", "reports"),
			Region:          getEnv("ARCHIVE_S3_REGION", "us-east-1"),
			Endpoint:        getEnv("ARCHIVE_S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("ARCHIVE_S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("ARCHIVE_S3_SECRET_ACCESS_KEY", ""),
		},
		Schedules: ScheduleConfig{
			CacheCleanup:    getEnv("CACHE_CLEANUP_SCHEDULE", "0 0 * * * *"),
			WorkflowCleanup: getEnv("WORKFLOW_CLEANUP_SCHEDULE", "0 */15 * * * *"),
			SnapshotCleanup: getEnv("SNAPSHOT_CLEANUP_SCHEDULE", "0 30 3 * * *"),
			IntegrityCheck:  getEnv("INTEGRITY_CHECK_SCHEDULE", "0 0 4 * * *"),
		},
		WorkflowRetention: time.Duration(getEnvAsInt("WORKFLOW_RETENTION_HOURS", 24)) * time.Hour,
		SnapshotRetention: time.Duration(getEnvAsInt("SNAPSHOT_RETENTION_DAYS", 90)) * 24 * time.Hour,
	}

	allocator, err := LoadAllocatorConfig(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	cfg.Allocator = allocator

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadAllocatorConfig returns the default allocator config overlaid with the
// YAML policy file at path. An empty path returns the defaults.
func LoadAllocatorConfig(path string) (portfolio.Config, error) {
	cfg := portfolio.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read policy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid policy file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	switch c.Signals.Source {
	case SignalSourceFile:
		if c.AnalysisDir == "" {
			return fmt.Errorf("ANALYSIS_DIR is required when SIGNAL_SOURCE=file")
		}
	case SignalSourceHTTP:
		if c.Signals.ServiceURL == "" {
			return fmt.Errorf("SIGNAL_SERVICE_URL is required when SIGNAL_SOURCE=http")
		}
	default:
		return fmt.Errorf("unknown SIGNAL_SOURCE %q (expected file or http)", c.Signals.Source)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.Signals.RateLimit <= 0 {
		return fmt.Errorf("SIGNAL_RATE_LIMIT must be positive")
	}

	return c.Allocator.Validate()
}

// DatabasePath returns the path of the advisor database
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "advisor.db")
}

func ensureDir(dir string) (string, error) {
	// Always resolve to absolute path
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", err
	}
	return abs, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
