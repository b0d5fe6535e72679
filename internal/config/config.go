// Package config provides configuration management functionality.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	DataDir   string // Base directory for the ledger and history databases (always absolute)
	Port      int
	LogLevel  string
	LogPretty bool
	DevMode   bool

	IndicatorBackend   string
	IndicatorCacheTTL  time.Duration
	IndicatorCacheSize int
	ProviderTimeout    time.Duration
	HistoryMaxAge      time.Duration
	HistoryRetention   int // days of bars kept by maintenance; 0 keeps everything
	RebalanceThreshold float64

	PriceSyncSchedule   string // empty disables the job
	CachePurgeSchedule  string
	MaintenanceSchedule string

	Targets         map[string]float64
	SymbolOverrides map[string]string
	TrackedSymbols  []string
	Backup          BackupConfig
}

// BackupConfig holds ledger backup settings for S3-compatible storage
type BackupConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Schedule        string `yaml:"schedule"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"` // custom endpoint for R2, MinIO and friends
	RetentionDays   int    `yaml:"retention_days"`
	AccessKeyID     string `yaml:"-"`
	SecretAccessKey string `yaml:"-"`
}

// File is the optional YAML file named by ADVISOR_CONFIG
type File struct {
	Targets         map[string]float64 `yaml:"targets"`
	SymbolOverrides map[string]string  `yaml:"symbol_overrides"`
	TrackedSymbols  []string           `yaml:"tracked_symbols"`
	Backup          BackupConfig       `yaml:"backup"`
}

// Load reads configuration from .env, the environment and the optional YAML file
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir, err := filepath.Abs(getEnv("ADVISOR_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:             dataDir,
		Port:                getEnvAsInt("ADVISOR_PORT", 8080),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogPretty:           getEnvAsBool("LOG_PRETTY", false),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		IndicatorBackend:    getEnv("INDICATOR_BACKEND", "talib"),
		IndicatorCacheTTL:   getEnvAsDuration("INDICATOR_CACHE_TTL", time.Hour),
		IndicatorCacheSize:  getEnvAsInt("INDICATOR_CACHE_SIZE", 512),
		ProviderTimeout:     getEnvAsDuration("PROVIDER_TIMEOUT", 30*time.Second),
		HistoryMaxAge:       getEnvAsDuration("HISTORY_MAX_AGE", 6*time.Hour),
		HistoryRetention:    getEnvAsInt("HISTORY_RETENTION_DAYS", 3650),
		RebalanceThreshold:  getEnvAsFloat("REBALANCE_THRESHOLD", 0.05),
		PriceSyncSchedule:   getEnv("PRICE_SYNC_SCHEDULE", "0 */6 * * *"),
		CachePurgeSchedule:  getEnv("CACHE_PURGE_SCHEDULE", "*/15 * * * *"),
		MaintenanceSchedule: getEnv("MAINTENANCE_SCHEDULE", "30 2 * * *"),
		Targets:             map[string]float64{},
		SymbolOverrides:     map[string]string{},
	}

	if path := getEnv("ADVISOR_CONFIG", ""); path != "" {
		file, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg.applyFile(file)
	}
	cfg.applyBackupEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile parses a YAML configuration file
func LoadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &f, nil
}

func (c *Config) applyFile(f *File) {
	for symbol, w := range f.Targets {
		c.Targets[strings.ToUpper(symbol)] = w
	}
	for symbol, yahoo := range f.SymbolOverrides {
		c.SymbolOverrides[strings.ToUpper(symbol)] = yahoo
	}
	for _, symbol := range f.TrackedSymbols {
		c.TrackedSymbols = append(c.TrackedSymbols, strings.ToUpper(strings.TrimSpace(symbol)))
	}
	c.Backup = f.Backup
}

// applyBackupEnv lets BACKUP_* variables override the file
func (c *Config) applyBackupEnv() {
	b := &c.Backup
	b.Enabled = getEnvAsBool("BACKUP_ENABLED", b.Enabled)
	b.Schedule = getEnv("BACKUP_SCHEDULE", b.Schedule)
	b.Bucket = getEnv("BACKUP_BUCKET", b.Bucket)
	b.Prefix = getEnv("BACKUP_PREFIX", b.Prefix)
	b.Region = getEnv("BACKUP_REGION", b.Region)
	b.Endpoint = getEnv("BACKUP_ENDPOINT", b.Endpoint)
	b.RetentionDays = getEnvAsInt("BACKUP_RETENTION_DAYS", b.RetentionDays)
	b.AccessKeyID = getEnv("BACKUP_ACCESS_KEY_ID", "")
	b.SecretAccessKey = getEnv("BACKUP_SECRET_ACCESS_KEY", "")
	if b.Schedule == "" {
		b.Schedule = "0 3 * * *"
	}
	if b.Region == "" {
		b.Region = "auto"
	}
	if b.RetentionDays == 0 {
		b.RetentionDays = 30
	}
}

// Validate checks ranges and schedules
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	switch strings.ToLower(c.IndicatorBackend) {
	case "talib", "native":
	default:
		errs = append(errs, fmt.Errorf("unknown indicator backend %q", c.IndicatorBackend))
	}
	if c.IndicatorCacheSize <= 0 {
		errs = append(errs, errors.New("indicator cache size must be positive"))
	}
	if c.IndicatorCacheTTL < 0 {
		errs = append(errs, errors.New("indicator cache TTL must not be negative"))
	}
	if c.HistoryRetention < 0 {
		errs = append(errs, errors.New("history retention must not be negative"))
	}
	if c.ProviderTimeout <= 0 {
		errs = append(errs, errors.New("provider timeout must be positive"))
	}
	if math.IsNaN(c.RebalanceThreshold) || c.RebalanceThreshold <= 0 || c.RebalanceThreshold >= 1 {
		errs = append(errs, fmt.Errorf("rebalance threshold %v must be in (0, 1)", c.RebalanceThreshold))
	}

	total := 0.0
	for symbol, w := range c.Targets {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			errs = append(errs, fmt.Errorf("target weight for %s must be non-negative", symbol))
			continue
		}
		total += w
	}
	if total > 1+1e-9 {
		errs = append(errs, fmt.Errorf("target weights sum to %.4f, above 1", total))
	}

	for name, spec := range map[string]string{
		"price sync":  c.PriceSyncSchedule,
		"cache purge": c.CachePurgeSchedule,
		"maintenance": c.MaintenanceSchedule,
	} {
		if spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s schedule %q: %w", name, spec, err))
		}
	}

	if c.Backup.Enabled {
		if c.Backup.Bucket == "" {
			errs = append(errs, errors.New("backup enabled without a bucket"))
		}
		if _, err := cron.ParseStandard(c.Backup.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("invalid backup schedule %q: %w", c.Backup.Schedule, err))
		}
		if c.Backup.RetentionDays < 0 {
			errs = append(errs, errors.New("backup retention must not be negative"))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// LedgerPath is the SQLite file holding transactions and the recommendation log
func (c *Config) LedgerPath() string {
	return filepath.Join(c.DataDir, "ledger.db")
}

// HistoryPath is the SQLite file holding cached price bars
func (c *Config) HistoryPath() string {
	return filepath.Join(c.DataDir, "history.db")
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
