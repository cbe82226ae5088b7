// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"proposal_sync/platform/validator"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	GetDBTimeout() time.Duration
	GetDBConnectAttempts() int
	GetDBConnectBaseDelay() time.Duration
}

// PartnerConfig provides the partner profiles and fetch behaviour.
type PartnerConfig interface {
	GetPartners() []Partner
	GetPartnerTimeout() time.Duration
	GetPartnerPace() time.Duration
	GetFetchConcurrency() int
}

// StagingConfig provides staging load settings.
type StagingConfig interface {
	GetStageBatchSize() int
}

// SchedulerConfig provides the operational gate and cadence.
type SchedulerConfig interface {
	GetLocation() *time.Location
	GetWindowStart() TimeOfDay
	GetWindowEnd() TimeOfDay
	GetWeekdays() []time.Weekday
	GetLoopSleep() time.Duration
	GetAlignWakeups() bool
	GetDeepScan() bool
	GetLookbackDays() int
	GetBatchWindows() int
}

// StateConfig provides the cursor store settings.
type StateConfig interface {
	GetStateBackend() string
	GetStateFile() string
	GetStateKey() string
	GetRedisURL() string
}

// StatusConfig provides settings for the status HTTP server.
type StatusConfig interface {
	GetStatusAddr() string
	IsStatusEnabled() bool
}

// ArchiveConfig provides settings for the raw payload archive.
type ArchiveConfig interface {
	GetArchiveEndpoint() string
	GetArchiveAccessKey() string
	GetArchiveSecretKey() string
	GetArchiveBucket() string
	GetArchiveUseSSL() bool
	IsArchiveEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                string
	DatabaseURL        string        `validate:"required"`
	DBTimeout          time.Duration `validate:"gt=0"`
	DBConnectAttempts  int           `validate:"gte=1"`
	DBConnectBaseDelay time.Duration
	PartnersFile       string
	Partners           []Partner     `validate:"required,min=1,dive"`
	PartnerTimeout     time.Duration `validate:"gt=0"`
	PartnerPace        time.Duration
	FetchConcurrency   int `validate:"gte=1"`
	StageBatchSize     int `validate:"gte=1"`
	DeepScan           bool
	LookbackDays       int           `validate:"gte=1"`
	BatchWindows       int           `validate:"gte=0"`
	LoopSleep          time.Duration `validate:"gt=0"`
	WindowStart        TimeOfDay
	WindowEnd          TimeOfDay
	Weekdays           []time.Weekday
	Location           *time.Location `validate:"required"`
	AlignWakeups       bool
	StateBackend       string `validate:"oneof=file postgres redis"`
	StateFile          string `validate:"required_if=StateBackend file"`
	StateKey           string `validate:"required"`
	RedisURL           string `validate:"required_if=StateBackend redis"`
	StatusAddr         string
	ArchiveEndpoint    string
	ArchiveAccessKey   string `validate:"required_with=ArchiveEndpoint"`
	ArchiveSecretKey   string `validate:"required_with=ArchiveEndpoint"`
	ArchiveBucket      string `validate:"required_with=ArchiveEndpoint"`
	ArchiveUseSSL      bool
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string               { return c.DatabaseURL }
func (c *Config) GetDBTimeout() time.Duration          { return c.DBTimeout }
func (c *Config) GetDBConnectAttempts() int            { return c.DBConnectAttempts }
func (c *Config) GetDBConnectBaseDelay() time.Duration { return c.DBConnectBaseDelay }

// PartnerConfig implementation
func (c *Config) GetPartners() []Partner           { return c.Partners }
func (c *Config) GetPartnerTimeout() time.Duration { return c.PartnerTimeout }
func (c *Config) GetPartnerPace() time.Duration    { return c.PartnerPace }
func (c *Config) GetFetchConcurrency() int         { return c.FetchConcurrency }

// StagingConfig implementation
func (c *Config) GetStageBatchSize() int { return c.StageBatchSize }

// SchedulerConfig implementation
func (c *Config) GetLocation() *time.Location  { return c.Location }
func (c *Config) GetWindowStart() TimeOfDay    { return c.WindowStart }
func (c *Config) GetWindowEnd() TimeOfDay      { return c.WindowEnd }
func (c *Config) GetWeekdays() []time.Weekday  { return c.Weekdays }
func (c *Config) GetLoopSleep() time.Duration  { return c.LoopSleep }
func (c *Config) GetAlignWakeups() bool        { return c.AlignWakeups }
func (c *Config) GetDeepScan() bool            { return c.DeepScan }
func (c *Config) GetLookbackDays() int         { return c.LookbackDays }
func (c *Config) GetBatchWindows() int         { return c.BatchWindows }

// StateConfig implementation
func (c *Config) GetStateBackend() string { return c.StateBackend }
func (c *Config) GetStateFile() string    { return c.StateFile }
func (c *Config) GetStateKey() string     { return c.StateKey }
func (c *Config) GetRedisURL() string     { return c.RedisURL }

// StatusConfig implementation
func (c *Config) GetStatusAddr() string { return c.StatusAddr }
func (c *Config) IsStatusEnabled() bool { return c.StatusAddr != "" }

// ArchiveConfig implementation
func (c *Config) GetArchiveEndpoint() string  { return c.ArchiveEndpoint }
func (c *Config) GetArchiveAccessKey() string { return c.ArchiveAccessKey }
func (c *Config) GetArchiveSecretKey() string { return c.ArchiveSecretKey }
func (c *Config) GetArchiveBucket() string    { return c.ArchiveBucket }
func (c *Config) GetArchiveUseSSL() bool      { return c.ArchiveUseSSL }
func (c *Config) IsArchiveEnabled() bool      { return c.ArchiveEndpoint != "" }

// Load reads configuration from environment variables and the partners file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}

	partners, err := LoadPartners(cfg.PartnersFile)
	if err != nil {
		return nil, err
	}
	cfg.Partners = partners

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithoutPartners is Load for tools that never call a partner.
func LoadWithoutPartners() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}
	if partners, err := LoadPartners(cfg.PartnersFile); err == nil {
		cfg.Partners = partners
	}
	return cfg, nil
}

func fromEnv() (*Config, error) {
	loc, err := time.LoadLocation(getEnv("RT_TZ", "America/Sao_Paulo"))
	if err != nil {
		return nil, fmt.Errorf("RT_TZ: %w", err)
	}
	start, err := ParseTimeOfDay(getEnv("RT_WINDOW_START", "07:50"))
	if err != nil {
		return nil, fmt.Errorf("RT_WINDOW_START: %w", err)
	}
	end, err := ParseTimeOfDay(getEnv("RT_WINDOW_END", "20:50"))
	if err != nil {
		return nil, fmt.Errorf("RT_WINDOW_END: %w", err)
	}
	weekdays, err := ParseWeekdays(getEnv("RT_WEEKDAYS", "mon,tue,wed,thu,fri,sat"))
	if err != nil {
		return nil, fmt.Errorf("RT_WEEKDAYS: %w", err)
	}

	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		DBTimeout:          seconds(getEnv("DB_TIMEOUT", "600"), 600*time.Second),
		DBConnectAttempts:  intOr(getEnv("DB_CONNECT_ATTEMPTS", "5"), 5),
		DBConnectBaseDelay: seconds(getEnv("DB_CONNECT_BASE_DELAY", "2s"), 2*time.Second),
		PartnersFile:       getEnv("PARTNERS_FILE", "partners.yaml"),
		PartnerTimeout:     seconds(getEnv("PARTNER_TIMEOUT", "30s"), 30*time.Second),
		PartnerPace:        seconds(getEnv("PARTNER_PACE", "100ms"), 100*time.Millisecond),
		FetchConcurrency:   intOr(getEnv("FETCH_CONCURRENCY", "1"), 1),
		StageBatchSize:     intOr(getEnv("STAGE_BATCH_SIZE", "500"), 500),
		DeepScan:           boolOr(getEnv("RUN_DEEP_SCAN", "true"), true),
		LookbackDays:       intOr(getEnv("LOOKBACK_DAYS", "90"), 90),
		BatchWindows:       intOr(getEnv("BATCH_WINDOWS", "0"), 0),
		LoopSleep:          seconds(getEnv("LOOP_SLEEP", "300"), 300*time.Second),
		WindowStart:        start,
		WindowEnd:          end,
		Weekdays:           weekdays,
		Location:           loc,
		AlignWakeups:       boolOr(getEnv("RT_ALIGN", "true"), true),
		StateBackend:       strings.ToLower(getEnv("STATE_BACKEND", "file")),
		StateFile:          getEnv("RT_STATE_FILE", ".newcorban_rt_state.json"),
		StateKey:           getEnv("STATE_KEY", "newcorban_rt"),
		RedisURL:           getEnv("REDIS_URL", ""),
		StatusAddr:         getEnv("STATUS_ADDR", ""),
		ArchiveEndpoint:    getEnv("ARCHIVE_ENDPOINT", ""),
		ArchiveAccessKey:   getEnv("ARCHIVE_ACCESS_KEY", ""),
		ArchiveSecretKey:   getEnv("ARCHIVE_SECRET_KEY", ""),
		ArchiveBucket:      getEnv("ARCHIVE_BUCKET", "partner-payloads"),
		ArchiveUseSSL:      boolOr(getEnv("ARCHIVE_USE_SSL", "false"), false),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

// Validate checks the struct tags and the cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !c.WindowStart.Before(c.WindowEnd) && c.WindowStart != c.WindowEnd {
		return fmt.Errorf("RT_WINDOW_START must not be after RT_WINDOW_END")
	}
	seen := make(map[string]bool, len(c.Partners))
	for _, p := range c.Partners {
		if seen[p.ID] {
			return fmt.Errorf("duplicate partner id %q", p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

// seconds accepts either a bare number of seconds or a Go duration.
func seconds(value string, fallback time.Duration) time.Duration {
	value = strings.TrimSpace(value)
	if n, err := strconv.ParseFloat(value, 64); err == nil {
		if n <= 0 {
			return fallback
		}
		return time.Duration(n * float64(time.Second))
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func intOr(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func boolOr(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}
