package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration, loaded from the environment.
type Config struct {
	Environment string

	Server        ServerConfig
	ClickHouse    ClickHouseConfig
	Elasticsearch ElasticsearchConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Detection     DetectionConfig
	Fetch         FetchConfig
	Logging       LoggingConfig
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type ClickHouseConfig struct {
	URL      string
	Database string
	Username string
	Password string
}

type ElasticsearchConfig struct {
	URL      string
	Username string
	Password string

	// PageSize bounds a single event search; events beyond it are not
	// fetched and a warning is logged.
	PageSize int
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int

	// ReportTTL bounds how long a cached audit report stays servable.
	ReportTTL time.Duration
	// RunLockTTL bounds the run lock in case a run dies without releasing it.
	RunLockTTL time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	FindingsTopic string
}

// DetectionConfig carries every tunable threshold the detection modules
// consume. The engine owns none of these values; they are injected here and
// passed through unchanged.
type DetectionConfig struct {
	BusinessHoursStart       int
	BusinessHoursEnd         int
	BruteForceThreshold      int
	BruteForceWindow         time.Duration
	ExfilSizeThresholdBytes  int64
	ImpossibleTravelSpeedKmh float64
	PhishingRiskThreshold    float64
	MinimumPatchLevel        int
	RunTimeout               time.Duration

	// PolicyFile points at the YAML file holding the toxic-combination
	// matrix and the insecure-protocol / EOL OS version sets.
	PolicyFile string
}

// FetchConfig controls retry behavior for store fetches.
type FetchConfig struct {
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig reads configuration from the environment. A .env file is
// loaded first when present so local development does not need exported
// variables.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 3*time.Minute),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		ClickHouse: ClickHouseConfig{
			URL:      getEnv("CLICKHOUSE_URL", "http://localhost:8123"),
			Database: getEnv("CLICKHOUSE_DATABASE", "soc_audit"),
			Username: getEnv("CLICKHOUSE_USERNAME", "default"),
			Password: getEnv("CLICKHOUSE_PASSWORD", ""),
		},
		Elasticsearch: ElasticsearchConfig{
			URL:      getEnv("ELASTIC_URL", "http://localhost:9200"),
			Username: getEnv("ELASTIC_USERNAME", ""),
			Password: getEnv("ELASTIC_PASSWORD", ""),
			PageSize: getEnvInt("ELASTIC_PAGE_SIZE", 10000),
		},
		Redis: RedisConfig{
			URL:        getEnv("REDIS_URL", "redis://localhost:6379"),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvInt("REDIS_DB", 0),
			PoolSize:   getEnvInt("REDIS_POOL_SIZE", 20),
			ReportTTL:  getEnvDuration("REPORT_CACHE_TTL", 24*time.Hour),
			RunLockTTL: getEnvDuration("RUN_LOCK_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:       getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			FindingsTopic: getEnv("KAFKA_FINDINGS_TOPIC", "security.findings"),
		},
		Detection: DetectionConfig{
			BusinessHoursStart:       getEnvInt("BUSINESS_HOURS_START", 8),
			BusinessHoursEnd:         getEnvInt("BUSINESS_HOURS_END", 20),
			BruteForceThreshold:      getEnvInt("BRUTE_FORCE_THRESHOLD", 5),
			BruteForceWindow:         getEnvDuration("BRUTE_FORCE_WINDOW", 10*time.Minute),
			ExfilSizeThresholdBytes:  getEnvInt64("EXFIL_SIZE_THRESHOLD_BYTES", 100*1024*1024),
			ImpossibleTravelSpeedKmh: getEnvFloat("IMPOSSIBLE_TRAVEL_SPEED_KMH", 900),
			PhishingRiskThreshold:    getEnvFloat("PHISHING_RISK_THRESHOLD", 0.8),
			MinimumPatchLevel:        getEnvInt("MINIMUM_PATCH_LEVEL", 0),
			RunTimeout:               getEnvDuration("RUN_TIMEOUT", 2*time.Minute),
			PolicyFile:               getEnv("DETECTION_POLICY_FILE", "configs/policy.yaml"),
		},
		Fetch: FetchConfig{
			MaxAttempts: getEnvInt("FETCH_MAX_ATTEMPTS", 3),
			BackoffBase: getEnvDuration("FETCH_BACKOFF_BASE", 200*time.Millisecond),
			BackoffMax:  getEnvDuration("FETCH_BACKOFF_MAX", 5*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	d := c.Detection
	if d.BusinessHoursStart < 0 || d.BusinessHoursStart > 23 ||
		d.BusinessHoursEnd < 1 || d.BusinessHoursEnd > 24 ||
		d.BusinessHoursStart >= d.BusinessHoursEnd {
		return fmt.Errorf("invalid business hours window [%d, %d)", d.BusinessHoursStart, d.BusinessHoursEnd)
	}
	if d.BruteForceThreshold < 1 {
		return fmt.Errorf("brute force threshold must be >= 1, got %d", d.BruteForceThreshold)
	}
	if d.BruteForceWindow <= 0 {
		return fmt.Errorf("brute force window must be positive, got %s", d.BruteForceWindow)
	}
	if d.ExfilSizeThresholdBytes < 0 {
		return fmt.Errorf("exfil size threshold must be >= 0, got %d", d.ExfilSizeThresholdBytes)
	}
	if d.ImpossibleTravelSpeedKmh <= 0 {
		return fmt.Errorf("impossible travel speed must be positive, got %g", d.ImpossibleTravelSpeedKmh)
	}
	if d.PhishingRiskThreshold < 0 || d.PhishingRiskThreshold > 1 {
		return fmt.Errorf("phishing risk threshold must be in [0, 1], got %g", d.PhishingRiskThreshold)
	}
	if c.Fetch.MaxAttempts < 1 {
		return fmt.Errorf("fetch max attempts must be >= 1, got %d", c.Fetch.MaxAttempts)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) GetServerAddress() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
