package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jengzang/moodtrail-backend-go/internal/analysis"
	"github.com/jengzang/moodtrail-backend-go/internal/analysis/correlation"
)

// Config 应用配置
type Config struct {
	Port         string `yaml:"port"`
	DBPath       string `yaml:"db_path"`
	SourceDBPath string `yaml:"source_db_path"` // Exported collector database; empty fails runs with a configuration error
	AWSRegion    string `yaml:"aws_region"`
	LogLevel     string `yaml:"log_level"` // debug, info, warn, error
	Development  bool   `yaml:"development"`

	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst"`

	QueueCapacity int     `yaml:"queue_capacity"`
	OracleRPS     float64 `yaml:"oracle_rps"` // Oracle calls per second, 0 for unlimited

	Analysis AnalysisConfig `yaml:"analysis"`
}

// AnalysisConfig holds the pipeline thresholds
type AnalysisConfig struct {
	StayDistanceMeters    float64 `yaml:"stay_distance_meters"`
	StayTimeMinutes       float64 `yaml:"stay_time_minutes"`
	ClusterDistanceMeters float64 `yaml:"cluster_distance_meters"`
	MinClusterVisits      int     `yaml:"min_cluster_visits"`

	BatchSize     int    `yaml:"batch_size"`
	LanguageCode  string `yaml:"language_code"`
	RetryAttempts int    `yaml:"retry_attempts"`

	PlaceMinDwellMinutes float64 `yaml:"place_min_dwell_minutes"`
	PlacePresenceMode    string  `yaml:"place_presence_mode"` // spread or exact
}

// Params converts the thresholds for the analysis passes
func (a AnalysisConfig) Params() analysis.Params {
	return analysis.Params{
		StayDistanceMeters:    a.StayDistanceMeters,
		StayTimeMinutes:       a.StayTimeMinutes,
		ClusterDistanceMeters: a.ClusterDistanceMeters,
		MinClusterVisits:      a.MinClusterVisits,
		BatchSize:             a.BatchSize,
		LanguageCode:          a.LanguageCode,
		RetryAttempts:         a.RetryAttempts,
		PlaceMinDwellMinutes:  a.PlaceMinDwellMinutes,
		PlacePresenceMode:     a.PlacePresenceMode,
	}
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Port:           ":8080",
		DBPath:         "./data/moodtrail.db",
		AWSRegion:      "us-east-1",
		LogLevel:       "info",
		AllowedOrigins: []string{"*"},
		RateLimitRPS:   10,
		RateLimitBurst: 20,
		QueueCapacity:  16,
		Analysis: AnalysisConfig{
			StayDistanceMeters:    100,
			StayTimeMinutes:       10,
			ClusterDistanceMeters: 200,
			MinClusterVisits:      2,
			BatchSize:             25,
			LanguageCode:          "en",
			RetryAttempts:         3,
			PlaceMinDwellMinutes:  correlation.DefaultPlaceMinDwellMinutes,
			PlacePresenceMode:     correlation.PlaceModeSpread,
		},
	}
}

// Load 加载配置: defaults, then the YAML file at path (if any), then environment variables
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	c.SourceDBPath = getEnv("SOURCE_DB_PATH", c.SourceDBPath)
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Analysis.LanguageCode = getEnv("LANGUAGE_CODE", c.Analysis.LanguageCode)
	c.Analysis.PlacePresenceMode = getEnv("PLACE_PRESENCE_MODE", c.Analysis.PlacePresenceMode)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = strings.Split(origins, ",")
	}

	var errs []error
	envFloat("RATE_LIMIT_RPS", &c.RateLimitRPS, &errs)
	envInt("RATE_LIMIT_BURST", &c.RateLimitBurst, &errs)
	envInt("QUEUE_CAPACITY", &c.QueueCapacity, &errs)
	envFloat("ORACLE_RPS", &c.OracleRPS, &errs)
	envFloat("STAY_DISTANCE_METERS", &c.Analysis.StayDistanceMeters, &errs)
	envFloat("STAY_TIME_MINUTES", &c.Analysis.StayTimeMinutes, &errs)
	envFloat("CLUSTER_DISTANCE_METERS", &c.Analysis.ClusterDistanceMeters, &errs)
	envInt("MIN_CLUSTER_VISITS", &c.Analysis.MinClusterVisits, &errs)
	envInt("BATCH_SIZE", &c.Analysis.BatchSize, &errs)
	envInt("RETRY_ATTEMPTS", &c.Analysis.RetryAttempts, &errs)
	envFloat("PLACE_MIN_DWELL_MINUTES", &c.Analysis.PlaceMinDwellMinutes, &errs)
	if v := os.Getenv("DEVELOPMENT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("DEVELOPMENT: %w", err))
		}
		c.Development = b
	}
	return errors.Join(errs...)
}

// Validate rejects settings the pipeline cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("rate limit rps and burst must be positive"))
	}
	if c.QueueCapacity <= 0 {
		errs = append(errs, errors.New("queue_capacity must be positive"))
	}
	if c.OracleRPS < 0 {
		errs = append(errs, errors.New("oracle_rps must not be negative"))
	}

	a := c.Analysis
	if a.StayDistanceMeters <= 0 || a.StayTimeMinutes <= 0 {
		errs = append(errs, errors.New("stay point thresholds must be positive"))
	}
	if a.ClusterDistanceMeters <= 0 {
		errs = append(errs, errors.New("cluster_distance_meters must be positive"))
	}
	if a.MinClusterVisits < 1 {
		errs = append(errs, errors.New("min_cluster_visits must be at least 1"))
	}
	if a.BatchSize < 1 || a.BatchSize > 25 {
		errs = append(errs, errors.New("batch_size must be between 1 and 25"))
	}
	if a.RetryAttempts < 1 {
		errs = append(errs, errors.New("retry_attempts must be at least 1"))
	}
	if a.LanguageCode == "" {
		errs = append(errs, errors.New("language_code is required"))
	}
	if a.PlaceMinDwellMinutes < 0 {
		errs = append(errs, errors.New("place_min_dwell_minutes must not be negative"))
	}
	if a.PlacePresenceMode != correlation.PlaceModeSpread && a.PlacePresenceMode != correlation.PlaceModeExact {
		errs = append(errs, fmt.Errorf("unknown place_presence_mode %q", a.PlacePresenceMode))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, dst *int, errs *[]error) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = n
}

func envFloat(key string, dst *float64, errs *[]error) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = f
}
