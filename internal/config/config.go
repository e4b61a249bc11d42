package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	RateLimit  RateLimitConfig
	Analysis   AnalysisConfig
	VideoIndex VideoIndexConfig
	Matching   MatchingConfig
	Stream     StreamConfig
	Gateway    GatewayConfig
}

type ServerConfig struct {
	Port      string
	Env       string
	LogLevel  string
	ApiDomain string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	MatchPerHour int
	SavesPerMin  int
}

type AnalysisConfig struct {
	APIKey        string
	BaseURL       string
	MaxAttempts   int
	BackoffBaseMS int
}

type VideoIndexConfig struct {
	APIKey  string
	BaseURL string
}

// MatchingConfig exposes the empirically tuned pipeline thresholds.
type MatchingConfig struct {
	DurationTolerance float64 // relative band around the voice-over target
	ClampTolerance    float64 // seconds of overrun absorbed by capping
	OverlapThreshold  float64 // interval IoU above which candidates collapse
}

type StreamConfig struct {
	PollIntervalMS int
}

type GatewayConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("ANALYSIS_API_KEY")
	readSecret("VIDEO_INDEX_API_KEY")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("server.api_domain", "API_DOMAIN")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("analysis.api_key", "ANALYSIS_API_KEY")
	_ = viper.BindEnv("analysis.base_url", "ANALYSIS_BASE_URL")
	_ = viper.BindEnv("analysis.max_attempts", "ANALYSIS_MAX_ATTEMPTS")
	_ = viper.BindEnv("analysis.backoff_base_ms", "ANALYSIS_BACKOFF_BASE_MS")
	_ = viper.BindEnv("videoindex.api_key", "VIDEO_INDEX_API_KEY")
	_ = viper.BindEnv("videoindex.base_url", "VIDEO_INDEX_BASE_URL")
	_ = viper.BindEnv("matching.duration_tolerance", "MATCHING_DURATION_TOLERANCE")
	_ = viper.BindEnv("matching.clamp_tolerance", "MATCHING_CLAMP_TOLERANCE")
	_ = viper.BindEnv("matching.overlap_threshold", "MATCHING_OVERLAP_THRESHOLD")
	_ = viper.BindEnv("stream.poll_interval_ms", "STREAM_POLL_INTERVAL_MS")
	_ = viper.BindEnv("ratelimit.match_per_hour", "RATELIMIT_MATCH_PER_HOUR")
	_ = viper.BindEnv("ratelimit.saves_per_min", "RATELIMIT_SAVES_PER_MIN")
	_ = viper.BindEnv("gateway.enabled", "GATEWAY_ENABLED")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("ratelimit.match_per_hour", 30)
	viper.SetDefault("ratelimit.saves_per_min", 60)

	// Analysis service defaults
	viper.SetDefault("analysis.base_url", "")
	viper.SetDefault("analysis.max_attempts", 5)
	viper.SetDefault("analysis.backoff_base_ms", 1000)

	// Video index defaults
	viper.SetDefault("videoindex.base_url", "")

	// Matching pipeline defaults (empirically tuned, see MatchingConfig)
	viper.SetDefault("matching.duration_tolerance", 0.10)
	viper.SetDefault("matching.clamp_tolerance", 0.5)
	viper.SetDefault("matching.overlap_threshold", 0.85)

	// Stream defaults
	viper.SetDefault("stream.poll_interval_ms", 500)

	// Gateway defaults
	viper.SetDefault("gateway.enabled", false)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:      viper.GetString("server.port"),
			Env:       viper.GetString("server.env"),
			LogLevel:  viper.GetString("server.log_level"),
			ApiDomain: viper.GetString("server.api_domain"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		RateLimit: RateLimitConfig{
			MatchPerHour: viper.GetInt("ratelimit.match_per_hour"),
			SavesPerMin:  viper.GetInt("ratelimit.saves_per_min"),
		},
		Analysis: AnalysisConfig{
			APIKey:        viper.GetString("analysis.api_key"),
			BaseURL:       viper.GetString("analysis.base_url"),
			MaxAttempts:   viper.GetInt("analysis.max_attempts"),
			BackoffBaseMS: viper.GetInt("analysis.backoff_base_ms"),
		},
		VideoIndex: VideoIndexConfig{
			APIKey:  viper.GetString("videoindex.api_key"),
			BaseURL: viper.GetString("videoindex.base_url"),
		},
		Matching: MatchingConfig{
			DurationTolerance: viper.GetFloat64("matching.duration_tolerance"),
			ClampTolerance:    viper.GetFloat64("matching.clamp_tolerance"),
			OverlapThreshold:  viper.GetFloat64("matching.overlap_threshold"),
		},
		Stream: StreamConfig{
			PollIntervalMS: viper.GetInt("stream.poll_interval_ms"),
		},
		Gateway: GatewayConfig{
			Enabled: viper.GetBool("gateway.enabled"),
		},
	}

	return cfg, nil
}
