// Package conf provides configuration management using Viper.
// It supports loading configuration from YAML files and environment variables,
// with CLI flag overrides.
package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"google.golang.org/protobuf/types/known/durationpb"
)

// NewBootstrap creates and initializes a Bootstrap configuration.
// It loads configuration from the specified config file path, applies defaults,
// and allows overrides from environment variables prefixed with TRIPATLAS_.
//
// Configuration priority: CLI flags > Environment variables > Config file > Defaults
//
// Required environment variables:
//   - MYSQL_DSN or TRIPATLAS_DATA_DATABASE_SOURCE: MySQL connection string
//   - AMAP_KEY or TRIPATLAS_MAPS_PROVIDER_KEY: static map provider key
//
// Parameters:
//   - configPath: Path to the configuration file or directory
//
// Returns:
//   - *Bootstrap: Loaded configuration
//   - error: Configuration loading or validation error
func NewBootstrap(configPath string) (*Bootstrap, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Enable environment variable support with TRIPATLAS_ prefix
	v.SetEnvPrefix("TRIPATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow direct environment variable names (without TRIPATLAS_ prefix) for compatibility
	// Bind specific environment variables for required fields
	_ = v.BindEnv("data.database.source", "MYSQL_DSN", "TRIPATLAS_DATA_DATABASE_SOURCE")
	_ = v.BindEnv("data.redis.addr", "TRIPATLAS_DATA_REDIS_ADDR")
	_ = v.BindEnv("maps.provider.key", "AMAP_KEY", "TRIPATLAS_MAPS_PROVIDER_KEY")
	_ = v.BindEnv("maps.provider.proxy", "TRIPATLAS_MAPS_PROVIDER_PROXY")

	// Load configuration file
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// If config file is specified but not found, return error
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	// Parse configuration into Bootstrap structure
	bc := &Bootstrap{
		Server: &Server{
			Http: &Server_HTTP{
				Network: v.GetString("server.http.network"),
				Addr:    v.GetString("server.http.addr"),
				Timeout: durationpb.New(v.GetDuration("server.http.timeout")),
			},
		},
		Data: &Data{
			Database: &Data_Database{
				Driver: v.GetString("data.database.driver"),
				Source: v.GetString("data.database.source"),
			},
			Redis: &Data_Redis{
				Network:      v.GetString("data.redis.network"),
				Addr:         v.GetString("data.redis.addr"),
				ReadTimeout:  durationpb.New(v.GetDuration("data.redis.read_timeout")),
				WriteTimeout: durationpb.New(v.GetDuration("data.redis.write_timeout")),
			},
		},
		Maps: &Maps{
			Cache: &Maps_Cache{
				Enabled:     v.GetBool("maps.cache.enabled"),
				L1Capacity:  v.GetInt("maps.cache.l1_capacity"),
				L1Ttl:       durationpb.New(v.GetDuration("maps.cache.l1_ttl")),
				L2Ttl:       durationpb.New(v.GetDuration("maps.cache.l2_ttl")),
				WarmupSpec:  v.GetString("maps.cache.warmup_spec"),
				WarmupLimit: v.GetInt("maps.cache.warmup_limit"),
			},
			Breaker: &Maps_Breaker{
				FailureRateThreshold: v.GetInt("maps.breaker.failure_rate_threshold"),
				WindowSize:           v.GetInt("maps.breaker.window_size"),
				MinCalls:             v.GetInt("maps.breaker.min_calls"),
				OpenWait:             durationpb.New(v.GetDuration("maps.breaker.open_wait")),
				HalfOpenCalls:        v.GetInt("maps.breaker.half_open_calls"),
			},
			Markers: &Maps_Markers{
				StartColor:    v.GetString("maps.markers.start_color"),
				EndColor:      v.GetString("maps.markers.end_color"),
				WaypointColor: v.GetString("maps.markers.waypoint_color"),
				SupplierColor: v.GetString("maps.markers.supplier_color"),
			},
			Path: &Maps_Path{
				Color:        v.GetString("maps.path.color"),
				Weight:       v.GetInt("maps.path.weight"),
				Transparency: v.GetFloat64("maps.path.transparency"),
				MaxPoints:    v.GetInt("maps.path.max_points"),
			},
			Provider: &Maps_Provider{
				Endpoint: v.GetString("maps.provider.endpoint"),
				Key:      v.GetString("maps.provider.key"),
				Proxy:    v.GetString("maps.provider.proxy"),
				Timeout:  durationpb.New(v.GetDuration("maps.provider.timeout")),
			},
			PlaceholderBase: v.GetString("maps.placeholder_base"),
		},
		Log: &Log{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Env:        v.GetString("log.env"),
			OutputFile: v.GetString("log.output_file"),
		},
	}

	// Validate required fields
	if err := Validate(bc); err != nil {
		return nil, err
	}

	return bc, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.http.network", "tcp")
	v.SetDefault("server.http.addr", ":8080")
	v.SetDefault("server.http.timeout", time.Minute)

	// Data defaults
	v.SetDefault("data.database.driver", "mysql")
	// Note: data.database.source (MYSQL_DSN) is required from environment

	v.SetDefault("data.redis.network", "tcp")
	v.SetDefault("data.redis.addr", "127.0.0.1:6379")
	v.SetDefault("data.redis.read_timeout", 200*time.Millisecond)
	v.SetDefault("data.redis.write_timeout", 200*time.Millisecond)

	// Tiered cache defaults: L1 七天，L2 三十天
	v.SetDefault("maps.cache.enabled", true)
	v.SetDefault("maps.cache.l1_capacity", 1000)
	v.SetDefault("maps.cache.l1_ttl", 7*24*time.Hour)
	v.SetDefault("maps.cache.l2_ttl", 30*24*time.Hour)
	v.SetDefault("maps.cache.warmup_spec", "0 */30 * * * *")
	v.SetDefault("maps.cache.warmup_limit", 100)

	// Circuit breaker defaults
	v.SetDefault("maps.breaker.failure_rate_threshold", 50)
	v.SetDefault("maps.breaker.window_size", 10)
	v.SetDefault("maps.breaker.min_calls", 5)
	v.SetDefault("maps.breaker.open_wait", 30*time.Second)
	v.SetDefault("maps.breaker.half_open_calls", 3)

	// Marker role colors
	v.SetDefault("maps.markers.start_color", "0x00FF00")
	v.SetDefault("maps.markers.end_color", "0xFF0000")
	v.SetDefault("maps.markers.waypoint_color", "0x1890FF")
	v.SetDefault("maps.markers.supplier_color", "0xFF8C00")

	// Path styling
	v.SetDefault("maps.path.color", "0x1890FF")
	v.SetDefault("maps.path.weight", 6)
	v.SetDefault("maps.path.transparency", 1.0)
	v.SetDefault("maps.path.max_points", 50)

	// Provider defaults
	v.SetDefault("maps.provider.endpoint", "https://restapi.amap.com/v3/staticmap")
	v.SetDefault("maps.provider.timeout", 15*time.Second)
	// Note: maps.provider.key (AMAP_KEY) is required from environment

	v.SetDefault("maps.placeholder_base", "https://cdn.tripatlas.cn/static/placeholders")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that all required configuration fields are present and valid.
// It returns an error listing all missing required fields.
func Validate(bc *Bootstrap) error {
	var missingFields []string

	// Check required database configuration
	if bc.Data == nil || bc.Data.Database == nil || bc.Data.Database.Source == "" {
		missingFields = append(missingFields, "data.database.source (MYSQL_DSN)")
	}

	// Check required provider configuration
	if bc.Maps == nil || bc.Maps.Provider == nil || bc.Maps.Provider.Key == "" {
		missingFields = append(missingFields, "maps.provider.key (AMAP_KEY)")
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("missing required configuration fields: %s", strings.Join(missingFields, ", "))
	}

	// Breaker sanity: window must be able to hold the minimum call count
	if bc.Maps != nil && bc.Maps.Breaker != nil {
		b := bc.Maps.Breaker
		if b.MinCalls > b.WindowSize {
			return fmt.Errorf("maps.breaker.min_calls (%d) cannot exceed maps.breaker.window_size (%d)",
				b.MinCalls, b.WindowSize)
		}
		if b.FailureRateThreshold <= 0 || b.FailureRateThreshold > 100 {
			return fmt.Errorf("maps.breaker.failure_rate_threshold must be in (0, 100], got %d",
				b.FailureRateThreshold)
		}
	}

	return nil
}
