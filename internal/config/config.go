package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

type SecurityConfig struct {
	JWTAccessSecret string
	JWTAccessTTL    time.Duration
}

// LeaseConfig governs concurrent-device admission. FailOpen trades strict
// limit enforcement for availability: a heartbeat is admitted when the
// session store is unreachable instead of blocking playback.
type LeaseConfig struct {
	ActivityWindow    time.Duration
	DefaultMaxDevices int
	FailOpen          bool
	StaleRetention    time.Duration
}

// EntitlementConfig carries the opposite asymmetry: granting playback without
// verified payment state is the costlier mistake, so store failures deny.
type EntitlementConfig struct {
	FailClosed bool
}

type CapabilityConfig struct {
	TTL        time.Duration
	TokenBytes int
}

type CatalogConfig struct {
	BaseURL string
	Timeout time.Duration
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	Lease            LeaseConfig
	Entitlement      EntitlementConfig
	Capability       CapabilityConfig
	Catalog          CatalogConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("TV4U")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.bucket", "tv4u-streams")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("security.jwtaccessttl", "15m")

	v.SetDefault("lease.activitywindow", "1h")
	v.SetDefault("lease.defaultmaxdevices", 2)
	v.SetDefault("lease.failopen", true)
	v.SetDefault("lease.staleretention", "720h") // 30 days

	v.SetDefault("entitlement.failclosed", true)

	v.SetDefault("capability.ttl", "30m")
	v.SetDefault("capability.tokenbytes", 32)

	v.SetDefault("catalog.timeout", "5s")
}
