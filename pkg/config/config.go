package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"fillReconciler/pkg/database"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LockConfig struct {
	TTL  time.Duration
	Wait time.Duration
}

// maxCommissionScale is the fractional digit count of the stored decimals.
const maxCommissionScale = 18

type MatchingConfig struct {
	// ProxyBucket is the bucket whose sells draw on every bucket's buys.
	ProxyBucket     string
	CommissionScale int32
}

type WatchConfig struct {
	Interval time.Duration
	Symbols  []string
}

type Config struct {
	Database    database.Config
	Redis       RedisConfig
	Lock        LockConfig
	Matching    MatchingConfig
	Watch       WatchConfig
	MetricsAddr string
	LogLevel    string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", database.DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "order_app")
	v.SetDefault("database.port", "6432")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "UTC")
	v.SetDefault("database.dsn", "reconciler.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("lock.ttl", 30*time.Second)
	v.SetDefault("lock.wait", 10*time.Second)
	v.SetDefault("matching.proxy_bucket", "1m")
	v.SetDefault("matching.commission_scale", 18)
	v.SetDefault("watch.interval", time.Second)
	v.SetDefault("watch.symbols", []string{})
	v.SetDefault("metrics.addr", "")
	v.SetDefault("log.level", "info")
}

// Load reads the config file, when path is set, and RECONCILER_* environment
// variables, e.g. RECONCILER_DATABASE_HOST for database.host.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("reconciler")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Database: database.Config{
			Driver:       v.GetString("database.driver"),
			Host:         v.GetString("database.host"),
			User:         v.GetString("database.user"),
			Password:     v.GetString("database.password"),
			DBName:       v.GetString("database.name"),
			Port:         v.GetString("database.port"),
			SSLMode:      v.GetString("database.sslmode"),
			TimeZone:     v.GetString("database.timezone"),
			DSN:          v.GetString("database.dsn"),
			MaxOpenConns: v.GetInt("database.max_open_conns"),
			MaxIdleConns: v.GetInt("database.max_idle_conns"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Lock: LockConfig{
			TTL:  v.GetDuration("lock.ttl"),
			Wait: v.GetDuration("lock.wait"),
		},
		Matching: MatchingConfig{
			ProxyBucket:     v.GetString("matching.proxy_bucket"),
			CommissionScale: v.GetInt32("matching.commission_scale"),
		},
		Watch: WatchConfig{
			Interval: v.GetDuration("watch.interval"),
			Symbols:  v.GetStringSlice("watch.symbols"),
		},
		MetricsAddr: v.GetString("metrics.addr"),
		LogLevel:    v.GetString("log.level"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case database.DriverPostgres, database.DriverSQLite:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", database.DriverPostgres, database.DriverSQLite, c.Database.Driver)
	}
	if c.Matching.ProxyBucket == "" {
		return errors.New("matching.proxy_bucket must not be empty")
	}
	if c.Matching.CommissionScale <= 0 || c.Matching.CommissionScale > maxCommissionScale {
		return fmt.Errorf("matching.commission_scale must be in [1, %d], got %d", maxCommissionScale, c.Matching.CommissionScale)
	}
	if c.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be positive, got %s", c.Watch.Interval)
	}
	if c.Lock.Wait <= 0 {
		return fmt.Errorf("lock.wait must be positive, got %s", c.Lock.Wait)
	}
	return nil
}
