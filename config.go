package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the app needs to start. In development every
// value has a default; in production a config file is required.
type Config struct {
	Port      int            `mapstructure:"port"`
	Env       string         `mapstructure:"env"`
	Pepper    string         `mapstructure:"pepper"`
	HMACKey   string         `mapstructure:"hmac_key"`
	CSRFKey   string         `mapstructure:"csrf_key"`
	MediaRoot string         `mapstructure:"media_root"`
	CacheTTL  int            `mapstructure:"cache_ttl"`
	Database  PostgresConfig `mapstructure:"database"`
	Redis     RedisConfig    `mapstructure:"redis"`
}

// IsProd reports whether we're running in production.
func (c Config) IsProd() bool {
	return c.Env == "prod"
}

// PageCacheTTL returns the index cache TTL as a duration.
func (c Config) PageCacheTTL() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

// ConnectionInfo builds the postgres connection string.
func (pc PostgresConfig) ConnectionInfo() string {
	if pc.Password == "" {
		return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable",
			pc.Host, pc.Port, pc.User, pc.Name)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		pc.Host, pc.Port, pc.User, pc.Password, pc.Name)
}

// RedisConfig configures the page cache store. An empty Addr disables
// the cache entirely.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoadConfig reads config.yaml from the working directory via viper.
// Without a file, the default dev setup applies. If prod is true, the
// file is required and the app panics when it's missing.
func LoadConfig(prod bool) Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetDefault("port", 8000)
	v.SetDefault("env", "dev")
	v.SetDefault("pepper", "secret-random-string")
	v.SetDefault("hmac_key", "secret-hmac-key")
	v.SetDefault("csrf_key", "32-byte-long-auth-key-for-csrf!!")
	v.SetDefault("media_root", "media")
	v.SetDefault("cache_ttl", 20)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "microblog")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	if err := v.ReadInConfig(); err != nil {
		if prod {
			panic(fmt.Errorf("a config.yaml file is required in production: %w", err))
		}
		fmt.Println("No config.yaml found, using the default dev config.")
	} else {
		fmt.Println("Successfully loaded", v.ConfigFileUsed())
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		panic(fmt.Errorf("err unmarshalling config: %w", err))
	}
	return c
}
