package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AppCfg struct {
	Env          string        `yaml:"env"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	JWT          struct {
		Secret       string `yaml:"secret"`
		TokenTTLDays int    `yaml:"tokenTTLDays"`
	} `yaml:"jwt"`
}

type MongoCfg struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type RedisCfg struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaCfg struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type UserCfg struct {
	Collection string `yaml:"collection"`
}

type SecurityCfg struct {
	OtpTTLMinutes          int `yaml:"otpTTLMinutes"`
	OtpRateLimitMax        int `yaml:"otpRateLimitMax"`
	OtpRateLimitWindowMins int `yaml:"otpRateLimitWindowMinutes"`
	RateLimitMax           int `yaml:"rateLimitMax"`
	RateLimitWindowMins    int `yaml:"rateLimitWindowMinutes"`
	PasswordHashCost       int `yaml:"passwordHashCost"`
}

type Config struct {
	App      AppCfg      `yaml:"app"`
	Mongo    MongoCfg    `yaml:"mongo"`
	Redis    RedisCfg    `yaml:"redis"`
	Kafka    KafkaCfg    `yaml:"kafka"`
	User     UserCfg     `yaml:"user"`
	Security SecurityCfg `yaml:"security"`
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.App.JWT.TokenTTLDays) * 24 * time.Hour
}

func (c *Config) OtpTTL() time.Duration {
	return time.Duration(c.Security.OtpTTLMinutes) * time.Minute
}

func (c *Config) OtpRateWindow() time.Duration {
	return time.Duration(c.Security.OtpRateLimitWindowMins) * time.Minute
}

func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.Security.RateLimitWindowMins) * time.Minute
}

func defaults() *Config {
	cfg := &Config{}
	cfg.App.Env = "development"
	cfg.App.Port = 8080
	cfg.App.ReadTimeout = 10 * time.Second
	cfg.App.WriteTimeout = 10 * time.Second
	cfg.App.IdleTimeout = 60 * time.Second
	cfg.App.JWT.TokenTTLDays = 7
	cfg.Mongo.Database = "farely"
	cfg.User.Collection = "users"
	cfg.Security.OtpTTLMinutes = 10
	cfg.Security.OtpRateLimitMax = 3
	cfg.Security.OtpRateLimitWindowMins = 15
	cfg.Security.RateLimitMax = 100
	cfg.Security.RateLimitWindowMins = 15
	cfg.Security.PasswordHashCost = 10
	return cfg
}

// Load reads the optional yaml file at path, applies environment overrides,
// and refuses to start without a store connection string and signing secret.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path != "" {
		if b, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
			}
		}
	}

	override := func(env string, apply func(string)) {
		if v := os.Getenv(env); v != "" {
			apply(v)
		}
	}

	override("APP_ENV", func(v string) { cfg.App.Env = v })
	override("APP_PORT", func(v string) {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.App.Port = n
		}
	})
	override("JWT_SECRET", func(v string) { cfg.App.JWT.Secret = v })
	override("JWT_TOKEN_TTL_DAYS", func(v string) {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.App.JWT.TokenTTLDays = n
		}
	})
	override("MONGO_URI", func(v string) { cfg.Mongo.URI = v })
	override("MONGO_DB", func(v string) { cfg.Mongo.Database = v })
	override("REDIS_ADDR", func(v string) { cfg.Redis.Addr = v })
	override("REDIS_PASSWORD", func(v string) { cfg.Redis.Password = v })
	override("KAFKA_BROKERS", func(v string) { cfg.Kafka.Brokers = strings.Split(v, ",") })
	override("KAFKA_TOPIC", func(v string) { cfg.Kafka.Topic = v })
	override("OTP_TTL_MINUTES", func(v string) {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Security.OtpTTLMinutes = n
		}
	})
	override("OTP_RATE_LIMIT_MAX", func(v string) {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Security.OtpRateLimitMax = n
		}
	})
	override("PASSWORD_HASH_COST", func(v string) {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Security.PasswordHashCost = n
		}
	})

	if cfg.Mongo.URI == "" {
		return nil, errors.New("MONGO_URI is required (set in .env or config.yaml)")
	}
	if cfg.App.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is required (set in .env or config.yaml)")
	}

	return cfg, nil
}
