package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"https://alexhorzhij.github.io"`

		// Путь, под которым отдается собранная страница мини-приложения
		BasePath  string `env:"BASE_PATH" envDefault:"/spravzhnya_tg_orders/"`
		StaticDir string `env:"STATIC_DIR" envDefault:""`
	}

	Telegram struct {
		BotToken    string        `env:"BOT_TOKEN"`
		InitDataTTL time.Duration `env:"INIT_DATA_TTL" envDefault:"24h"`
	}

	Webhooks struct {
		ProfileURL string        `env:"PROFILE_WEBHOOK_URL,required,notEmpty"`
		OrderURL   string        `env:"ORDER_WEBHOOK_URL,required,notEmpty"`
		Timeout    time.Duration `env:"HTTP_CLIENT_TIMEOUT" envDefault:"15s"`
	}

	Order struct {
		Locale   string `env:"ORDER_LOCALE" envDefault:"uk-UA"`
		Timezone string `env:"ORDER_TIMEZONE" envDefault:"Europe/Kyiv"`
	}

	Session struct {
		TTL           time.Duration `env:"SESSION_TTL" envDefault:"2h"`
		SubmitLockTTL time.Duration `env:"SUBMIT_LOCK_TTL" envDefault:"30s"`
	}

	Redis struct {
		Enabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}
}

// RedisAddr returns host:port of the Redis server.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Location resolves the time zone order dates are rendered in.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Order.Timezone)
}

func Load() (*Config, error) {
	// .env может отсутствовать: в production переменные задаются напрямую
	_ = godotenv.Load()

	return Parse()
}

// Parse reads the process environment without touching .env files.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, fmt.Errorf("invalid ORDER_TIMEZONE: %w", err)
	}
	return cfg, nil
}
