package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type (
	Properties struct {
		LogLevel string `env:"LOG_LEVEL" envDefault:"INFO"`

		DB       DBProperties         `envPrefix:"DB_"`
		Redis    RedisProperties      `envPrefix:"REDIS_"`
		S3       S3Properties         `envPrefix:"S3_"`
		Server   HttpServerProperties `envPrefix:"HTTP_"`
		Sessions SessionProperties    `envPrefix:"SESSION_"`
	}

	DBProperties struct {
		Host     string `env:"HOST" envDefault:"localhost"`
		Port     string `env:"PORT" envDefault:"5432"`
		Username string `env:"USERNAME" envDefault:"glimpse"`
		Password string `env:"PASSWORD"`
		Name     string `env:"NAME" envDefault:"glimpse"`
		SSLMode  string `env:"SSLMODE" envDefault:"disable"`
	}

	// RedisProperties configures the change-notification channel. An empty
	// host selects the in-process hub instead of Redis pub/sub.
	RedisProperties struct {
		Host     string `env:"HOST"`
		Port     string `env:"PORT" envDefault:"6379"`
		Password string `env:"PASSWORD"`
		DB       int    `env:"DB" envDefault:"0"`
	}

	S3Properties struct {
		Host      string `env:"HOST"`
		AccessKey string `env:"ACCESS_KEY"`
		SecretKey string `env:"SECRET_KEY"`
		Bucket    string `env:"BUCKET" envDefault:"glimpse"`
		UseSSL    bool   `env:"USE_SSL" envDefault:"true"`
	}

	HttpServerProperties struct {
		Port           string        `env:"PORT" envDefault:"8088"`
		TemplateGlob   string        `env:"TEMPLATES" envDefault:"web/templates/*.html"`
		StaticDir      string        `env:"STATIC" envDefault:"./web/static"`
		CookieDomain   string        `env:"COOKIE_DOMAIN" envDefault:"localhost"`
		AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:8088"`
		ReadTimeout    time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	}

	SessionProperties struct {
		CookieName string        `env:"COOKIE" envDefault:"glimpse_session"`
		TTL        time.Duration `env:"TTL" envDefault:"168h"`
	}
)

func ReadProperties() *Properties {
	properties := &Properties{}
	if err := env.Parse(properties); err != nil {
		panic(fmt.Errorf("read config error: %w", err))
	}
	return properties
}

func (p *DBProperties) ConnString() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s sslmode=%s host=%s port=%s",
		p.Username, p.Password, p.Name, p.SSLMode, p.Host, p.Port,
	)
}

func (p *RedisProperties) Addr() string {
	return fmt.Sprintf("%s:%s", p.Host, p.Port)
}
