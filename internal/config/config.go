package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	HTTP struct {
		Host string `env:"HTTP_HOST" envDefault:""`
		Port string `env:"HTTP_PORT" envDefault:"8080"`
	}

	DB struct {
		Host            string `env:"DB_HOST" envDefault:"postgres"`
		Port            int    `env:"DB_PORT" envDefault:"5432"`
		User            string `env:"DB_USER" envDefault:"scheduling"`
		Password        string `env:"DB_PASSWORD" envDefault:"scheduling"`
		Name            string `env:"DB_NAME" envDefault:"scheduling_db"`
		SSLMode         string `env:"DB_SSLMODE" envDefault:"disable"`
		TimeZone        string `env:"DB_TIMEZONE" envDefault:"UTC"`
		MaxOpenConns    int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns    int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
		ConnMaxLifeTime int    `env:"DB_CONN_MAX_LIFETIME_MIN" envDefault:"30"` // минут
	}

	Scheduling struct {
		// Горизонт материализации слотов, дней вперёд от сегодня.
		HorizonDays int `env:"SCHEDULING_HORIZON_DAYS" envDefault:"60"`
		// Окно бронирования: насколько далеко вперёд можно бронировать.
		BookingWindowDays int `env:"SCHEDULING_BOOKING_WINDOW_DAYS" envDefault:"30"`
	}
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// минимальная валидация
	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, fmt.Errorf("invalid DB config: host/user/name must not be empty")
	}
	if cfg.Scheduling.HorizonDays <= 0 || cfg.Scheduling.BookingWindowDays <= 0 {
		return nil, fmt.Errorf("invalid scheduling config: horizon and booking window must be positive")
	}

	return cfg, nil
}
