// Package config содержит логику чтения конфигурации витрины заказов.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации витрины заказов. Если задан
// DatabaseURI, хранилище работает поверх PostgreSQL, иначе — поверх
// встраиваемого файла SQLite по пути StorePath.
type Config struct {
	RunAddress           string `env:"RUN_ADDRESS"`
	DatabaseURI          string `env:"DATABASE_URI"`
	StorePath            string `env:"STORE_PATH"`
	PaymentSystemAddress string `env:"PAYMENT_SYSTEM_ADDRESS"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envStorePath := cfg.StorePath
	envPaymentAddress := cfg.PaymentSystemAddress

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.StorePath, "f", "storefront.db", "path to embedded store file")
	flag.StringVar(&cfg.PaymentSystemAddress, "p", "", "payment system address")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envStorePath != "" {
		cfg.StorePath = envStorePath
	}
	if envPaymentAddress != "" {
		cfg.PaymentSystemAddress = envPaymentAddress
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.StorePath == "" {
		cfg.StorePath = "storefront.db"
	}

	return cfg, nil
}
