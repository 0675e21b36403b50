package config

import "time"

// Config holds application configuration.
type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	SearchQuery     string        `env:"SEARCH_QUERY" envDefault:"milo"`
	DatabasePath    string        `env:"DATABASE_PATH" envDefault:"milo-price-tracker.db"`
	VocabPath       string        `env:"VOCAB_PATH"`
	CacheMaxAge     time.Duration `env:"CACHE_MAX_AGE" envDefault:"1h"`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"1h"`

	RabbitMQ RabbitMQ
}

// RabbitMQ holds RabbitMQ configuration. Consuming refresh commands is
// enabled only when URL is set.
type RabbitMQ struct {
	URL      string `env:"RABBITMQ_URL"`
	Exchange string `env:"RABBITMQ_EXCHANGE" envDefault:"mpt-ex"`
	Queue    string `env:"RABBITMQ_QUEUE" envDefault:"milo-price-tracker.commands"`
}
