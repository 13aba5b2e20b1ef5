package config

import "github.com/caarlos0/env/v11"

type Config struct {
	// HTTPAddr is the listen address for the HTTP/WebSocket server.
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":3001"`

	// DictionaryFile points at a newline-delimited word list. When
	// empty or unreadable the embedded fallback list is used.
	DictionaryFile string `env:"DICTIONARY_FILE" envDefault:"words.txt"`

	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
