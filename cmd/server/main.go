package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpapi "snatch/internal/api/http"
	"snatch/internal/api/ws"
	"snatch/internal/config"
	"snatch/internal/lexicon"
	"snatch/internal/room"
	"snatch/internal/store"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)

	lex := lexicon.Load(cfg.DictionaryFile)

	mem := store.NewMemoryStore()
	reg := room.NewRegistry(mem, lex, nil)
	hub := ws.NewHub(reg)
	r := httpapi.NewRouter(reg, hub)

	log.Info().Str("addr", cfg.HTTPAddr).Int("words", lex.Size()).Msg("snatch server listening")
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
