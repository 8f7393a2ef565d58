package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"categorydesk/internal/config"
	"categorydesk/internal/server"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	port := flag.Int("port", cfg.StubPort, "port to listen on")
	seed := flag.Bool("seed", true, "start with the four sample categories")
	bare := flag.Bool("bare", false, `answer with bare JSON instead of {"data": ...}`)
	flag.Parse()

	s := server.NewStubAPIServer(server.StubAPIOptions{
		Port:           *port,
		Seed:           *seed,
		Bare:           *bare,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	done := make(chan bool, 1)

	go s.GracefulShutdown(done)

	log.Info().Int("port", *port).Bool("seed", *seed).Bool("bare", *bare).Msg("Starting stub categories API")
	err = s.Start()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("HTTP server error")
	}

	<-done
	log.Info().Msg("Graceful shutdown complete.")
}
