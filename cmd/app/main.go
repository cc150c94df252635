package main

import (
	"line-sieve/internal/bootstrap"
	"line-sieve/internal/logger"
)

func main() {
	logger.Init(logger.FromEnv())
	log := logger.Get()

	app, err := bootstrap.New()
	if err != nil {
		log.Fatal().Err(err).Msg("bootstrap app")
	}

	if err := app.Run(); err != nil {
		log.Fatal().Err(err).Msg("run app")
	}
}
