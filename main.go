package main

import (
	"embed"

	"line-sieve/internal/bootstrap"
	"line-sieve/internal/logger"
)

//go:embed all:frontend
var appAssets embed.FS

func main() {
	logger.Init(logger.FromEnv())
	log := logger.Get()

	app, err := bootstrap.NewWithAssets(appAssets)
	if err != nil {
		log.Fatal().Err(err).Msg("bootstrap app")
	}

	if err := app.Run(); err != nil {
		log.Fatal().Err(err).Msg("run app")
	}
}
