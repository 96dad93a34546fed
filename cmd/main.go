// Package main runs the Bankist dashboard API.
package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/go-petr/bankist/cmd/httpserver"
	"github.com/go-petr/bankist/internal/accountrepo"
	"github.com/go-petr/bankist/internal/middleware"
	"github.com/go-petr/bankist/pkg/configpkg"
	"github.com/go-petr/bankist/pkg/schedulepkg"
)

func main() {
	config, err := configpkg.Load("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := middleware.GetLogger(config)

	accounts := accountrepo.NewRepoMem()
	if err := accountrepo.Seed(logger.WithContext(context.Background()), accounts); err != nil {
		logger.Fatal().Err(err).Msg("cannot seed accounts")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	server, err := httpserver.New(accounts, schedulepkg.Real{}, registry, logger, config)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create server")
	}

	logger.Info().Str("address", config.ServerAddress).Msg("BANKIST SERVER HAS STARTED")

	err = server.Engine.Run(config.ServerAddress)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot start server")
	}
}
