package main

import (
	"flag"
	"os"

	"github.com/yigit/societyhub/internal/pkg/logger"
	"github.com/yigit/societyhub/internal/server"
)

//go:generate swag init -g cmd/api/main.go -d ../../ -o ../../docs

// @title Society Hub API
// @version 1.0
// @description API for managing university student societies, their events, news and members.

// @contact.name API Support
// @contact.email support@societyhub.app

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization, as "Bearer <token>"

func main() {
	configPath := flag.String("config", "", "path to the YAML config file (default configs/config.yaml)")
	flag.Parse()

	srv, err := server.NewServer(*configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
