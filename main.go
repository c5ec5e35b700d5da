package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"arbiter/internal"
	"arbiter/internal/config"
	"arbiter/internal/container"
	"arbiter/internal/server"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	internal.SetDefaultLevel(internal.ParseLogLevel(os.Getenv("LOG_LEVEL")))

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.Open(ctx, appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}

	runErr := server.Run(ctx, appContainer)
	if err := appContainer.Shutdown(context.Background()); err != nil {
		log.Printf("Shutdown: %v", err)
	}
	if runErr != nil {
		log.Fatalf("Server stopped: %v", runErr)
	}
}
