package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"estate-chat/auth"
	"estate-chat/httpapi"
	"estate-chat/internal"
	"estate-chat/observability"
	"estate-chat/repositories"
	"estate-chat/repositories/storage"
	"estate-chat/runtime"
	"estate-chat/runtime/workers"
	"estate-chat/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so that every defer executes before exit.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}

	// 2. Stores (BadgerDB + Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = writer.Close()
	}()

	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)
	if err = messageRepository.EnsureIndexes(); err != nil {
		return fmt.Errorf("index bootstrap failed: %w", err)
	}
	userRepository := repositories.NewUserRepository(db)
	searchRepository := repositories.NewSearchRepository(writer, log)

	// 3. Realtime pipeline
	monitoring := observability.NewMonitoringManager()
	sup := workers.NewSupervisor(log, config.RestartInterval)
	registry := runtime.NewRegistry()
	orchestrator := runtime.NewOrchestrator(
		log, sup, registry, monitoring,
		config.BufferSize, config.SinkTimeout,
	)
	orchestrator.Add(storage.NewSearchSink(searchRepository, log))

	// 4. Services
	moderator, err := runtime.LoadModerator(log, charReplacement)
	if err != nil {
		return fmt.Errorf("moderation bootstrap failed: %w", err)
	}
	tokens := auth.NewTokenManager(config.AuthTokenSecret, config.AuthTokenDuration)
	messaging := services.NewMessagingService(
		log, moderator, messageRepository, searchRepository,
		orchestrator, registry, monitoring,
	)
	accounts := services.NewAuthService(log, userRepository, tokens)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Start the pipeline, then the HTTP server
	orchestrator.Start(ctx)

	router := httpapi.NewRouter(log, messaging, accounts, tokens, monitoring)
	server := httpapi.NewServer(log, config.Addr(), router)

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", config.Addr(), "at", time.Now().UTC())
		if err := server.Start(); err != nil {
			errChan <- err
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	orchestrator.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
