package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/yashs662/SynchroStore/internal/api"
	"github.com/yashs662/SynchroStore/internal/config"
	"github.com/yashs662/SynchroStore/internal/logger"
	"github.com/yashs662/SynchroStore/pkg/persistent"
)

func main() {
	config, err := config.LoadConfig()
	if err != nil {
		fmt.Println("FATAL: " + err.Error())
		os.Exit(1)
	}

	// Initialize Logger
	logger.Init(logger.Options{Debug: config.Log.Debug, File: config.Log.File})
	defer logger.Close()

	if err := persistent.InitStorage(config.Storage.Path); err != nil {
		logger.Fatal("Failed to initialize storage: " + err.Error())
	}
	store, err := persistent.GetStorage()
	if err != nil {
		logger.Fatal(err.Error())
	}

	handlers := api.NewHandlers(store)
	server := &http.Server{
		Addr:              config.Server.Address,
		Handler:           handlers.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Channel to listen for OS interrupt signals for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	go func() {
		logger.Infof("Serving storage at %s on %s", store.Path(), config.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start the server: " + err.Error())
		}
	}()

	// Block until we receive a signal in stop channel
	<-stop
	logger.Info("Shutting down server...")

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}
	if err := store.Err(); err != nil {
		logger.Warnf("Exiting with unflushed changes: %v", err)
	}
	logger.Info("Server exiting gracefully")
}
