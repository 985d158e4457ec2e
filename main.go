package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stockfolio/config"
	"stockfolio/observability"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		observability.Info("no .env file found, using environment variables")
	}

	configPath := flag.String("config", "", "path to yaml config file")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		observability.Fatal("invalid configuration", "error", err)
	}

	observability.InitLogger(cfg.Production)
	observability.InitMetrics()

	ctx := context.Background()
	app, err := NewApp(ctx, cfg)
	if err != nil {
		observability.Fatal("failed to initialize application", "error", err)
	}
	defer app.Close()

	handler := NewAPIHandler(app)
	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: NewRouter(handler, cfg),
	}

	go func() {
		observability.Info("server listening", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Fatal("server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	observability.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Error("graceful shutdown failed", "error", err)
	}
}
