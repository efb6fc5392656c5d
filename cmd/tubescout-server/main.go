package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tubescout/internal/adapters/browser"
	"tubescout/internal/adapters/localstorage"
	"tubescout/internal/adapters/picker"
	"tubescout/internal/adapters/spreadsheet"
	"tubescout/internal/adapters/youtubeapi"
	"tubescout/internal/api"
	"tubescout/internal/config"
	"tubescout/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	storage := localstorage.NewLocalStorage(cfg.UploadDir, cfg.LogFile)
	if err := storage.EnsureDirs(); err != nil {
		logger.Fatalf("Error preparing filesystem: %v", err)
	}

	collector := service.NewCollector(
		youtubeapi.Factory(cfg.APIRequestsPerS),
		spreadsheet.NewXLSXWriter(),
		storage,
		logger,
	)
	navigator := service.NewNavigator(
		browser.NewLauncher(cfg.BrowserPath),
		storage,
		service.ProfileSettings{
			SourceDir:  cfg.ProfileSourceDir,
			Name:       cfg.ProfileName,
			ScratchDir: cfg.ProfileScratch,
		},
		service.Timings{
			Startup:   cfg.StartupDelay,
			Settle:    cfg.SettleTime,
			FirstWait: cfg.FirstWait,
			Wait:      cfg.Wait,
			Tick:      cfg.Tick,
		},
		cfg.Headless,
		logger,
	)

	handler := api.NewHandler(collector, navigator, storage, storage, picker.NewNativePicker(), logger)

	// Cancelling ctx stops running streams so their browsers are closed.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           api.NewRouter(handler, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	idle := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer close(idle)
		<-sigChan
		logger.Println("Received interrupt signal, shutting down...")
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 15*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown: %v", err)
		}
	}()

	logger.Printf("TubeScout listening on %s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("Server failed: %v", err)
	}
	<-idle
}
