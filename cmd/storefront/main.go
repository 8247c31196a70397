package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rl1809/storefront/internal/adapter/catalog"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/adapter/tui"
	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	fee, err := cfg.DeliveryFee()
	if err != nil {
		return err
	}

	// The terminal owns stdout, so logs go to a file.
	logFile, err := os.OpenFile("storefront.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	log := logger.New("storefront-tui", cfg.LogLevel, cfg.LogFormat, logFile)

	ctx := context.Background()
	provider, closeStorage, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	products, err := service.NewCatalog(catalog.FromFile(cfg.CatalogPath))
	if err != nil {
		return err
	}

	sf, err := service.NewBrowsers(service.Deps{
		Catalog:         products,
		Auth:            service.NewAuthService(provider, log),
		Storage:         provider,
		Logger:          log,
		FastDeliveryFee: fee,
	}).Open(ctx, cfg.BrowserID)
	if err != nil {
		return err
	}

	_, err = tea.NewProgram(tui.New(ctx, sf), tea.WithAltScreen()).Run()
	return err
}
