package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/rl1809/storefront/internal/adapter/catalog"
	"github.com/rl1809/storefront/internal/adapter/handler"
	"github.com/rl1809/storefront/internal/adapter/metrics"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/logger"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		bootLog := logger.New("storefront", "info", logger.FormatJSON, os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New("storefront", cfg.LogLevel, cfg.LogFormat, os.Stdout)

	if err := cfg.ValidateServer(); err != nil {
		log.Fatal().Err(err).Msg("invalid server config")
	}
	fee, err := cfg.DeliveryFee()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid server config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage
	provider, closeStorage, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StorageBackend).Msg("failed to open storage")
	}
	log.Info().Str("backend", cfg.StorageBackend).Msg("storage ready")

	// Load catalog
	products, err := service.NewCatalog(catalog.FromFile(cfg.CatalogPath))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load catalog")
	}
	log.Info().
		Int("categories", len(products.Categories())).
		Int("products", len(products.Products())).
		Msg("catalog loaded")

	// Initialize services
	m := metrics.NewPrometheus()
	browsers := service.NewBrowsers(service.Deps{
		Catalog:         products,
		Auth:            service.NewAuthService(provider, log),
		Storage:         provider,
		Metrics:         m,
		Logger:          log,
		FastDeliveryFee: fee,
	})
	tokens := handler.NewBrowserTokens(cfg.TokenSecret, cfg.TokenTTL)

	// Initialize gRPC server
	grpcServer := grpc.NewServer()
	handler.NewGRPCHandler(products, browsers, tokens, log).Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.GRPCAddr).Msg("failed to listen")
	}

	go func() {
		log.Info().Str("addr", cfg.GRPCAddr).Msg("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.Error().Err(err).Msg("gRPC server error")
		}
	}()

	// Initialize HTTP server
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewHTTPHandler(products, browsers, tokens, m, log).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown")
	}
	log.Info().Msg("HTTP server stopped")

	grpcServer.GracefulStop()
	log.Info().Msg("gRPC server stopped")

	if err := closeStorage(); err != nil {
		log.Error().Err(err).Msg("close storage")
	}
	log.Info().Msg("connections closed")
}
