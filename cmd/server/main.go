package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/taskbay/taskbay/internal/auth"
	"github.com/taskbay/taskbay/internal/config"
	"github.com/taskbay/taskbay/internal/httpapi"
	"github.com/taskbay/taskbay/internal/market"
	"github.com/taskbay/taskbay/internal/middleware"
	"github.com/taskbay/taskbay/internal/storage/sqlite"
	"github.com/taskbay/taskbay/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logging.Setup(cfg.LogLevel)

	// Initialize SQLite storage. Entities, custody balances and escrows
	// share one database so money movement commits with the state it
	// belongs to.
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store)
	marketplace := market.New(store, cfg.ArbiterID)

	mux := http.NewServeMux()
	server := httpapi.NewServer(marketplace, store, authenticator, jwtManager)
	server.Register(mux)

	// Add request logging middleware
	loggedHandler := middleware.Logging(mux)

	// Wrap with h2c for HTTP/2 without TLS
	h2cHandler := h2c.NewHandler(loggedHandler, &http2.Server{})

	slog.Info("Server starting", "address", cfg.Addr, "arbiter", cfg.ArbiterID)
	if err := http.ListenAndServe(cfg.Addr, h2cHandler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
