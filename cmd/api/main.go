package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"authgate.org/internal/audit"
	"authgate.org/internal/config"
	"authgate.org/internal/gate"
	"authgate.org/internal/httpapi"
	"authgate.org/internal/obs"
	"authgate.org/internal/store"
	"authgate.org/internal/verifier"
)

var version = "0.3.0"

func main() {
	logger, err := obs.NewLogger()
	if err != nil {
		log.Fatalf("cannot initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("AUTHGATE_COMMIT"))

	cfg := config.Load()

	// Optional Postgres: readiness pings it and the repositories use it.
	var db *sql.DB
	if cfg.PostgresDSN != "" {
		db, err = store.Open(cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("open db", zap.Error(err))
		}
	}

	var users store.Users
	var products store.Products
	if db != nil {
		users = store.NewPostgresUsers(db)
		products = store.NewPostgresProducts(db)
	} else {
		users = store.NewMemoryUsers(store.DemoUsers()...)
		products = store.NewMemoryProducts(store.DemoProducts()...)
	}

	tokenVerifier, issuer, err := buildVerifier(cfg, logger)
	if err != nil {
		logger.Fatal("configure token verifier", zap.Error(err))
	}

	api := httpapi.New(httpapi.Options{
		Gate:          gate.New(tokenVerifier, logger),
		Users:         users,
		Products:      products,
		Issuer:        issuer,
		Audit:         audit.New(logger),
		Logger:        logger,
		ReadyProbe:    httpapi.ReadyProbe{DB: db},
		Version:       version,
		AdminGroup:    cfg.AdminGroup,
		RateBurst:     cfg.RateBurst,
		RatePerSecond: cfg.RatePerSecond,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("starting authgate-api",
		zap.String("version", version),
		zap.String("addr", cfg.ListenAddr),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	logger.Info("stopped")
}

// buildVerifier picks the remote JWKS verifier when an issuer is configured,
// otherwise wires the HS256 dev issuer/verifier pair.
func buildVerifier(cfg *config.Config, logger *zap.Logger) (gate.Verifier, *verifier.LocalIssuer, error) {
	if cfg.Issuer != "" {
		var opts []verifier.RemoteOption
		if cfg.JWKSURL != "" {
			opts = append(opts, verifier.WithJWKSURL(cfg.JWKSURL))
		}
		return verifier.NewRemote(cfg.Issuer, cfg.Audience, logger, opts...), nil, nil
	}

	if cfg.DevSecret == "" {
		return nil, nil, errors.New("set AUTHGATE_ISSUER for JWKS verification or AUTHGATE_DEV_SECRET for the dev issuer")
	}
	local, err := verifier.NewLocal(cfg.DevSecret, devIssuerName)
	if err != nil {
		return nil, nil, err
	}
	localIssuer, err := verifier.NewLocalIssuer(cfg.DevSecret, devIssuerName, cfg.Audience)
	if err != nil {
		return nil, nil, err
	}
	return local, localIssuer, nil
}

const devIssuerName = "authgate-dev"
