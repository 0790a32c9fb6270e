package main

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/example/branch-teller/internal/advisory"
	"github.com/example/branch-teller/internal/api"
	"github.com/example/branch-teller/internal/approval"
	"github.com/example/branch-teller/internal/config"
	"github.com/example/branch-teller/internal/ledger"
	"github.com/example/branch-teller/internal/posting"
	"github.com/example/branch-teller/internal/security"
	"github.com/example/branch-teller/pkg/audit"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	allowlist, err := security.ParseCIDRAllowlist(cfg.BranchNetworkCIDRs)
	if err != nil {
		logger.Error("invalid BRANCH_NETWORK_CIDRS", "error", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	store := ledger.NewPostgresStore(pool)
	advisoryGate := advisory.NewGate(advisory.NewPostgresStore(pool), store)
	approvalGate := approval.NewGate(
		[]byte(cfg.ApprovalSigningKey),
		cfg.ApprovalThresholdCents,
		cfg.ApprovalTokenTTL,
	)
	auditor := audit.NewTrail()

	engine := posting.NewEngine(posting.EngineDeps{
		Store:                   store,
		Advisories:              advisoryGate,
		Approvals:               approvalGate,
		Auditor:                 auditor,
		Logger:                  logger,
		FeeIncomeReference:      cfg.FeeIncomeAccount,
		MiscIncomeReference:     cfg.MiscIncomeAccount,
		DraftLiabilityReference: cfg.DraftLiabilityAccount,
	})

	rateLimiter := &security.RedisTokenBucket{
		Redis:      redisClient,
		Prefix:     "teller_api",
		Capacity:   cfg.RateLimitPerMinute,
		RefillRate: float64(cfg.RateLimitPerMinute) / 60.0,
	}

	router, err := api.NewRouter(api.Dependencies{
		Logger:       logger,
		Postings:     engine,
		Auditor:      auditor,
		RateLimiter:  rateLimiter,
		IPAllowlist:  allowlist,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})
	if err != nil {
		logger.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.APIAddr)
	if err != nil {
		logger.Error("failed to listen", "error", err)
		os.Exit(1)
	}

	tlsCfg := security.TLSConfig{
		CertFile:          cfg.TLSCertFile,
		KeyFile:           cfg.TLSKeyFile,
		CAFile:            cfg.TLSCAFile,
		RequireClientAuth: cfg.TLSCAFile != "",
	}
	if tlsCfg.Enabled() {
		serverTLS, err := security.LoadServerTLSConfig(tlsCfg)
		if err != nil {
			logger.Error("failed to load TLS config", "error", err)
			os.Exit(1)
		}
		srv.TLSConfig = serverTLS
		ln = tls.NewListener(ln, serverTLS)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	logger.Info("teller posting api listening", "addr", cfg.APIAddr, "tls", tlsCfg.Enabled())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
