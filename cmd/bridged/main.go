package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"bridgecore/config"
	"bridgecore/core/async"
	"bridgecore/core/events"
	"bridgecore/core/types"
	"bridgecore/crypto"
	"bridgecore/native/bridge"
	"bridgecore/native/feer"
	"bridgecore/observability"
	"bridgecore/observability/logging"
	telemetry "bridgecore/observability/otel"
	"bridgecore/rpc"
	"bridgecore/storage"
)

const serviceName = "bridged"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bridged: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level, _ := cfg.Log.SlogLevel()
	env := strings.TrimSpace(cfg.Log.Env)
	if env == "" {
		env = strings.TrimSpace(os.Getenv("BRIDGE_ENV"))
	}
	logger := logging.Setup(serviceName, env, logging.Options{
		Level:      level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})

	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: serviceName,
		Environment: env,
		Contracts:   []string{cfg.Bridge.Account, cfg.Feer.Account},
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	db, err := openDatabase(cfg.Storage)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	queue := async.NewQueue(logger)
	emitter := events.Fanout{events.LogEmitter{Logger: logger}, observability.EventCounter{}}

	bridgeAccount := types.AccountID(cfg.Bridge.Account)
	feerAccount := types.AccountID(cfg.Feer.Account)

	bridgeContract := bridge.New(bridgeAccount, db, queue)
	bridgeContract.SetLogger(logger)
	bridgeContract.SetEmitter(emitter)
	bridgeContract.SetDeployer(&FileDeployer{Dir: cfg.Bridge.CodeDir, Logger: logger})
	if err := bootstrapBridge(bridgeContract, cfg); err != nil {
		return err
	}

	feerContract := feer.New(feerAccount, db, queue)
	feerContract.SetLogger(logger)
	feerContract.SetEmitter(emitter)
	if err := bootstrapFeer(feerContract, cfg); err != nil {
		return err
	}

	queue.Register(bridgeAccount, bridgeContract)
	queue.Register(feerAccount, feerContract)

	server := rpc.NewServer(rpc.ServerConfig{
		AuthToken:    authToken(cfg.RPC.AuthTokenEnv),
		MaxBodyBytes: cfg.RPC.MaxBodyBytes,
		Logger:       logger,
	}, queue)
	server.Register("bridge", bridgeContract)
	server.Register("feer", feerContract)

	httpServer := &http.Server{
		Addr:              cfg.RPC.ListenAddress,
		Handler:           server.Handler(),
		ReadHeaderTimeout: time.Duration(cfg.RPC.ReadHeaderTimeout) * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("rpc listening",
			slog.String("addr", cfg.RPC.ListenAddress),
			slog.String("bridge", bridgeAccount.String()),
			slog.String("feer", feerAccount.String()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.RPC.ShutdownTimeout)*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			_ = httpServer.Close()
			return fmt.Errorf("shutdown rpc: %w", err)
		}
		logger.Info("rpc stopped")
		return nil
	})
	return g.Wait()
}

func openDatabase(cfg config.StorageConfig) (storage.Database, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return storage.NewMemDB(), nil
	case config.BackendBolt:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, err
		}
		return storage.NewBoltDB(cfg.Path, nil)
	default:
		return storage.NewLevelDB(cfg.Path)
	}
}

// bootstrapBridge initialises a fresh deployment or resumes a stored one.
func bootstrapBridge(c *bridge.Contract, cfg *config.Config) error {
	err := c.Load()
	if err == nil {
		return nil
	}
	if !errors.Is(err, bridge.ErrNotInitialized) {
		return err
	}
	signer, err := crypto.ParseSigner(cfg.Bridge.Signer)
	if err != nil {
		return fmt.Errorf("bridge signer: %w", err)
	}
	if err := c.Init(signer, types.AccountID(cfg.Feer.Account), cfg.Bridge.Chain); err != nil {
		return fmt.Errorf("init bridge: %w", err)
	}
	return nil
}

func bootstrapFeer(c *feer.Contract, cfg *config.Config) error {
	err := c.Load()
	if err == nil {
		return nil
	}
	if !errors.Is(err, feer.ErrNotInitialized) {
		return err
	}
	tokens := make([]types.FeeToken, 0, len(cfg.Feer.FeeTokens))
	for _, tc := range cfg.Feer.FeeTokens {
		token, err := tc.Parse()
		if err != nil {
			return err
		}
		tokens = append(tokens, token)
	}
	if err := c.Init(cfg.Feer.Chain, types.AccountID(cfg.Bridge.Account), tokens); err != nil {
		return fmt.Errorf("init feer: %w", err)
	}
	return nil
}

func authToken(env string) string {
	if env == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(env))
}
