package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xtding233/reroll-odds/internal/api"
	"github.com/xtding233/reroll-odds/internal/cache"
	"github.com/xtding233/reroll-odds/internal/config"
	"github.com/xtding233/reroll-odds/internal/logger"
	"github.com/xtding233/reroll-odds/internal/rpc"
	"github.com/xtding233/reroll-odds/internal/service"
	"github.com/xtding233/reroll-odds/internal/tables"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "configs/server.yaml", "Path to server config YAML file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error: init logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.ServerConfig) error {
	var loader *tables.Loader
	if cfg.Tables.Dir != "" {
		loader = tables.NewLoader(cfg.Tables.Dir)
	}
	registry := tables.NewRegistry(loader)
	if err := registry.Warm(); err != nil {
		return fmt.Errorf("load tables: %w", err)
	}

	if loader != nil && cfg.Tables.WatchInterval > 0 {
		w := tables.NewFileWatcher(loader.WatchPaths, cfg.Tables.WatchInterval, func(path string) {
			logger.Info("table file changed", "path", path)
			// a failed reload is logged and the previous tables keep serving
			_ = registry.Reload()
		})
		go w.Run(ctx)
	}
	go reloadOnHangup(ctx, registry)

	var c cache.Cache
	switch {
	case cfg.Redis.Addr != "":
		r, err := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer r.Close()
		c = r
		logger.Info("distribution cache enabled", "backend", "redis", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	case cfg.MemoryCache.Entries > 0:
		c = cache.NewMemory(cfg.MemoryCache.Entries)
		logger.Info("distribution cache enabled", "backend", "memory", "entries", cfg.MemoryCache.Entries)
	}

	eval := service.New(registry, service.Options{
		DefaultSet: cfg.Tables.DefaultSet,
		MaxTrials:  cfg.Simulation.MaxTrials,
		MaxDraws:   cfg.Simulation.MaxDraws,
		Cache:      c,
	})

	errCh := make(chan error, 2)

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewServer(eval, cfg.HTTP).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("http listening", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	var stopGRPC func()
	if cfg.GRPC.Enabled {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		gs, hs := rpc.NewGRPCServer(eval)
		go func() {
			logger.Info("grpc listening", "addr", cfg.GRPC.Addr)
			if err := gs.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc: %w", err)
			}
		}()
		stopGRPC = func() {
			hs.Shutdown()
			gs.GracefulStop()
		}
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if stopGRPC != nil {
		stopGRPC()
	}
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warning("http shutdown", "error", err)
	}
	return runErr
}

// reloadOnHangup rereads the table files on SIGHUP.
func reloadOnHangup(ctx context.Context, registry *tables.Registry) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-hup:
			logger.Info("SIGHUP received, reloading tables")
			_ = registry.Reload()
		case <-ctx.Done():
			return
		}
	}
}
