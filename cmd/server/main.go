package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/couch-lobby/internal/config"
	"github.com/DoyleJ11/couch-lobby/internal/httpapi"
	"github.com/DoyleJ11/couch-lobby/internal/hub"
	"github.com/DoyleJ11/couch-lobby/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	srvCfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	log, err := newLogger(srvCfg.Env)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	stage, err := config.Load(srvCfg.StagePath)
	if err != nil {
		return err
	}

	results, closeStore, err := openStore(srvCfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", srvCfg.Store, err)
	}
	defer closeStore()
	writer := store.NewWriter(results, log.Named("store"), 256)
	defer writer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, hub.Options{
		Defaults: stage,
		Handoff:  writer,
		TickHz:   srvCfg.TickHz,
		Log:      log.Named("hub"),
	})

	// Build the router *with* the hub injected
	srv := &http.Server{
		Addr:              srvCfg.Addr,
		Handler:           httpapi.SetupRoutes(h, results, log.Named("http")),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", srvCfg.Addr), zap.String("store", string(srvCfg.Store)), zap.Int("tick_hz", srvCfg.TickHz))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "development" || env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func openStore(cfg config.Server) (store.Store, func(), error) {
	switch cfg.Store {
	case config.StoreSQLite:
		s, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.StorePostgres:
		s, err := store.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return store.NewMemory(), func() {}, nil
	}
}
