package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const shutdownTimeout = 10 * time.Second

// Serve runs the HTTP adapter until ctx is cancelled. An empty addr uses the
// configured listen address.
func Serve(ctx context.Context, configPath, addr string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Serve.Addr
	}
	obs := newObserver(cfg)

	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(newMirror(cfg, obs), obs.Logger()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		obs.Logger().Info("serving mirrors", "addr", addr, "reposDir", cfg.ReposDir)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
