package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ETAnderson/shopfeed/internal/app"
	"github.com/ETAnderson/shopfeed/internal/config"
	"github.com/ETAnderson/shopfeed/internal/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New("shopfeed-api", cfg.LogLevel)

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("startup failed")
	}
	if err := a.RequireAuthKey(); err != nil {
		_ = a.Close()
		logger.WithError(err).Fatal("startup failed")
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.WithError(err).Warn("close failed")
		}
	}()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{"env": cfg.Env, "addr": server.Addr}).Info("starting")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	waitForShutdown(logger, server, errCh)
}

func waitForShutdown(logger *logrus.Entry, server *http.Server, errCh <-chan error) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("shutdown signal received")
	case err := <-errCh:
		logger.WithError(err).Error("server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("shutdown incomplete")
	}
	logger.Info("shutdown complete")
}
