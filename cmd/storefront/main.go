// Package main запускает HTTP-сервер витрины заказов.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/tiffin-storefront/internal/config"
	"github.com/mmeshcher/tiffin-storefront/internal/handler"
	"github.com/mmeshcher/tiffin-storefront/internal/middleware"
	"github.com/mmeshcher/tiffin-storefront/internal/notifier"
	"github.com/mmeshcher/tiffin-storefront/internal/payment"
	"github.com/mmeshcher/tiffin-storefront/internal/repository"
	"github.com/mmeshcher/tiffin-storefront/internal/service"
	"github.com/mmeshcher/tiffin-storefront/internal/storage"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	_ = godotenv.Load()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	var store storage.Store
	if cfg.DatabaseURI != "" {
		store, err = storage.NewPostgresStore(cfg.DatabaseURI)
	} else {
		store, err = storage.NewSQLiteStore(cfg.StorePath)
	}
	if err != nil {
		sugar.Fatalw("storage initialization error", "error", err.Error())
	}

	notifyStore := storage.NewNotify(store)
	repo := repository.New(notifyStore, logger)

	var paymentClient *payment.Client
	if cfg.PaymentSystemAddress != "" {
		paymentClient = payment.NewClient(cfg.PaymentSystemAddress)
	}

	svc := service.NewService(repo, paymentClient)
	defer svc.Close()

	detector := notifier.New(svc, notifyStore.Subscribe(), logger)

	authMiddleware := middleware.NewAdminAuth("storefront-secret")
	h := handler.NewHandler(svc, detector, logger, authMiddleware)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Запуск детектора новых заказов
	g.Go(func() error {
		detector.Run(ctx)
		return nil
	})

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting storefront server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
