package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"refbounty/auth"
	"refbounty/config"
	"refbounty/database"
	"refbounty/events"
	"refbounty/monitoring"
	"refbounty/repository"
	"refbounty/server"
	"refbounty/service"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()

	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	}
	log.Info("Starting refbounty server...")

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Running migrations...")
	if err := database.RunMigrationsWithURL(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	eventBus := events.NewBus()
	subscribeMetrics(eventBus)

	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	accountService := service.NewAccountService(uowFactory, cfg.ReferralReward)
	withdrawalService := service.NewWithdrawalService(uowFactory, cfg.MinWithdrawal, cfg.WithdrawalCharge)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := accountService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("failed to ensure admin account: %w", err)
		}
	}

	handler := server.NewHandler(accountService, withdrawalService, tokens)
	srv := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: server.NewRouter(handler),
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"address":     cfg.RunAddress,
			"environment": cfg.Environment,
		}).Info("Server is running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

// subscribeMetrics keeps the business counters in step with committed events
func subscribeMetrics(bus *events.Bus) {
	bus.Subscribe(events.EventTypeReferralRewarded, func(ctx context.Context, event events.Event) {
		monitoring.ReferralRewardsTotal.Inc()
		if e, ok := event.(events.ReferralRewardedEvent); ok {
			log.WithFields(log.Fields{
				"referrerID": e.ReferrerID,
				"referredID": e.ReferredID,
				"reward":     e.RewardAmount,
			}).Info("Referral reward credited")
		}
	})

	bus.Subscribe(events.EventTypeWithdrawalProcessed, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.WithdrawalProcessedEvent); ok {
			monitoring.WithdrawalsProcessedTotal.WithLabelValues(string(e.Status)).Inc()
			log.WithFields(log.Fields{
				"withdrawalID": e.WithdrawalID,
				"userID":       e.UserID,
				"status":       e.Status,
			}).Info("Withdrawal processed")
		}
	})
}
