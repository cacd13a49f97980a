package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tradesentry/tradesentry/internal/approval"
	"github.com/tradesentry/tradesentry/internal/config"
	"github.com/tradesentry/tradesentry/internal/events"
	"github.com/tradesentry/tradesentry/internal/guardrail"
	"github.com/tradesentry/tradesentry/internal/logger"
	"github.com/tradesentry/tradesentry/internal/monitoring"
	"github.com/tradesentry/tradesentry/internal/notifications"
	"github.com/tradesentry/tradesentry/internal/portfolio"
	"github.com/tradesentry/tradesentry/internal/risk"
	"github.com/tradesentry/tradesentry/internal/safety"
	"github.com/tradesentry/tradesentry/internal/state"
	"github.com/tradesentry/tradesentry/pkg/reporting"
)

func main() {
	// Load .env if present; real env vars win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	cfg := config.Load()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting Risk Sentry in %s mode (account %s)", cfg.Environment, cfg.Account)

	fileLog, err := logger.NewLogger(cfg.Account)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer fileLog.Close()

	policy := risk.DefaultPolicy()
	if cfg.Policy.File != "" {
		policy, err = risk.LoadPolicy(cfg.Policy.File)
		if err != nil {
			log.Fatalf("Failed to load policy file: %v", err)
		}
		log.Printf("Loaded risk policy from %s", cfg.Policy.File)
	}

	riskMgr, err := risk.NewManager(policy)
	if err != nil {
		log.Fatalf("Invalid risk policy: %v", err)
	}

	bus := events.NewBus()
	defer bus.Close()

	breakerCfg := safety.Config{
		DailyDrawdownPct:     cfg.Breaker.DailyDrawdownPct,
		TotalDrawdownPct:     cfg.Breaker.TotalDrawdownPct,
		MaxConsecutiveLosses: cfg.Breaker.MaxConsecutiveLosses,
		RapidLossPct:         cfg.Breaker.RapidLossPct,
		RapidLossWindow:      cfg.Breaker.RapidLossWindow,
		Cooldown:             cfg.Breaker.Cooldown,
	}
	breaker := safety.NewBreaker(breakerCfg, bus)

	persistence := state.NewPersistence(cfg.Portfolio.StateDir, cfg.Account)
	tracker, restored := restoreTracker(cfg, persistence, breaker, fileLog)

	service := approval.NewService(
		guardrail.NewEnforcer(),
		riskMgr,
		breaker,
		tracker,
		fileLog,
		bus,
	)

	healthChecker := monitoring.NewHealthChecker()
	if restored {
		healthChecker.SetBreakerState(breaker.State().String())
	}

	var notifier notifications.Notifier = notifications.Nop{}
	if cfg.Notifications.TelegramToken != "" {
		notifier = notifications.NewTelegramNotifier(
			cfg.Notifications.TelegramToken, cfg.Notifications.TelegramChatID)
	} else {
		log.Println("Telegram notifications disabled (no token configured)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go watchBreakerEvents(ctx, bus, notifier, healthChecker, fileLog)
	go runResetScheduler(ctx, service, fileLog)
	go runStatusDisplay(ctx, service, cfg.Monitoring.StatusInterval)
	go setupMonitoringServers(cfg, healthChecker, newAPI(service, healthChecker))

	log.Println("Risk Sentry started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	cancel()

	shutdown(cfg, service, persistence, breaker, fileLog)
	log.Println("Risk Sentry stopped")
}

// restoreTracker loads the persisted snapshot if one exists, otherwise it
// starts a fresh tracker from the configured balances. A persisted
// tripped breaker stays tripped.
func restoreTracker(cfg *config.Config, persistence *state.Persistence, breaker *safety.Breaker, fileLog *logger.Logger) (*portfolio.Tracker, bool) {
	saved, err := persistence.Load()
	if err != nil {
		log.Printf("Warning: could not load persisted state, starting clean: %v", err)
		fileLog.LogError("State Restore", err)
	}
	if saved == nil {
		return portfolio.NewTracker(cfg.Portfolio.InitialEquity, cfg.Portfolio.InitialCash), false
	}

	if saved.BreakerTripped {
		breaker.Trip("restored from persisted state")
	}
	fileLog.Info("State restored: equity $%.2f, %d open positions",
		saved.Portfolio.Equity, saved.Portfolio.OpenCount())
	return portfolio.NewTrackerFromSnapshot(saved.Portfolio), true
}

// watchBreakerEvents forwards breaker trips and resets to notifications
// and the health checker.
func watchBreakerEvents(ctx context.Context, bus *events.Bus, notifier notifications.Notifier, health *monitoring.HealthChecker, fileLog *logger.Logger) {
	tripped := bus.Subscribe(events.TopicBreakerTripped)
	reset := bus.Subscribe(events.TopicBreakerReset)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-tripped:
			if !ok {
				return
			}
			health.SetBreakerState(safety.StateTripped.String())
			if trip, ok := ev.Payload.(safety.TripEvent); ok {
				msg := fmt.Sprintf("Circuit breaker TRIPPED\nTrigger: %s\nReason: %s\nCooldown expires: %s",
					trip.Trigger, trip.Reason, trip.CooldownExpiry.Format(time.RFC3339))
				if err := notifier.SendAlert("error", msg); err != nil {
					fileLog.LogError("Trip Notification", err)
				}
			}
		case _, ok := <-reset:
			if !ok {
				return
			}
			health.SetBreakerState(safety.StateArmed.String())
			if err := notifier.SendAlert("success", "Circuit breaker reset, order flow re-armed"); err != nil {
				fileLog.LogError("Reset Notification", err)
			}
		}
	}
}

// runResetScheduler fires the window resets at hour, day and ISO-week
// boundaries. The validation layers never look at the wall clock; this
// goroutine is the only place that owns time windows.
func runResetScheduler(ctx context.Context, service *approval.Service, fileLog *logger.Logger) {
	ticker := time.NewTicker(time.Until(nextHour(time.Now())))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			service.ResetHourly()
			if now.Hour() == 0 {
				service.ResetDaily()
				fileLog.Info("Daily window reset")
				if now.Weekday() == time.Monday {
					service.ResetWeekly()
					fileLog.Info("Weekly window reset")
				}
			}
			ticker.Reset(time.Until(nextHour(now)))
		}
	}
}

func nextHour(now time.Time) time.Time {
	return now.Truncate(time.Hour).Add(time.Hour)
}

func setupMonitoringServers(cfg *config.Config, healthChecker *monitoring.HealthChecker, api *apiServer) {
	healthMux := http.NewServeMux()
	healthMux.Handle("/health", healthChecker)

	go func() {
		log.Printf("Starting health server on port %d", cfg.Monitoring.HealthPort)
		if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Monitoring.HealthPort), healthMux); err != nil {
			log.Printf("Health server error: %v", err)
		}
	}()

	apiMux := http.NewServeMux()
	apiMux.Handle("/metrics", monitoring.NewMetricsHandler())
	api.register(apiMux)

	go func() {
		log.Printf("Starting API server on port %d", cfg.Monitoring.PrometheusPort)
		if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort), apiMux); err != nil {
			log.Printf("API server error: %v", err)
		}
	}()
}

// shutdown persists the final state and writes the session report.
func shutdown(cfg *config.Config, service *approval.Service, persistence *state.Persistence, breaker *safety.Breaker, fileLog *logger.Logger) {
	status := service.Status()

	err := persistence.Save(state.SystemState{
		Account:        cfg.Account,
		Portfolio:      status.Portfolio,
		TripHistory:    status.TripHistory,
		BreakerTripped: status.BreakerState == safety.StateTripped,
	})
	if err != nil {
		log.Printf("Failed to persist state: %v", err)
		fileLog.LogError("State Save", err)
	} else {
		log.Printf("State persisted to %s", cfg.Portfolio.StateDir)
	}

	report := reporting.Report{
		Account:     cfg.Account,
		Portfolio:   status.Portfolio,
		TripHistory: status.TripHistory,
	}
	reporting.OutputConsole(report)

	if len(status.Portfolio.ClosedTrades) > 0 {
		writer := reporting.NewDefaultFileReporter()
		stamp := time.Now().Format("20060102_150405")
		var err error
		switch cfg.Reporting.Format {
		case "csv":
			err = writer.WriteTradesCSV(report, filepath.Join(cfg.Reporting.Dir, fmt.Sprintf("%s_trades_%s.csv", cfg.Account, stamp)))
		case "xlsx":
			err = writer.WriteTradesXLSX(report, filepath.Join(cfg.Reporting.Dir, fmt.Sprintf("%s_trades_%s.xlsx", cfg.Account, stamp)))
		case "json":
			err = writer.WriteReportJSON(report, filepath.Join(cfg.Reporting.Dir, fmt.Sprintf("%s_report_%s.json", cfg.Account, stamp)))
		}
		if err != nil {
			log.Printf("Failed to write trade report: %v", err)
		}
	}
}
