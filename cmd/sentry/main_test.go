package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tradesentry/tradesentry/internal/approval"
	"github.com/tradesentry/tradesentry/internal/config"
	"github.com/tradesentry/tradesentry/internal/guardrail"
	"github.com/tradesentry/tradesentry/internal/monitoring"
	"github.com/tradesentry/tradesentry/internal/notifications"
	"github.com/tradesentry/tradesentry/internal/portfolio"
	"github.com/tradesentry/tradesentry/internal/risk"
	"github.com/tradesentry/tradesentry/internal/safety"
)

func TestSentryComponents(t *testing.T) {
	cfg := config.Load()
	if cfg == nil {
		t.Fatal("Failed to load configuration")
	}
	if cfg.Breaker.Cooldown <= 0 {
		t.Fatal("Breaker cooldown default missing")
	}

	healthChecker := monitoring.NewHealthChecker()
	if healthChecker == nil {
		t.Fatal("Failed to create health checker")
	}

	notifier := notifications.NewTelegramNotifier("", "")
	if notifier == nil {
		t.Fatal("Failed to create notifier")
	}

	mgr, err := risk.NewManager(risk.DefaultPolicy())
	if err != nil {
		t.Fatalf("Failed to create risk manager: %v", err)
	}

	service := approval.NewService(
		guardrail.NewEnforcer(),
		mgr,
		safety.NewBreaker(safety.DefaultConfig(), nil),
		portfolio.NewTracker(10000, 10000),
		nil,
		nil,
	)
	if service == nil {
		t.Fatal("Failed to create approval service")
	}

	t.Log("All components initialized successfully")
}

func newTestAPI(t *testing.T) *apiServer {
	t.Helper()
	mgr, err := risk.NewManager(risk.DefaultPolicy())
	if err != nil {
		t.Fatalf("Failed to create risk manager: %v", err)
	}
	service := approval.NewService(
		guardrail.NewEnforcer(),
		mgr,
		safety.NewBreaker(safety.DefaultConfig(), nil),
		portfolio.NewTracker(10000, 10000),
		nil,
		nil,
	)
	return newAPI(service, monitoring.NewHealthChecker())
}

func TestAPIValidateEndpoint(t *testing.T) {
	api := newTestAPI(t)
	mux := http.NewServeMux()
	api.register(mux)

	body := `{"symbol":"BTCUSDT","side":"LONG","quantity":10,"entry_price":10,"stop_price":9.8,"take_profit":11}`
	req := httptest.NewRequest(http.MethodPost, "/orders/validate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result approval.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if !result.Approved {
		t.Fatalf("expected approval, got rejection by %s", result.RejectedBy)
	}
}

func TestAPIValidateRejectsMalformedInput(t *testing.T) {
	api := newTestAPI(t)
	mux := http.NewServeMux()
	api.register(mux)

	body := `{"symbol":"BTCUSDT","side":"LONG","quantity":-5,"entry_price":10}`
	req := httptest.NewRequest(http.MethodPost, "/orders/validate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestAPITripAndStatus(t *testing.T) {
	api := newTestAPI(t)
	mux := http.NewServeMux()
	api.register(mux)

	req := httptest.NewRequest(http.MethodPost, "/breaker/trip", strings.NewReader(`{"reason":"drill"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/status", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var status approval.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if status.BreakerState != safety.StateTripped {
		t.Fatalf("expected tripped breaker, got %s", status.BreakerState)
	}

	// Reset before the cooldown expires must conflict.
	req = httptest.NewRequest(http.MethodPost, "/breaker/reset", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestNextHour(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 42, 13, 0, time.UTC)
	next := nextHour(now)
	if next.Hour() != 11 || next.Minute() != 0 {
		t.Fatalf("unexpected next hour boundary: %v", next)
	}
}
