package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger represents a file logger for risk decisions and breaker activity
type Logger struct {
	account string
	logFile *os.File
	logger  *log.Logger
	mu      sync.Mutex
	logDir  string
}

// LogLevel represents different types of log entries
type LogLevel string

const (
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARN"
	LogLevelError   LogLevel = "ERROR"
	LogLevelOrder   LogLevel = "ORDER"
	LogLevelBreaker LogLevel = "BREAKER"
)

// NewLogger creates a new file logger for the specified account label
func NewLogger(account string) (*Logger, error) {
	logDir := "logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02")
	filename := fmt.Sprintf("%s_%s.log", account, timestamp)
	logPath := filepath.Join(logDir, filename)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := &Logger{
		account: account,
		logFile: file,
		logger:  log.New(file, "", 0),
		logDir:  logDir,
	}

	l.writeSessionHeader()

	return l, nil
}

// writeSessionHeader writes a session start header to the log
func (l *Logger) writeSessionHeader() {
	l.mu.Lock()
	defer l.mu.Unlock()

	header := fmt.Sprintf(`
================================================================================
🛡️ RISK SENTRY SESSION STARTED
================================================================================
Account: %s
Started: %s
Log File: %s_%s.log
================================================================================
`, l.account, time.Now().Format("2006-01-02 15:04:05"),
		l.account, time.Now().Format("2006-01-02"))

	l.logger.Print(header)
}

// Log writes a formatted log entry with the specified level
func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)

	l.logger.Println(fmt.Sprintf("[%s] [%s] %s", timestamp, level, message))
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LogLevelInfo, format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.Log(LogLevelWarning, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LogLevelError, format, args...)
}

// LogApproval logs an approved order with its projected risk figures
func (l *Logger) LogApproval(symbol, side string, qty, entry, stop, aggregateRisk float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")

	entryLog := fmt.Sprintf(`
[%s] [ORDER] ==================== ORDER APPROVED ====================
✅ %s %s
📦 Quantity: %.4f @ $%.2f
🛑 Stop: $%.2f
📊 Aggregate Risk At Stop: %.2f%% of equity
==========================================================`,
		timestamp, side, symbol, qty, entry, stop, aggregateRisk*100)

	l.logger.Println(entryLog)
}

// LogRejection logs a rejected order with the layer and reason
func (l *Logger) LogRejection(symbol, side, layer, reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")

	entryLog := fmt.Sprintf(`
[%s] [ORDER] ==================== ORDER REJECTED ====================
🚫 %s %s
🧱 Layer: %s
📋 Reason: %s
==========================================================`,
		timestamp, side, symbol, layer, reason)

	l.logger.Println(entryLog)
}

// LogTrip logs a circuit breaker trip
func (l *Logger) LogTrip(trigger, reason string, metric, threshold float64, cooldownExpiry time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")

	tripLog := fmt.Sprintf(`
[%s] [BREAKER] ==================== BREAKER TRIPPED ====================
⛔ Trigger: %s
📋 Reason: %s
📊 Metric: %.4f | Threshold: %.4f
⏲️ Cooldown Expires: %s
=============================================================`,
		timestamp, trigger, reason, metric, threshold,
		cooldownExpiry.Format("2006-01-02 15:04:05"))

	l.logger.Println(tripLog)
}

// LogBreakerReset logs a successful breaker re-arm
func (l *Logger) LogBreakerReset() {
	l.Log(LogLevelBreaker, "Breaker reset, order flow re-armed")
}

// LogTradeSettled logs a position close and the resulting P&L
func (l *Logger) LogTradeSettled(symbol string, qty, exitPrice, pnl float64) {
	l.Log(LogLevelOrder, "Settled %s - Qty: %.4f, Exit: $%.2f, PnL: $%.2f", symbol, qty, exitPrice, pnl)
}

// LogError logs error with context
func (l *Logger) LogError(context string, err error) {
	l.Error("%s: %v", context, err)
}

// Close closes the log file with a session footer
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	footer := fmt.Sprintf(`
================================================================================
🏁 RISK SENTRY SESSION ENDED
Ended: %s
================================================================================
`, time.Now().Format("2006-01-02 15:04:05"))

	l.logger.Print(footer)

	return l.logFile.Close()
}

// GetLogPath returns the current log file path
func (l *Logger) GetLogPath() string {
	timestamp := time.Now().Format("2006-01-02")
	return filepath.Join(l.logDir, fmt.Sprintf("%s_%s.log", l.account, timestamp))
}
