package notifications

// Notifier defines the interface for notification services
type Notifier interface {
	// SendAlert sends an alert with the specified level and message
	SendAlert(level, message string) error
}

// Nop is a Notifier that discards every alert. Used when no channel is
// configured.
type Nop struct{}

func (Nop) SendAlert(level, message string) error { return nil }
