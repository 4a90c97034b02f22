// Package toast defines the transient user-notification contract consumed by
// the GraphQL client's error link, plus the notifier implementations used on
// the server: a request-scoped collector that the page render flushes into
// markup, and an slog-backed notifier for headless contexts.
package toast

import "log/slog"

// Kind is the severity of a notification.
type Kind int

const (
	// Error indicates a failed user action.
	Error Kind = iota
	// Warning indicates a degraded but non-failing condition.
	Warning
	// Success confirms a completed user action.
	Success
	// Info carries neutral information.
	Info
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Success:
		return "success"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// GenericErrorMessage is shown in place of server messages that would leak
// internal query details (unresolved variable complaints and the like).
const GenericErrorMessage = "Something went wrong. Please try again."

// NetworkErrorMessage is shown once per transport-level mutation failure.
const NetworkErrorMessage = "Network error"

// Notifier receives user-facing notifications. Implementations must be safe
// for concurrent use; the client error link may fire from any request
// goroutine.
type Notifier interface {
	Notify(kind Kind, message string)
}

// Func adapts a plain function to the Notifier interface.
type Func func(kind Kind, message string)

// Notify implements Notifier.
func (f Func) Notify(kind Kind, message string) {
	f(kind, message)
}

// Discard is a Notifier that drops all notifications.
var Discard Notifier = Func(func(Kind, string) {})

// LogNotifier routes notifications to a structured logger. Used where no
// user-facing surface exists (background work, tests, CLI contexts).
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier backed by the given logger.
// A nil logger falls back to slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(kind Kind, message string) {
	switch kind {
	case Error:
		n.logger.Error("toast", "kind", kind.String(), "message", message)
	case Warning:
		n.logger.Warn("toast", "kind", kind.String(), "message", message)
	default:
		n.logger.Info("toast", "kind", kind.String(), "message", message)
	}
}
