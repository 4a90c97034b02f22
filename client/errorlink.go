package client

import (
	"context"
	"log/slog"
	"strings"

	"github.com/c360/pageql/toast"
)

// unresolvedVariableMarker is the substring the server emits when a mutation
// was sent without a declared variable. Messages carrying it reference
// internal query details and are rewritten before reaching the user.
const unresolvedVariableMarker = "was not provided"

// ErrorLink returns a middleware that surfaces mutation failures as toasts.
//
// For mutations:
//   - each GraphQL error produces one toast; messages complaining about an
//     unprovided variable are replaced with the generic fallback, everything
//     else is shown verbatim;
//   - a transport-level failure produces exactly one generic network toast.
//
// Queries and subscriptions pass through untouched: their errors belong to
// per-query error state in the page, not to the notification surface.
func ErrorLink(notifier toast.Notifier, logger *slog.Logger) Middleware {
	if notifier == nil {
		notifier = toast.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}

	return func(next Link) Link {
		return LinkFunc(func(ctx context.Context, op *Operation) (*Response, error) {
			resp, err := next.Execute(ctx, op)

			if !op.IsMutation() {
				return resp, err
			}

			if err != nil {
				logger.Warn("mutation transport failure",
					"operation", op.Name,
					"error", err)
				notifier.Notify(toast.Error, toast.NetworkErrorMessage)
				return resp, err
			}

			if resp.HasErrors() {
				for _, gqlErr := range resp.Errors {
					message := gqlErr.Message
					if strings.Contains(message, unresolvedVariableMarker) {
						message = toast.GenericErrorMessage
					}
					notifier.Notify(toast.Error, message)
				}
			}

			return resp, err
		})
	}
}
