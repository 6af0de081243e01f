package errlog

import (
	"context"
	"errors"

	eventbus "github.com/hanpama/resolverlog/internal/eventbus"
	events "github.com/hanpama/resolverlog/internal/events"
)

// NewEventLogger publishes every error as events.ResolverError on the
// global event bus, where tracing subscribers pick it up.
func NewEventLogger() Logger {
	return LoggerFunc(func(ctx context.Context, err error) {
		e := events.ResolverError{Err: err}
		var rerr *Error
		if errors.As(err, &rerr) {
			e.Hint = rerr.Hint()
		}
		eventbus.Publish(ctx, e)
	})
}
