package middleware

import (
	"context"

	"rentverse/internal/app/commands"
	"rentverse/internal/app/outbox"
)

// OutboxFlush nudges the outbox after a successful command so freshly
// committed audit events reach the broker without waiting a full poll cycle.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
