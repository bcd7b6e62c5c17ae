package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// withTimeout bounds ctx by timeout unless it is a SessionContext; wrapping a
// session context would detach the operation from its transaction.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	if remaining := time.Until(deadline); remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}
	return context.WithTimeout(ctx, timeout)
}
