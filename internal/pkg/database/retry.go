package database

import (
	"context"
	"errors"
	"log/slog"
)

// RetryOnConflict runs fn and re-runs it up to retries more times while it
// fails with ErrConflict.
func RetryOnConflict(ctx context.Context, retries int, fn func() error) error {
	err := fn()
	for attempt := 1; attempt <= retries && errors.Is(err, ErrConflict); attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		slog.Warn("Retrying transaction after conflict", "attempt", attempt, "error", err)
		err = fn()
	}
	return err
}
