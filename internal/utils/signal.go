package utils

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
)

// WithSignalCancel returns a context cancelled on SIGINT/SIGTERM.
func WithSignalCancel(ctx context.Context, log *zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutdown signal received")
	}()

	return ctx, cancel
}
