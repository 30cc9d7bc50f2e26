package usecase

import (
	"context"
	"log/slog"

	"github.com/watarui/wauth/internal/pkg/goerror"
)

// CheckHealth reports whether the secret store is reachable.
func (s *Usecase) CheckHealth(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "CheckHealth")
	defer span.End()

	if err := s.repoStore.Ping(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to ping secret store", "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
