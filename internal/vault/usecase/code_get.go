package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/watarui/wauth/internal/pkg/goerror"
	"github.com/watarui/wauth/internal/pkg/otp"
	"github.com/watarui/wauth/internal/vault/entity"
)

type GetCodeInput struct {
	SiteName string
}

// GetCode reads the stored secret and derives the code for the current
// time step. Stored secrets are not re-validated.
func (s *Usecase) GetCode(ctx context.Context, in GetCodeInput) (*entity.Code, error) {
	ctx, span := s.startSpan(ctx, "GetCode")
	defer span.End()

	site, err := s.repoStore.Get(ctx, in.SiteName)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "site not found", "site_name", in.SiteName)
		return nil, goerror.NewBusinessCause(entity.ErrSiteNotFound, "No secret found for site: "+in.SiteName, goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to get site", "site_name", in.SiteName, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()

	code, err := s.totp.GenerateCode(site.Secret, now)
	if errors.Is(err, otp.ErrInvalidSecret) {
		slog.WarnContext(ctx, "stored secret is not valid base32", "site_name", in.SiteName)
		return nil, goerror.NewBusinessCause(err, "Stored secret for site "+in.SiteName+" is invalid", goerror.CodeInvalidSecret)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate code", "site_name", in.SiteName, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &entity.Code{
		SiteName:         site.Name,
		Code:             code,
		RemainingSeconds: s.totp.RemainingSeconds(now),
		GeneratedAt:      now,
	}, nil
}
