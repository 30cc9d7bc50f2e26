package usecase

import (
	"context"
	"log/slog"

	"github.com/watarui/wauth/internal/pkg/goerror"
	"github.com/watarui/wauth/internal/vault/entity"
)

type GenerateSecretInput struct {
	SiteName string
}

// GenerateSecret creates a random secret for a new site, stores it through
// the same gate as AddSite and returns it with its otpauth:// URI.
func (s *Usecase) GenerateSecret(ctx context.Context, in GenerateSecretInput) (*entity.GeneratedSecret, error) {
	ctx, span := s.startSpan(ctx, "GenerateSecret")
	defer span.End()

	if err := entity.ValidateSiteName(in.SiteName); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	secret, uri, err := s.totp.Generate(in.SiteName)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate secret", "site_name", in.SiteName, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := entity.ValidateSecret(secret); err != nil {
		slog.ErrorContext(ctx, "generated secret rejected by validator", "site_name", in.SiteName, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.store(ctx, entity.Site{Name: in.SiteName, Secret: secret}); err != nil {
		return nil, err
	}

	return &entity.GeneratedSecret{SiteName: in.SiteName, Secret: secret, URI: uri}, nil
}
