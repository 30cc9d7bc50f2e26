package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/watarui/wauth/internal/pkg/goerror"
	"github.com/watarui/wauth/internal/vault/entity"
)

type AddSiteInput struct {
	SiteName string
	Secret   string
}

// AddSite validates the pair and stores it unless the site name is taken.
// Validation runs site name first, then secret, and stops at the first
// violation. An existing record is never overwritten.
func (s *Usecase) AddSite(ctx context.Context, in AddSiteInput) error {
	ctx, span := s.startSpan(ctx, "AddSite")
	defer span.End()

	if err := entity.ValidateSiteName(in.SiteName); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if err := entity.ValidateSecret(in.Secret); err != nil {
		return goerror.NewInvalidInput(err)
	}

	return s.store(ctx, entity.Site{Name: in.SiteName, Secret: in.Secret})
}

// store runs the uniqueness gate and writes site. Inputs are already validated.
func (s *Usecase) store(ctx context.Context, site entity.Site) error {
	if s.strictUniqueness() {
		err := s.repoStore.Create(ctx, site)
		if errors.Is(err, goerror.ErrConflict) {
			return s.duplicate(ctx, site.Name)
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to create site", "site_name", site.Name, "error", err)
			return goerror.NewServer(err)
		}

		s.publish(ctx, entity.EventSiteAdded, site.Name)
		return nil
	}

	exists, err := s.repoStore.Exists(ctx, site.Name)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check site existence", "site_name", site.Name, "error", err)
		return goerror.NewServer(err)
	}
	if exists {
		return s.duplicate(ctx, site.Name)
	}

	if err := s.repoStore.Put(ctx, site); err != nil {
		slog.ErrorContext(ctx, "failed to put site", "site_name", site.Name, "error", err)
		return goerror.NewServer(err)
	}

	s.publish(ctx, entity.EventSiteAdded, site.Name)
	return nil
}

func (s *Usecase) duplicate(ctx context.Context, siteName string) error {
	slog.WarnContext(ctx, "site name already exists", "site_name", siteName)

	verr := entity.NewDuplicateSiteNameError(siteName)
	return goerror.NewBusinessCause(verr, verr.Message, goerror.CodeConflict, verr.Field, verr.Message)
}
