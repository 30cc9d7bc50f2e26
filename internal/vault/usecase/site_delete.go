package usecase

import (
	"context"
	"log/slog"

	"github.com/watarui/wauth/internal/pkg/goerror"
	"github.com/watarui/wauth/internal/vault/entity"
)

type DeleteSiteInput struct {
	SiteName string
}

// DeleteSite removes the site. Deleting a site that is not stored succeeds
// without side effects.
func (s *Usecase) DeleteSite(ctx context.Context, in DeleteSiteInput) error {
	ctx, span := s.startSpan(ctx, "DeleteSite")
	defer span.End()

	deleted, err := s.repoStore.Delete(ctx, in.SiteName)
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete site", "site_name", in.SiteName, "error", err)
		return goerror.NewServer(err)
	}

	if deleted {
		s.publish(ctx, entity.EventSiteDeleted, in.SiteName)
	}

	return nil
}
