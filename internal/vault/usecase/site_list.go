package usecase

import (
	"context"
	"log/slog"
	"slices"

	"github.com/samber/lo"
	"github.com/watarui/wauth/internal/pkg/goerror"
)

const maxListSize = 100

type ListSitesInput struct {
	// Page starts at 1. Zero Size returns every site.
	Page int
	Size int
}

type ListSitesOutput struct {
	Page  int
	Size  int
	Total int
	Sites []string
}

// ListSites returns the stored site names in ascending order.
func (s *Usecase) ListSites(ctx context.Context, in ListSitesInput) (*ListSitesOutput, error) {
	ctx, span := s.startSpan(ctx, "ListSites")
	defer span.End()

	names, err := s.repoStore.ListSiteNames(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list site names", "error", err)
		return nil, goerror.NewServer(err)
	}

	names = lo.Uniq(names)
	slices.Sort(names)

	out := &ListSitesOutput{Page: 1, Size: len(names), Total: len(names), Sites: names}
	if in.Size <= 0 {
		return out, nil
	}

	out.Size = min(in.Size, maxListSize)
	out.Page = max(in.Page, 1)

	// compare page counts before multiplying so a huge page cannot overflow
	// into a negative offset
	pages := (len(names) + out.Size - 1) / out.Size
	if out.Page > pages {
		out.Sites = []string{}
		return out, nil
	}
	out.Sites = lo.Subset(names, (out.Page-1)*out.Size, uint(out.Size))

	return out, nil
}
