package store

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/watarui/wauth/internal/pkg/goerror"
	"github.com/watarui/wauth/internal/vault/entity"
)

const testSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func siteFixture(name string) entity.Site {
	return entity.Site{Name: name, Secret: testSecret}
}

// runStoreContract exercises the behaviour every driver must share.
func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		_, err := s.Get(ctx, "missing.example")
		if !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("put get exists", func(t *testing.T) {
		if err := s.Put(ctx, entity.Site{Name: "github.com", Secret: testSecret}); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		got, err := s.Get(ctx, "github.com")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Name != "github.com" || got.Secret != testSecret {
			t.Fatalf("Get() = %+v", got)
		}

		ok, err := s.Exists(ctx, "github.com")
		if err != nil || !ok {
			t.Fatalf("Exists() = %v, %v; want true", ok, err)
		}
		ok, err = s.Exists(ctx, "GitHub.com")
		if err != nil || ok {
			t.Fatalf("Exists() case-sensitive = %v, %v; want false", ok, err)
		}
	})

	t.Run("put overwrites", func(t *testing.T) {
		if err := s.Put(ctx, entity.Site{Name: "github.com", Secret: "JBSWY3DPEHPK3PXP"}); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		got, err := s.Get(ctx, "github.com")
		if err != nil || got.Secret != "JBSWY3DPEHPK3PXP" {
			t.Fatalf("Get() = %+v, %v", got, err)
		}
	})

	t.Run("create conflict keeps record", func(t *testing.T) {
		err := s.Create(ctx, entity.Site{Name: "github.com", Secret: testSecret})
		if !errors.Is(err, goerror.ErrConflict) {
			t.Fatalf("Create() error = %v, want ErrConflict", err)
		}
		got, err := s.Get(ctx, "github.com")
		if err != nil || got.Secret != "JBSWY3DPEHPK3PXP" {
			t.Fatalf("Get() = %+v, %v", got, err)
		}

		if err := s.Create(ctx, entity.Site{Name: "aws_console", Secret: testSecret}); err != nil {
			t.Fatalf("Create() new error = %v", err)
		}
	})

	t.Run("list", func(t *testing.T) {
		names, err := s.ListSiteNames(ctx)
		if err != nil {
			t.Fatalf("ListSiteNames() error = %v", err)
		}
		slices.Sort(names)
		if !slices.Equal(names, []string{"aws_console", "github.com"}) {
			t.Fatalf("ListSiteNames() = %v", names)
		}
	})

	t.Run("delete", func(t *testing.T) {
		deleted, err := s.Delete(ctx, "github.com")
		if err != nil || !deleted {
			t.Fatalf("Delete() = %v, %v; want true", deleted, err)
		}
		deleted, err = s.Delete(ctx, "github.com")
		if err != nil || deleted {
			t.Fatalf("Delete() again = %v, %v; want false", deleted, err)
		}
		if _, err := s.Get(ctx, "github.com"); !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("Get() after delete error = %v", err)
		}
	})
}
