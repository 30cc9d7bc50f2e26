package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/watarui/wauth/internal/pkg/goerror"
	"github.com/watarui/wauth/internal/pkg/instrument"
	"github.com/watarui/wauth/internal/pkg/storage"
	"github.com/watarui/wauth/internal/vault/entity"
)

// DefaultObjectPrefix is the key prefix used when none is configured.
const DefaultObjectPrefix = "sites/"

const (
	objectSuffix      = ".json"
	objectContentType = "application/json"
)

// Object stores each site as a JSON document in an S3 or GCS bucket under
// <prefix><escaped site name>.json.
type Object struct {
	tracing
	bucket storage.Storage
	prefix string
}

// NewObject wraps an object storage client.
func NewObject(bucket storage.Storage, driver, prefix string, ins instrument.Instrumentation) *Object {
	if prefix == "" {
		prefix = DefaultObjectPrefix
	}
	return &Object{tracing: newTracing(ins, driver), bucket: bucket, prefix: prefix}
}

func (o *Object) key(siteName string) string {
	return o.prefix + url.PathEscape(siteName) + objectSuffix
}

func (o *Object) siteName(key string) (string, bool) {
	name, ok := strings.CutPrefix(key, o.prefix)
	if !ok {
		return "", false
	}
	name, ok = strings.CutSuffix(name, objectSuffix)
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", false
	}
	name, err := url.PathUnescape(name)
	if err != nil {
		return "", false
	}
	return name, true
}

func (o *Object) put(ctx context.Context, site entity.Site, ifAbsent bool) error {
	data, err := json.Marshal(record{SiteName: site.Name, Secret: site.Secret})
	if err != nil {
		return err
	}

	err = o.bucket.Put(ctx, o.key(site.Name), data, storage.PutOptions{
		ContentType: objectContentType,
		IfAbsent:    ifAbsent,
	})
	if errors.Is(err, storage.ErrPreconditionFailed) {
		return goerror.ErrConflict
	}
	return err
}

func (o *Object) Put(ctx context.Context, site entity.Site) (err error) {
	ctx, span := o.startSpan(ctx, "Put", site.Name)
	defer func() { o.endSpan(span, err) }()

	err = o.put(ctx, site, false)
	return err
}

func (o *Object) Create(ctx context.Context, site entity.Site) (err error) {
	ctx, span := o.startSpan(ctx, "Create", site.Name)
	defer func() { o.endSpan(span, err) }()

	err = o.put(ctx, site, true)
	return err
}

func (o *Object) Delete(ctx context.Context, siteName string) (_ bool, err error) {
	ctx, span := o.startSpan(ctx, "Delete", siteName)
	defer func() { o.endSpan(span, err) }()

	key := o.key(siteName)
	exists, err := o.bucket.Exists(ctx, key)
	if err != nil || !exists {
		return false, err
	}

	if err = o.bucket.Delete(ctx, key); err != nil {
		return false, err
	}
	return true, nil
}

func (o *Object) Get(ctx context.Context, siteName string) (_ *entity.Site, err error) {
	ctx, span := o.startSpan(ctx, "Get", siteName)
	defer func() { o.endSpan(span, err) }()

	data, err := o.bucket.Get(ctx, o.key(siteName))
	if errors.Is(err, storage.ErrObjectNotFound) {
		err = goerror.ErrNotFound
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	var rec record
	if err = json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", o.key(siteName), err)
	}
	rec.SiteName = siteName

	return rec.site(), nil
}

func (o *Object) ListSiteNames(ctx context.Context) (_ []string, err error) {
	ctx, span := o.startSpan(ctx, "ListSiteNames", "")
	defer func() { o.endSpan(span, err) }()

	keys, err := o.bucket.List(ctx, o.prefix)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		if name, ok := o.siteName(key); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

func (o *Object) Exists(ctx context.Context, siteName string) (_ bool, err error) {
	ctx, span := o.startSpan(ctx, "Exists", siteName)
	defer func() { o.endSpan(span, err) }()

	return o.bucket.Exists(ctx, o.key(siteName))
}

// Ping issues a HEAD on a key that never exists, which still fails when the
// bucket is missing or the credentials are rejected.
func (o *Object) Ping(ctx context.Context) error {
	_, err := o.bucket.Exists(ctx, o.prefix+".ping")
	return err
}

func (o *Object) Close() error {
	return o.bucket.Close()
}
