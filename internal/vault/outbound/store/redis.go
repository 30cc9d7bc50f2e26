package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/watarui/wauth/internal/pkg/goerror"
	"github.com/watarui/wauth/internal/pkg/instrument"
	"github.com/watarui/wauth/internal/vault/entity"
)

// DefaultRedisKey is the hash holding site_name -> secret.
const DefaultRedisKey = "wauth:sites"

const redisScanCount = 100

// Redis stores every site as a field of one hash.
type Redis struct {
	tracing
	client *redis.Client
	key    string
}

// NewRedis wraps client. An empty key uses DefaultRedisKey.
func NewRedis(client *redis.Client, key string, ins instrument.Instrumentation) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{tracing: newTracing(ins, "redis"), client: client, key: key}
}

func (r *Redis) Put(ctx context.Context, site entity.Site) (err error) {
	ctx, span := r.startSpan(ctx, "Put", site.Name)
	defer func() { r.endSpan(span, err) }()

	return r.client.HSet(ctx, r.key, site.Name, site.Secret).Err()
}

func (r *Redis) Create(ctx context.Context, site entity.Site) (err error) {
	ctx, span := r.startSpan(ctx, "Create", site.Name)
	defer func() { r.endSpan(span, err) }()

	ok, err := r.client.HSetNX(ctx, r.key, site.Name, site.Secret).Result()
	if err != nil {
		return err
	}
	if !ok {
		return goerror.ErrConflict
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, siteName string) (_ bool, err error) {
	ctx, span := r.startSpan(ctx, "Delete", siteName)
	defer func() { r.endSpan(span, err) }()

	n, err := r.client.HDel(ctx, r.key, siteName).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Redis) Get(ctx context.Context, siteName string) (_ *entity.Site, err error) {
	ctx, span := r.startSpan(ctx, "Get", siteName)
	defer func() { r.endSpan(span, err) }()

	secret, err := r.client.HGet(ctx, r.key, siteName).Result()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &entity.Site{Name: siteName, Secret: secret}, nil
}

// ListSiteNames walks the hash with HSCAN so large vaults are read in pages.
func (r *Redis) ListSiteNames(ctx context.Context) (_ []string, err error) {
	ctx, span := r.startSpan(ctx, "ListSiteNames", "")
	defer func() { r.endSpan(span, err) }()

	names := make([]string, 0)
	var cursor uint64
	for {
		pairs, next, err := r.client.HScan(ctx, r.key, cursor, "*", redisScanCount).Result()
		if err != nil {
			return nil, err
		}
		for i := 0; i < len(pairs); i += 2 {
			names = append(names, pairs[i])
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return names, nil
}

func (r *Redis) Exists(ctx context.Context, siteName string) (_ bool, err error) {
	ctx, span := r.startSpan(ctx, "Exists", siteName)
	defer func() { r.endSpan(span, err) }()

	return r.client.HExists(ctx, r.key, siteName).Result()
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
