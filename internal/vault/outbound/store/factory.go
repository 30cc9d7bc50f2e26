package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/watarui/wauth/internal/pkg/config"
	"github.com/watarui/wauth/internal/pkg/instrument"
	"github.com/watarui/wauth/internal/pkg/storage"
)

const (
	DriverDynamoDB = "dynamodb"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverS3       = storage.DriverS3
	DriverGCS      = storage.DriverGCS
)

// New builds the driver named by "store.driver". Connections are created
// lazily by the underlying clients; call Ping to check readiness.
func New(ctx context.Context, cfg config.Config, ins instrument.Instrumentation) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.GetString("store.driver")))

	switch driver {
	case DriverDynamoDB, "":
		if err := cfg.Require("store.dynamodb.table"); err != nil {
			return nil, err
		}
		return NewDynamoDB(ctx, DynamoDBOptions{
			Table:    cfg.GetString("store.dynamodb.table"),
			Region:   cfg.GetString("store.dynamodb.region"),
			Profile:  cfg.GetString("store.dynamodb.profile"),
			Endpoint: cfg.GetString("store.dynamodb.endpoint"),
		}, ins)

	case DriverRedis:
		if err := cfg.Require("store.redis.url"); err != nil {
			return nil, err
		}
		opt, err := redis.ParseURL(cfg.GetString("store.redis.url"))
		if err != nil {
			return nil, fmt.Errorf("store: parse redis url: %w", err)
		}
		return NewRedis(redis.NewClient(opt), cfg.GetString("store.redis.key"), ins), nil

	case DriverPostgres:
		return newPostgresFromConfig(ctx, cfg, ins)

	case DriverS3, DriverGCS:
		if err := cfg.Require("store.object.bucket"); err != nil {
			return nil, err
		}
		bucket, err := storage.NewFromDriver(ctx, driver, storage.FactoryOptions{
			S3: storage.S3Options{
				Bucket:       cfg.GetString("store.object.bucket"),
				Region:       cfg.GetString("store.s3.region"),
				Profile:      cfg.GetString("store.s3.profile"),
				Endpoint:     cfg.GetString("store.s3.endpoint"),
				AccessKey:    cfg.GetString("store.s3.access_key"),
				SecretKey:    cfg.GetString("store.s3.secret_key"),
				UsePathStyle: cfg.GetBool("store.s3.use_path_style"),
			},
			GCS: storage.GCSOptions{
				Bucket:          cfg.GetString("store.object.bucket"),
				WithoutAuth:     cfg.GetBool("store.gcs.without_auth"),
				CredentialsFile: cfg.GetString("store.gcs.credentials_file"),
				Endpoint:        cfg.GetString("store.gcs.endpoint"),
				UserAgent:       cfg.GetString("app.name"),
			},
		})
		if err != nil {
			return nil, err
		}
		return NewObject(bucket, driver, cfg.GetString("store.object.prefix"), ins), nil

	default:
		return nil, fmt.Errorf("store: unknown driver %q", driver)
	}
}

func newPostgresFromConfig(ctx context.Context, cfg config.Config, ins instrument.Instrumentation) (*Postgres, error) {
	if err := cfg.Require("store.postgres.url"); err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.GetString("store.postgres.url"))
	if err != nil {
		return nil, fmt.Errorf("store: parse postgres url: %w", err)
	}
	if n := cfg.GetInt("store.postgres.pool.max_conns"); n > 0 {
		poolCfg.MaxConns = int32(n)
	}
	if n := cfg.GetInt("store.postgres.pool.min_conns"); n > 0 {
		poolCfg.MinConns = int32(n)
	}
	if d := cfg.GetSecond("store.postgres.pool.max_conn_idle_seconds"); d > 0 {
		poolCfg.MaxConnIdleTime = d
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("store: create postgres pool: %w", err)
	}

	return NewPostgres(pool, cfg.GetString("store.postgres.table"), ins), nil
}
