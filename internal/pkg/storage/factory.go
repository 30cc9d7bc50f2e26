package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Object store drivers. DriverS3 also covers S3 compatible endpoints such as
// MinIO and LocalStack.
const (
	DriverS3  = "s3"
	DriverGCS = "gcs"
)

var ErrUnknownDriver = errors.New("storage: unknown driver")

// FactoryOptions carries the settings of both backends; only the selected one is read.
type FactoryOptions struct {
	S3  S3Options
	GCS GCSOptions
}

// NewFromDriver opens the bucket of the named driver.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Storage, error) {
	var (
		bucket Storage
		err    error
	)
	switch name := strings.ToLower(strings.TrimSpace(driver)); name {
	case DriverS3:
		bucket, err = NewS3(ctx, opts.S3)
	case DriverGCS:
		bucket, err = NewGCS(ctx, opts.GCS)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: open %s bucket: %w", driver, err)
	}
	return bucket, nil
}
