package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"

	gcs "cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSAdapter implements Storage on a single Google Cloud Storage bucket.
type GCSAdapter struct {
	client *gcs.Client
	bucket string
}

// GCSOptions configures GCS client initialization. With no credentials the
// client falls back to Application Default Credentials.
type GCSOptions struct {
	Bucket string
	// Client provides an existing GCS client.
	Client          *gcs.Client
	WithoutAuth     bool
	CredentialsFile string
	CredentialsJSON []byte
	// Endpoint targets an emulator such as fake-gcs-server.
	Endpoint  string
	UserAgent string
}

// NewGCS constructs a GCS adapter.
func NewGCS(ctx context.Context, opts GCSOptions) (*GCSAdapter, error) {
	if opts.Bucket == "" {
		return nil, errors.New("storage: gcs bucket is required")
	}

	client := opts.Client
	if client == nil {
		clientOpts, err := gcsClientOptions(ctx, opts)
		if err != nil {
			return nil, err
		}
		created, err := gcs.NewClient(ctx, clientOpts...)
		if err != nil {
			return nil, err
		}
		client = created
	}

	return &GCSAdapter{client: client, bucket: opts.Bucket}, nil
}

func gcsClientOptions(ctx context.Context, opts GCSOptions) ([]option.ClientOption, error) {
	clientOpts := []option.ClientOption{}
	if opts.WithoutAuth {
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	}

	credsJSON := opts.CredentialsJSON
	if opts.CredentialsFile != "" {
		// #nosec G304 -- path is from trusted config file.
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, err
		}
		credsJSON = data
	}
	if len(credsJSON) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, credsJSON, gcs.ScopeReadWrite)
		if err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts, option.WithCredentials(creds))
	}

	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}
	if opts.UserAgent != "" {
		clientOpts = append(clientOpts, option.WithUserAgent(opts.UserAgent))
	}

	return clientOpts, nil
}

func (g *GCSAdapter) Put(ctx context.Context, key string, data []byte, opts PutOptions) error {
	obj := g.client.Bucket(g.bucket).Object(key)
	if opts.IfAbsent {
		obj = obj.If(gcs.Conditions{DoesNotExist: true})
	}

	writer := obj.NewWriter(ctx)
	if opts.ContentType != "" {
		writer.ContentType = opts.ContentType
	}

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return err
	}

	if err := writer.Close(); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed {
			return ErrPreconditionFailed
		}
		return err
	}

	return nil
}

func (g *GCSAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	reader, err := g.client.Bucket(g.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

func (g *GCSAdapter) Exists(ctx context.Context, key string) (bool, error) {
	_, err := g.client.Bucket(g.bucket).Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (g *GCSAdapter) Delete(ctx context.Context, key string) error {
	err := g.client.Bucket(g.bucket).Object(key).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (g *GCSAdapter) List(ctx context.Context, prefix string) ([]string, error) {
	query := &gcs.Query{Prefix: prefix}
	if err := query.SetAttrSelection([]string{"Name"}); err != nil {
		return nil, err
	}

	it := g.client.Bucket(g.bucket).Objects(ctx, query)
	keys := make([]string, 0)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		keys = append(keys, attrs.Name)
	}

	return keys, nil
}

// Close closes the GCS client.
func (g *GCSAdapter) Close() error {
	return g.client.Close()
}
