package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	vererrors "github.com/mkviewer/mkviewer/internal/errors"
)

// GCSStore is the Google Cloud Storage implementation of ObjectStore.
type GCSStore struct {
	client  *storage.Client
	bucket  string
	timeout time.Duration
}

// Options configures the store connection factory.
type Options struct {
	// Endpoints are alternative API endpoints tried in order. An empty slice
	// (or empty entry) uses the service default.
	Endpoints []string
	// Bucket is the bucket all operations target.
	Bucket string
	// CredentialsFile is an optional service-account JSON path.
	CredentialsFile string
	// Timeout bounds every store call. Zero means 10s.
	Timeout time.Duration
	// Retry is the backoff policy used while probing endpoints.
	Retry vererrors.RetryConfig
}

// Dial connects to the object store, probing each configured endpoint with
// retry/backoff until one answers. The returned store is ready to use; there
// is no hidden first-call connect. Failure to reach any endpoint yields a
// typed StoreUnavailable error.
func Dial(ctx context.Context, opts Options) (*GCSStore, error) {
	if opts.Bucket == "" {
		return nil, vererrors.New(vererrors.ErrCodeConfigInvalid, "store bucket not configured", nil)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	endpoints := opts.Endpoints
	if len(endpoints) == 0 {
		endpoints = []string{""}
	}

	var lastErr error
	for _, ep := range endpoints {
		client, err := dialEndpoint(ctx, ep, opts.CredentialsFile)
		if err != nil {
			lastErr = err
			continue
		}

		s := &GCSStore{client: client, bucket: opts.Bucket, timeout: timeout}

		// Probe the bucket so a dead endpoint fails here, not mid-request.
		probe := func() error {
			probeCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			_, err := client.Bucket(opts.Bucket).Attrs(probeCtx)
			return err
		}
		if err := vererrors.Retry(ctx, opts.Retry, probe); err != nil {
			lastErr = err
			_ = client.Close()
			continue
		}

		slog.Info("store_connected",
			slog.String("endpoint", ep),
			slog.String("bucket", opts.Bucket))
		return s, nil
	}

	return nil, vererrors.StoreUnavailable("no object-store endpoint reachable", lastErr)
}

func dialEndpoint(ctx context.Context, endpoint, credentialsFile string) (*storage.Client, error) {
	var opts []option.ClientOption
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	return storage.NewClient(ctx, opts...)
}

// List enumerates all objects under prefix.
func (s *GCSStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var query *storage.Query
	if prefix != "" {
		query = &storage.Query{Prefix: prefix}
	}

	it := s.client.Bucket(s.bucket).Objects(ctx, query)
	var infos []ObjectInfo
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, s.wrap("failed to list objects", err)
		}
		infos = append(infos, ObjectInfo{Key: attrs.Name, ETag: attrs.Etag, Size: attrs.Size})
	}
	return infos, nil
}

// Get fetches the full object bytes.
func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, vererrors.New(vererrors.ErrCodeObjectNotFound, "object not found", err).WithKey(key)
		}
		return nil, s.wrap("failed to open object", err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, s.wrap("failed to read object", err)
	}
	return data, nil
}

// Stat returns metadata for a single object.
func (s *GCSStore) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	attrs, err := s.client.Bucket(s.bucket).Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return ObjectInfo{}, vererrors.New(vererrors.ErrCodeObjectNotFound, "object not found", err).WithKey(key)
		}
		return ObjectInfo{}, s.wrap("failed to stat object", err)
	}
	return ObjectInfo{Key: attrs.Name, ETag: attrs.Etag, Size: attrs.Size}, nil
}

// PresignedURL returns a signed GET URL valid for ttl.
func (s *GCSStore) PresignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	url, err := s.client.Bucket(s.bucket).SignedURL(key, &storage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", s.wrap("failed to sign URL", err)
	}
	return url, nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

// wrap converts a transport error to the typed store taxonomy, distinguishing
// deadline expiry so callers can tell timeouts from hard failures.
func (s *GCSStore) wrap(message string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return vererrors.New(vererrors.ErrCodeStoreTimeout, message, err)
	}
	return vererrors.StoreUnavailable(message, err)
}
