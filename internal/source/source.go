// Package source fetches table files from local disk or Google Cloud Storage
// and decodes them into engine tables.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"bizmetrics/internal/engine"

	"cloud.google.com/go/storage"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const gcsScheme = "gs://"

// Fetcher returns the raw bytes of one object.
type Fetcher interface {
	Fetch(ctx context.Context, bucket, object string) ([]byte, error)
}

// Loader resolves a path to a table. Paths starting with gs:// go through
// the remote Fetcher; everything else is read from disk.
type Loader struct {
	logger  *zap.Logger
	remote  Fetcher
	breaker *gobreaker.CircuitBreaker
}

// Option configures a Loader.
type Option func(*Loader)

// WithFetcher overrides the gs:// fetcher.
func WithFetcher(f Fetcher) Option {
	return func(l *Loader) { l.remote = f }
}

// WithLogger sets the loader logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader builds a Loader. Without WithFetcher, gs:// paths use a lazily
// created GCS client authenticated with credentialsFile (or ambient
// credentials when empty).
func NewLoader(credentialsFile string, opts ...Option) *Loader {
	l := &Loader{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	if l.remote == nil {
		l.remote = &gcsFetcher{credentialsFile: credentialsFile}
	}
	l.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gcs-fetch",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return l
}

// Load detects the format from the path, fetches the content and decodes it.
// Unsupported extensions fail before any I/O.
func (l *Loader) Load(ctx context.Context, path string) (*engine.Table, error) {
	start := time.Now()
	format, err := engine.DetectFormat(path)
	if err != nil {
		return nil, err
	}

	content, err := l.fetch(ctx, path)
	if err != nil {
		return nil, err
	}

	table, err := engine.ReadTable(content, format)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	l.logger.Info("load complete",
		zap.String("path", path),
		zap.Stringer("format", format),
		zap.Int("rows", table.Len()),
		zap.Int("columns", len(table.Schema())),
		zap.Duration("elapsed", time.Since(start)))
	return table, nil
}

func (l *Loader) fetch(ctx context.Context, path string) ([]byte, error) {
	if !strings.HasPrefix(path, gcsScheme) {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return content, nil
	}

	bucket, object, err := SplitGCSPath(path)
	if err != nil {
		return nil, err
	}
	out, err := l.breaker.Execute(func() (interface{}, error) {
		return l.remote.Fetch(ctx, bucket, object)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	return out.([]byte), nil
}

// SplitGCSPath splits gs://bucket/object into its parts.
func SplitGCSPath(path string) (bucket, object string, err error) {
	rest := strings.TrimPrefix(path, gcsScheme)
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("invalid GCS path %q: want gs://bucket/object", path)
	}
	return bucket, object, nil
}

type gcsFetcher struct {
	credentialsFile string

	once   sync.Once
	client *storage.Client
	err    error
}

func (g *gcsFetcher) Fetch(ctx context.Context, bucket, object string) ([]byte, error) {
	g.once.Do(func() {
		var opts []option.ClientOption
		if g.credentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(g.credentialsFile))
		}
		g.client, g.err = storage.NewClient(ctx, opts...)
	})
	if g.err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", g.err)
	}

	r, err := g.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = r.Close()
	}()
	return io.ReadAll(r)
}
