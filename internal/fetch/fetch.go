// Package fetch retrieves source audio by URL or local path.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"mixdown/internal/config"
	"mixdown/internal/services"
)

// HTTPDoer describes the HTTP client used to download sources.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithLocalFiles permits plain paths and file:// URLs.
func WithLocalFiles(enabled bool) Option {
	return func(f *Fetcher) { f.allowLocal = enabled }
}

// Fetcher downloads source buffers with a timeout and size cap.
type Fetcher struct {
	client     HTTPDoer
	timeout    time.Duration
	maxBytes   int64
	userAgent  string
	allowLocal bool
}

// New constructs a Fetcher from configuration. Local files are rejected
// unless WithLocalFiles(true) is supplied.
func New(cfg config.Fetch, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    http.DefaultClient,
		timeout:   time.Duration(cfg.Timeout) * time.Second,
		maxBytes:  cfg.MaxBytes,
		userAgent: strings.TrimSpace(cfg.UserAgent),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the bytes behind source.
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, services.Wrap(services.ErrValidation, "fetch", "", "source is empty", nil)
	}

	parsed, err := url.Parse(source)
	if err != nil || parsed.Scheme == "" || len(parsed.Scheme) == 1 {
		// Single-letter schemes are Windows drive letters.
		return f.fetchLocal(source)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		return f.fetchHTTP(ctx, parsed.String())
	case "file":
		return f.fetchLocal(parsed.Path)
	default:
		return nil, services.Wrap(services.ErrValidation, "fetch", source, fmt.Sprintf("unsupported scheme %q", parsed.Scheme), nil)
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, target string) ([]byte, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "fetch", target, "build request", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "fetch", target, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, services.Wrap(services.ErrFetch, "fetch", target, "server responded "+resp.Status, nil)
	}
	if f.maxBytes > 0 && resp.ContentLength > f.maxBytes {
		return nil, services.Wrap(services.ErrFetch, "fetch", target, f.tooLarge(resp.ContentLength), nil)
	}

	data, err := f.readCapped(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "fetch", target, "", err)
	}
	return data, nil
}

func (f *Fetcher) fetchLocal(path string) ([]byte, error) {
	if !f.allowLocal {
		return nil, services.Wrap(services.ErrValidation, "fetch", path, "local sources are not permitted", nil)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "fetch", path, "", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "fetch", path, "", err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrFetch, "fetch", path, "is a directory", nil)
	}
	if f.maxBytes > 0 && info.Size() > f.maxBytes {
		return nil, services.Wrap(services.ErrFetch, "fetch", path, f.tooLarge(info.Size()), nil)
	}
	data, err := f.readCapped(file)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "fetch", path, "", err)
	}
	return data, nil
}

var errTooLarge = errors.New("source exceeds size limit")

func (f *Fetcher) readCapped(r io.Reader) ([]byte, error) {
	if f.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w of %d bytes", errTooLarge, f.maxBytes)
	}
	return data, nil
}

func (f *Fetcher) tooLarge(size int64) string {
	return fmt.Sprintf("%d bytes exceeds limit of %d", size, f.maxBytes)
}
