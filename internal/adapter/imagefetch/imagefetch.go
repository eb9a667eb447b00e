// Package imagefetch downloads product images for the try-on prompt.
package imagefetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/retry"
)

const maxImageBytes = 10 << 20

var errServer = errors.New("image server error")

var _ port.ImageFetcher = Fetcher{}

type Fetcher struct {
	client   *http.Client
	retryCfg retry.RetryConfig
}

type Opt func(*Fetcher)

func ClientOpt(c *http.Client) Opt {
	return func(f *Fetcher) { f.client = c }
}

// RetryOpt replaces the retry policy. A nil ShouldRetry keeps retrying
// server errors only.
func RetryOpt(c retry.RetryConfig) Opt {
	return func(f *Fetcher) {
		if c.ShouldRetry == nil {
			c.ShouldRetry = f.retryCfg.ShouldRetry
		}
		f.retryCfg = c
	}
}

func New(opts ...Opt) Fetcher {
	f := Fetcher{
		client: &http.Client{Timeout: 15 * time.Second},
		retryCfg: retry.RetryConfig{
			MaxAttempts: 3,
			Backoff:     retry.ExponentialBackoff(200 * time.Millisecond),
			ShouldRetry: func(err error) bool { return errors.Is(err, errServer) },
		},
	}
	for _, o := range opts {
		o(&f)
	}
	return f
}

// FetchImage downloads the image at url. Server errors are retried.
func (f Fetcher) FetchImage(ctx context.Context, url string) (domain.Image, error) {
	const op = "Fetcher.FetchImage"

	img, err := retry.DoWithResult(ctx, f.retryCfg, func() (domain.Image, error) {
		return f.fetch(ctx, url)
	})
	if err != nil {
		return domain.Image{}, fmt.Errorf("%s: %w", op, err)
	}
	return img, nil
}

func (f Fetcher) fetch(ctx context.Context, url string) (domain.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Image{}, err
	}

	res, err := f.client.Do(req)
	if err != nil {
		return domain.Image{}, err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode >= http.StatusInternalServerError:
		return domain.Image{}, fmt.Errorf("%w: %s", errServer, res.Status)
	case res.StatusCode != http.StatusOK:
		return domain.Image{}, fmt.Errorf("unexpected status: %s", res.Status)
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, maxImageBytes+1))
	if err != nil {
		return domain.Image{}, err
	}
	if len(data) > maxImageBytes {
		return domain.Image{}, fmt.Errorf("%w: image exceeds %d bytes", domain.ErrInvalidImage, maxImageBytes)
	}

	img := domain.Image{Data: data, MIMEType: mediaType(res.Header.Get("Content-Type"), data)}
	if err := img.Validate(); err != nil {
		return domain.Image{}, err
	}
	return img, nil
}

func mediaType(contentType string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt != "application/octet-stream" {
		return mt
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}
