package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// maxResponseBytes caps catalog response bodies; the full product list is
// well under a megabyte.
const maxResponseBytes = 8 << 20

// productLimit asks the service for its whole catalog in one page.
const productLimit = 100

// Config holds catalog client settings.
type Config struct {
	// BaseURL of the catalog service, e.g. https://dummyjson.com.
	BaseURL string

	// Timeout for a single catalog request.
	Timeout time.Duration

	// SnapshotPath, when set, enables the compressed product snapshot used
	// as a fallback when the service is unreachable.
	SnapshotPath string
}

// Client fetches product records from the catalog service.
type Client struct {
	cfg   Config
	httpc *http.Client
	lg    *zap.Logger
}

// NewClient creates a catalog client. A nil transport uses the default; the
// app wires an instrumented one in.
func NewClient(cfg Config, transport http.RoundTripper, lg *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Client{
		cfg: cfg,
		httpc: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		lg: lg,
	}
}

// Products returns the full product list. On success the snapshot is
// refreshed; on failure the last good snapshot is served when available, so
// catalog outages degrade to stale data rather than an empty storefront.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	body, err := c.get(ctx, fmt.Sprintf("/products?limit=%d", productLimit))
	if err != nil {
		return c.productsFallback(err)
	}

	products, err := decodeProductList(body)
	if err != nil {
		return c.productsFallback(errors.Wrap(err, "decode products"))
	}

	if c.cfg.SnapshotPath != "" {
		if err := WriteSnapshot(c.cfg.SnapshotPath, products); err != nil {
			c.lg.Warn("catalog snapshot write failed", zap.Error(err))
		}
	}
	return products, nil
}

func (c *Client) productsFallback(cause error) ([]Product, error) {
	if c.cfg.SnapshotPath == "" {
		return nil, cause
	}
	products, err := readSnapshot(c.cfg.SnapshotPath)
	if err != nil {
		c.lg.Warn("catalog snapshot unavailable", zap.Error(err))
		return nil, cause
	}
	c.lg.Warn("catalog unreachable, serving snapshot",
		zap.Int("products", len(products)), zap.Error(cause))
	return products, nil
}

// Categories returns the category names. The service has shipped these both
// as plain strings and as objects carrying name/slug; both shapes decode.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/products/categories")
	if err != nil {
		return nil, err
	}

	categories, err := decodeCategories(body)
	if err != nil {
		return nil, errors.Wrap(err, "decode categories")
	}
	return categories, nil
}

// ProductByID returns a single product record, or ErrNotFound.
func (c *Client) ProductByID(ctx context.Context, id int64) (*Product, error) {
	body, err := c.get(ctx, fmt.Sprintf("/products/%d", id))
	if err != nil {
		if errors.Is(err, errNotFoundStatus) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	p, err := decodeProductBytes(body)
	if err != nil {
		return nil, errors.Wrapf(err, "decode product %d", id)
	}
	return p, nil
}

// errNotFoundStatus marks a 404 from the service before it is translated to
// the caller-facing ErrNotFound.
var errNotFoundStatus = errors.New("catalog returned 404")

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog request %s", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errNotFoundStatus
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("catalog request %s: unexpected status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.Wrapf(err, "read response %s", path)
	}
	return body, nil
}
