// Command catalog-snapshot fetches the product catalog and writes the
// compressed snapshot the storefront serves when the catalog service is
// unreachable. Run it whenever a fresh offline copy is wanted.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/catalog"
)

func main() {
	var (
		baseURL string
		out     string
		timeout time.Duration
	)

	flag.StringVar(&baseURL, "catalog-url", "https://dummyjson.com", "catalog service base URL")
	flag.StringVar(&out, "out", "catalog-snapshot.json.gz", "snapshot output path")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "per-request timeout")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, baseURL, out, timeout); err != nil {
		slog.Error("snapshot failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("snapshot written", slog.String("path", out))
}

func run(ctx context.Context, baseURL, out string, timeout time.Duration) error {
	// No SnapshotPath on the client: this tool must fail loudly on fetch
	// errors instead of silently serving a stale snapshot back to itself.
	client := catalog.NewClient(catalog.Config{
		BaseURL: baseURL,
		Timeout: timeout,
	}, nil, nil)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		products, err := client.Products(gctx)
		if err != nil {
			return err
		}
		if err := catalog.WriteSnapshot(out, products); err != nil {
			return err
		}
		slog.Info("products fetched", slog.Int("count", len(products)))
		return nil
	})
	g.Go(func() error {
		categories, err := client.Categories(gctx)
		if err != nil {
			return err
		}
		slog.Info("categories fetched", slog.Int("count", len(categories)))
		return nil
	})

	return g.Wait()
}
