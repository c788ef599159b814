// Package review owns locally authored product reviews and the pure rules
// for merging them with catalog-seeded reviews.
//
// Two sources exist per product: reviews the user wrote here (persisted,
// newest first) and reviews seeded by the catalog service's product record
// (read-only, never persisted by this subsystem). They are only combined at
// read time via Merge, so the aggregation rule stays independent of storage.
package review

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/storage"
)

// recordKey is the storage key the local reviews record lives under. The
// record is a JSON object mapping product id to an array of reviews.
const recordKey = "userReviews"

// AnonymousReviewer is substituted for a blank reviewer name.
const AnonymousReviewer = "Anonymous"

// Review is a single product review.
type Review struct {
	Rating       int    `json:"rating"`
	Comment      string `json:"comment"`
	ReviewerName string `json:"reviewerName"`
	Date         string `json:"date"`
}

// Validation errors for submitted reviews.
var (
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrMissingComment = errors.New("comment is required")
)

// Aggregator owns the persisted local reviews.
type Aggregator struct {
	kv  storage.KV
	lg  *zap.Logger
	now func() time.Time
}

// NewAggregator creates an Aggregator persisting through kv.
func NewAggregator(kv storage.KV, lg *zap.Logger) *Aggregator {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Aggregator{kv: kv, lg: lg, now: time.Now}
}

// Get returns the locally authored reviews for a product, newest first.
// A product with no stored reviews yields an empty sequence.
func (a *Aggregator) Get(ctx context.Context, productID int64) []Review {
	all := a.load(ctx)
	return all[recordIndex(productID)]
}

// Add validates and stores a new review for a product, prepending it to the
// product's sequence. The submission date is assigned here and a blank
// reviewer name defaults to AnonymousReviewer. On validation failure nothing
// is stored. It returns the product's updated local sequence.
func (a *Aggregator) Add(ctx context.Context, productID int64, r Review) ([]Review, error) {
	if r.Rating < 1 || r.Rating > 5 {
		return nil, ErrInvalidRating
	}
	if strings.TrimSpace(r.Comment) == "" {
		return nil, ErrMissingComment
	}

	r.Date = a.now().Format("2006-01-02")
	if strings.TrimSpace(r.ReviewerName) == "" {
		r.ReviewerName = AnonymousReviewer
	}

	all := a.load(ctx)
	key := recordIndex(productID)
	all[key] = append([]Review{r}, all[key]...)

	raw, err := json.Marshal(all)
	if err != nil {
		return nil, errors.Wrap(err, "encode reviews")
	}
	if err := a.kv.Set(ctx, recordKey, raw); err != nil {
		return nil, err
	}
	return all[key], nil
}

// load reads the full reviews record. Missing or corrupt data resets to an
// empty map; the problem is logged and never surfaced.
func (a *Aggregator) load(ctx context.Context) map[string][]Review {
	raw, err := a.kv.Get(ctx, recordKey)
	if errors.Is(err, storage.ErrNotFound) {
		return map[string][]Review{}
	}
	if err != nil {
		a.lg.Warn("reviews record read failed, using empty set", zap.Error(err))
		return map[string][]Review{}
	}

	var all map[string][]Review
	if err := json.Unmarshal(raw, &all); err != nil || all == nil {
		a.lg.Warn("reviews record corrupt, resetting", zap.Error(err))
		return map[string][]Review{}
	}
	return all
}

// recordIndex is the JSON object key for a product's reviews. Kept as the
// decimal string form the original record format used.
func recordIndex(productID int64) string {
	return strconv.FormatInt(productID, 10)
}

// Merge combines catalog-seeded reviews with locally authored ones, seeded
// first, preserving each source's internal order. The seeded slice is
// borrowed, never mutated.
func Merge(seeded, local []Review) []Review {
	merged := make([]Review, 0, len(seeded)+len(local))
	merged = append(merged, seeded...)
	merged = append(merged, local...)
	return merged
}

// Average returns the arithmetic mean rating of the combined review set, or
// fallback when the set is empty. Callers typically pass the catalog's own
// product rating as the fallback.
func Average(reviews []Review, fallback float64) float64 {
	if len(reviews) == 0 {
		return fallback
	}

	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	return float64(total) / float64(len(reviews))
}
