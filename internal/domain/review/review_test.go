package review

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/storage"
	"github.com/xenking/storefront/internal/storage/memory"
)

type failingKV struct {
	storage.KV
}

func (f *failingKV) Set(_ context.Context, key string, _ []byte) error {
	return &storage.WriteError{Key: key, Err: errors.New("disk full")}
}

func newTestAggregator() (*Aggregator, *memory.Store) {
	kv := memory.New()
	a := NewAggregator(kv, nil)
	a.now = func() time.Time {
		return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	}
	return a, kv
}

func TestGet_NoStoredReviews(t *testing.T) {
	a, _ := newTestAggregator()
	assert.Empty(t, a.Get(context.Background(), 42))
}

func TestAdd_RejectsInvalidRating(t *testing.T) {
	a, _ := newTestAggregator()

	for _, rating := range []int{0, -1, 6} {
		_, err := a.Add(context.Background(), 1, Review{Rating: rating, Comment: "fine"})
		require.ErrorIs(t, err, ErrInvalidRating, "rating %d", rating)
	}

	assert.Empty(t, a.Get(context.Background(), 1), "rejected reviews must not be stored")
}

func TestAdd_RejectsBlankComment(t *testing.T) {
	a, _ := newTestAggregator()

	for _, comment := range []string{"", "   ", "\t\n"} {
		_, err := a.Add(context.Background(), 1, Review{Rating: 5, Comment: comment})
		require.ErrorIs(t, err, ErrMissingComment)
	}

	assert.Empty(t, a.Get(context.Background(), 1))
}

func TestAdd_AssignsDateAndDefaultsReviewer(t *testing.T) {
	a, _ := newTestAggregator()

	stored, err := a.Add(context.Background(), 1, Review{Rating: 4, Comment: "solid"})
	require.NoError(t, err)

	require.Len(t, stored, 1)
	assert.Equal(t, "2026-03-14", stored[0].Date)
	assert.Equal(t, AnonymousReviewer, stored[0].ReviewerName)
}

func TestAdd_PrependsNewestFirst(t *testing.T) {
	a, _ := newTestAggregator()

	_, err := a.Add(context.Background(), 1, Review{Rating: 3, Comment: "first", ReviewerName: "Ada"})
	require.NoError(t, err)
	stored, err := a.Add(context.Background(), 1, Review{Rating: 5, Comment: "second", ReviewerName: "Grace"})
	require.NoError(t, err)

	require.Len(t, stored, 2)
	assert.Equal(t, "second", stored[0].Comment)
	assert.Equal(t, "first", stored[1].Comment)
}

func TestAdd_IsolatesProducts(t *testing.T) {
	a, _ := newTestAggregator()

	_, err := a.Add(context.Background(), 1, Review{Rating: 5, Comment: "for one"})
	require.NoError(t, err)
	_, err = a.Add(context.Background(), 2, Review{Rating: 2, Comment: "for two"})
	require.NoError(t, err)

	assert.Len(t, a.Get(context.Background(), 1), 1)
	assert.Len(t, a.Get(context.Background(), 2), 1)
	assert.Empty(t, a.Get(context.Background(), 3))
}

func TestGet_CorruptRecord(t *testing.T) {
	a, kv := newTestAggregator()
	require.NoError(t, kv.Set(context.Background(), "userReviews", []byte(`[1,2,3]`)))

	assert.Empty(t, a.Get(context.Background(), 1))

	// The corrupt record resets; writes work again afterwards.
	stored, err := a.Add(context.Background(), 1, Review{Rating: 5, Comment: "recovered"})
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestAdd_WriteFailure(t *testing.T) {
	a := NewAggregator(&failingKV{KV: memory.New()}, nil)

	_, err := a.Add(context.Background(), 1, Review{Rating: 5, Comment: "nope"})

	var writeErr *storage.WriteError
	require.ErrorAs(t, err, &writeErr)
}

func TestMerge(t *testing.T) {
	seeded := []Review{{Rating: 5, Comment: "seeded"}}
	local := []Review{{Rating: 3, Comment: "local"}}

	merged := Merge(seeded, local)

	require.Len(t, merged, 2)
	assert.Equal(t, "seeded", merged[0].Comment)
	assert.Equal(t, "local", merged[1].Comment)

	assert.Empty(t, Merge(nil, nil))
}

func TestAverage(t *testing.T) {
	assert.InDelta(t, 4.2, Average(nil, 4.2), 1e-9)
	assert.InDelta(t, 4.2, Average([]Review{}, 4.2), 1e-9)

	reviews := []Review{{Rating: 5}, {Rating: 3}}
	assert.InDelta(t, 4.0, Average(reviews, 99), 1e-9)

	assert.InDelta(t, 0, Average(nil, 0), 1e-9)
}
