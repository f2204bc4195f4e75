package harvest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/followharvest/models"
)

func TestCollectionState_Dedup(t *testing.T) {
	s := NewCollectionState()

	assert.True(t, s.Add(models.FollowerRecord{Handle: "alice"}))
	assert.False(t, s.Add(models.FollowerRecord{Handle: "alice"}))
	assert.False(t, s.Add(models.FollowerRecord{Handle: "ALICE"}))
	assert.False(t, s.Add(models.FollowerRecord{}))
	assert.True(t, s.Add(models.FollowerRecord{Handle: "bob"}))

	assert.Equal(t, 2, s.Len())
	assert.Len(t, s.Records(1), 1)
	assert.Len(t, s.Records(10), 2)
}

func TestCollectionState_StallBound(t *testing.T) {
	s := NewCollectionState()
	for i := 0; i < MaxStalls-1; i++ {
		assert.False(t, s.ObserveHeight(100, 100, true))
	}
	assert.False(t, s.Exhausted())

	assert.True(t, s.ObserveHeight(100, 200, true), "growth resets the counter")
	assert.Zero(t, s.NoGrowthAttempts)
	assert.Equal(t, 200.0, s.LastPageHeight)

	s.ObserveHeight(200, 200, true)
	assert.True(t, s.ObserveHeight(1000, 800, true), "shrinking resets the counter")
	assert.Zero(t, s.NoGrowthAttempts)
	assert.Equal(t, 800.0, s.LastPageHeight)

	for i := 0; i < MaxStalls; i++ {
		s.ObserveHeight(0, 500, false)
	}
	assert.True(t, s.Exhausted(), "unmeasurable iterations count as stalls")
}

func TestCollect_TruncatesToMax(t *testing.T) {
	page := newFakePage().withListing(200, 20)

	records, err := Collect(context.Background(), page, testConfig(), 50, &recordingEvents{})
	require.NoError(t, err)

	require.Len(t, records, 50)
	assert.Equal(t, "user0", records[0].Handle)
	assert.Equal(t, "user49", records[49].Handle)
	assert.Equal(t, 2, page.scrolls)
}

func TestCollect_NoDuplicatesAcrossScrolls(t *testing.T) {
	page := newFakePage().withListing(60, 7)

	records, err := Collect(context.Background(), page, testConfig(), 60, &recordingEvents{})
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, r := range records {
		key := strings.ToLower(r.Handle)
		assert.False(t, seen[key], "duplicate %s", r.Handle)
		seen[key] = true
	}
	assert.Len(t, records, 60)
}

func TestCollect_ExtractsBeforeScrolling(t *testing.T) {
	page := newFakePage().withListing(20, 20)

	records, err := Collect(context.Background(), page, testConfig(), 20, &recordingEvents{})
	require.NoError(t, err)

	assert.Len(t, records, 20)
	assert.Zero(t, page.scrolls)
}

func TestCollect_StopsAfterMaxStalls(t *testing.T) {
	page := newFakePage().withListing(5, 5)
	ev := &recordingEvents{}

	records, err := Collect(context.Background(), page, testConfig(), 100, ev)
	require.NoError(t, err)

	assert.Len(t, records, 5)
	assert.Equal(t, MaxStalls, page.scrolls)
	assert.Equal(t, MaxStalls, ev.stalls)
}

func TestCollect_MeasurementErrorsTerminate(t *testing.T) {
	page := newFakePage().withListing(500, 1)
	page.measureFn = func(int) (float64, error) { return 0, errors.New("eval failed") }

	records, err := Collect(context.Background(), page, testConfig(), 1000, &recordingEvents{})
	require.NoError(t, err)

	assert.Equal(t, MaxStalls, page.scrolls)
	assert.Len(t, records, MaxStalls)
}

func TestCollect_EmptyListing(t *testing.T) {
	page := newFakePage()

	records, err := Collect(context.Background(), page, testConfig(), 10, &recordingEvents{})
	require.NoError(t, err)

	assert.Empty(t, records)
	assert.Equal(t, MaxStalls, page.scrolls)
}

func TestCollect_ContextCancelledReturnsPartial(t *testing.T) {
	page := newFakePage().withListing(100, 10)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	page.measureFn = func(int) (float64, error) {
		calls++
		if calls == 4 {
			cancel()
		}
		return float64(calls), nil
	}

	records, err := Collect(ctx, page, testConfig(), 100, &recordingEvents{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, records, 20)
}
