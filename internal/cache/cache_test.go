package cache_test

import (
	"testing"
	"time"

	"github.com/milotrack/milo-price-tracker/internal/cache"
	"github.com/milotrack/milo-price-tracker/internal/platform/models"
	"github.com/milotrack/milo-price-tracker/internal/platform/models/modelstesting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitSnapshotCacheEmpty(t *testing.T) {
	snapshots := cache.New()

	_, ok := snapshots.Get(time.Hour)
	assert.False(t, ok, "empty cache should not return a snapshot")

	_, ok = snapshots.Latest()
	assert.False(t, ok, "empty cache should not return a latest snapshot")

	_, ok = snapshots.Age()
	assert.False(t, ok, "empty cache should not return an age")
}

func TestUnitSnapshotCacheGet(t *testing.T) {
	now := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	snapshots := cache.New(cache.WithNow(func() time.Time { return now }))

	want := modelstesting.FakeSnapshot()
	snapshots.Set(want)

	got, ok := snapshots.Get(time.Hour)
	require.True(t, ok, "fresh snapshot should be returned")
	assert.Equal(t, want, got, "should return the stored snapshot")

	age, ok := snapshots.Age()
	require.True(t, ok, "age should be known")
	assert.Zero(t, age, "snapshot was just stored")
}

func TestUnitSnapshotCacheStale(t *testing.T) {
	now := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	snapshots := cache.New(cache.WithNow(func() time.Time { return now }))

	want := modelstesting.FakeSnapshot()
	snapshots.Set(want)
	now = now.Add(2 * time.Hour)

	_, ok := snapshots.Get(time.Hour)
	assert.False(t, ok, "stale snapshot should not be returned by Get")

	got, ok := snapshots.Latest()
	require.True(t, ok, "stale snapshot should still be returned by Latest")
	assert.Equal(t, want, got, "should return the stored snapshot")

	age, ok := snapshots.Age()
	require.True(t, ok, "age should be known")
	assert.Equal(t, 2*time.Hour, age, "should report the snapshot age")
}

func TestUnitSnapshotCacheSetReplaces(t *testing.T) {
	snapshots := cache.New()

	first := modelstesting.FakeSnapshot()
	second := modelstesting.FakeSnapshot(func(s *models.Snapshot) {
		s.Rejections = first.Rejections + 1
	})

	snapshots.Set(first)
	snapshots.Set(second)

	got, ok := snapshots.Latest()
	require.True(t, ok, "snapshot should be stored")
	assert.Equal(t, second, got, "later Set should win")
}
