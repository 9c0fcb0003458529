package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raine/telegram-room-bot/internal/listing"
)

func photo(uid string) listing.MediaItem {
	return listing.MediaItem{Kind: listing.MediaPhoto, FileID: "file-" + uid, FileUniqueID: uid}
}

func newTestBuffer(quiet time.Duration) (*GroupBuffer[string], chan Batch[string]) {
	deliveries := make(chan Batch[string], 10)
	gb := NewGroupBuffer("test", quiet, func(b Batch[string]) { deliveries <- b })
	return gb, deliveries
}

func TestGroupBuffer_StaggeredItemsDeliveredOnce(t *testing.T) {
	quiet := 150 * time.Millisecond
	gb, deliveries := newTestBuffer(quiet)
	defer gb.Stop()

	start := time.Now()
	gb.Add("g1", 5, "key", photo("a"))
	time.Sleep(quiet / 3)
	gb.Add("g1", 5, "key", photo("b"))
	time.Sleep(quiet / 3)
	gb.Add("g1", 5, "key", photo("c"))

	select {
	case <-deliveries:
		t.Fatal("delivered before the group went quiet")
	default:
	}

	select {
	case batch := <-deliveries:
		assert.GreaterOrEqual(t, time.Since(start), quiet+2*quiet/3-10*time.Millisecond)
		assert.Equal(t, "g1", batch.GroupID)
		assert.Equal(t, int64(5), batch.ChatID)
		assert.Equal(t, "key", batch.Key)
		require.Len(t, batch.Items, 3)
		assert.Equal(t, "a", batch.Items[0].FileUniqueID)
		assert.Equal(t, "c", batch.Items[2].FileUniqueID)
	case <-time.After(2 * time.Second):
		t.Fatal("group was never delivered")
	}

	select {
	case <-deliveries:
		t.Fatal("group delivered twice")
	case <-time.After(2 * quiet):
	}
	assert.Zero(t, gb.Len())
}

func TestGroupBuffer_FlushPreventsDelivery(t *testing.T) {
	quiet := 50 * time.Millisecond
	gb, deliveries := newTestBuffer(quiet)
	defer gb.Stop()

	gb.Add("g1", 5, "key", photo("a"))
	gb.Add("g1", 5, "key", photo("b"))

	batch, ok := gb.Flush("g1")
	require.True(t, ok)
	assert.Len(t, batch.Items, 2)

	_, ok = gb.Flush("g1")
	assert.False(t, ok, "a group is handed out once")

	select {
	case <-deliveries:
		t.Fatal("flushed group was also delivered by its timer")
	case <-time.After(3 * quiet):
	}
}

func TestGroupBuffer_FlushAllForMatchesChatAndKey(t *testing.T) {
	gb, deliveries := newTestBuffer(time.Hour)
	defer gb.Stop()

	gb.Add("first", 5, "listing-1", photo("a"))
	gb.Add("other-key", 5, "listing-2", photo("x"))
	gb.Add("other-chat", 6, "listing-1", photo("y"))
	gb.Add("second", 5, "listing-1", photo("b"))
	gb.Add("first", 5, "listing-1", photo("a2"))

	items := gb.FlushAllFor(5, "listing-1")
	var ids []string
	for _, it := range items {
		ids = append(ids, it.FileUniqueID)
	}
	assert.Equal(t, []string{"a", "a2", "b"}, ids, "groups come out in arrival order")
	assert.Equal(t, 2, gb.Len())
	assert.Empty(t, gb.FlushAllFor(5, "listing-1"))
	assert.Empty(t, deliveries)
}

func TestGroupBuffer_NewBucketAfterDelivery(t *testing.T) {
	quiet := 30 * time.Millisecond
	gb, deliveries := newTestBuffer(quiet)
	defer gb.Stop()

	gb.Add("g1", 5, "key", photo("a"))
	first := <-deliveries
	assert.Len(t, first.Items, 1)

	// A late item of the same group starts a fresh bucket.
	gb.Add("g1", 5, "key", photo("late"))
	second := <-deliveries
	require.Len(t, second.Items, 1)
	assert.Equal(t, "late", second.Items[0].FileUniqueID)
	assert.Equal(t, "a", first.Items[0].FileUniqueID, "delivered batch is not touched by later adds")
}

func TestGroupBuffer_StopCancelsPending(t *testing.T) {
	quiet := 30 * time.Millisecond
	gb, deliveries := newTestBuffer(quiet)

	gb.Add("g1", 5, "key", photo("a"))
	gb.Stop()

	select {
	case <-deliveries:
		t.Fatal("stopped buffer delivered")
	case <-time.After(3 * quiet):
	}
	assert.Zero(t, gb.Len())
}
