package bot

import (
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/raine/telegram-room-bot/internal/listing"
	"github.com/raine/telegram-room-bot/internal/metrics"
)

// Batch is the content of one Telegram media group once it went quiet or
// was flushed.
type Batch[K comparable] struct {
	GroupID string
	ChatID  int64
	Key     K
	Items   []listing.MediaItem
}

type bucket[K comparable] struct {
	seq      uint64
	chatID   int64
	key      K
	items    []listing.MediaItem
	debounce *Debouncer
}

// GroupBuffer collects media items by media group id and delivers each group
// once no new item arrived for the quiet period. A group is delivered at
// most once, either by the timer or by a flush.
type GroupBuffer[K comparable] struct {
	name    string
	quiet   time.Duration
	deliver func(Batch[K])

	mu      sync.Mutex
	buckets map[string]*bucket[K]
	seq     uint64
}

func NewGroupBuffer[K comparable](name string, quiet time.Duration, deliver func(Batch[K])) *GroupBuffer[K] {
	return &GroupBuffer[K]{
		name:    name,
		quiet:   quiet,
		deliver: deliver,
		buckets: make(map[string]*bucket[K]),
	}
}

// Add appends item to the group and restarts its quiet period. The chat and
// key of the first item of a group win.
func (g *GroupBuffer[K]) Add(groupID string, chatID int64, key K, item listing.MediaItem) {
	g.mu.Lock()
	defer g.mu.Unlock()

	b, ok := g.buckets[groupID]
	if !ok {
		g.seq++
		b = &bucket[K]{seq: g.seq, chatID: chatID, key: key}
		b.debounce = NewDebouncer(g.quiet, func() { g.fire(groupID, b) })
		g.buckets[groupID] = b
	}
	b.items = append(b.items, item)
	b.debounce.Reset()
	log.Debug().Str("buffer", g.name).Str("groupId", groupID).Int("items", len(b.items)).Msg("buffered media item")
}

func (g *GroupBuffer[K]) fire(groupID string, b *bucket[K]) {
	g.mu.Lock()
	if g.buckets[groupID] != b {
		g.mu.Unlock()
		return
	}
	delete(g.buckets, groupID)
	batch := Batch[K]{GroupID: groupID, ChatID: b.chatID, Key: b.key, Items: slices.Clone(b.items)}
	g.mu.Unlock()

	metrics.IncGroupBatch(g.name, "delivered")
	g.deliver(batch)
}

// Flush removes a group without delivering it and returns its content.
func (g *GroupBuffer[K]) Flush(groupID string) (Batch[K], bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.buckets[groupID]
	if !ok {
		return Batch[K]{}, false
	}
	g.take(groupID, b)
	return Batch[K]{GroupID: groupID, ChatID: b.chatID, Key: b.key, Items: b.items}, true
}

// FlushAllFor removes every group of chatID with the given key and returns
// their items in group arrival order.
func (g *GroupBuffer[K]) FlushAllFor(chatID int64, key K) []listing.MediaItem {
	g.mu.Lock()
	defer g.mu.Unlock()

	var matched []*bucket[K]
	for id, b := range g.buckets {
		if b.chatID == chatID && b.key == key {
			g.take(id, b)
			matched = append(matched, b)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })

	var items []listing.MediaItem
	for _, b := range matched {
		items = append(items, b.items...)
	}
	return items
}

// take must be called with g.mu held.
func (g *GroupBuffer[K]) take(groupID string, b *bucket[K]) {
	b.debounce.Cancel()
	delete(g.buckets, groupID)
	metrics.IncGroupBatch(g.name, "flushed")
}

func (g *GroupBuffer[K]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.buckets)
}

// Stop cancels every pending group.
func (g *GroupBuffer[K]) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, b := range g.buckets {
		b.debounce.Cancel()
		delete(g.buckets, id)
	}
}
