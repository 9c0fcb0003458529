package bot

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// BotState owns the chat workers.
type BotState struct {
	handler MessageHandler
	mu      sync.Mutex
	workers map[int64]*ChatWorker
	stopped bool
}

func NewBotState(handler MessageHandler) *BotState {
	return &BotState{
		handler: handler,
		workers: make(map[int64]*ChatWorker),
	}
}

// getWorker returns the worker of chatID, starting one if needed. It
// returns nil after Shutdown.
func (bs *BotState) getWorker(chatID int64) *ChatWorker {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	if bs.stopped {
		return nil
	}
	if w, ok := bs.workers[chatID]; ok {
		return w
	}
	w := newChatWorker(chatID, bs.handler)
	w.Start()
	bs.workers[chatID] = w
	log.Debug().Int64("chatId", chatID).Msg("started chat worker")
	return w
}

// Shutdown stops all chat workers gracefully.
func (bs *BotState) Shutdown() {
	bs.mu.Lock()
	bs.stopped = true
	workers := make([]*ChatWorker, 0, len(bs.workers))
	for _, w := range bs.workers {
		workers = append(workers, w)
	}
	bs.workers = make(map[int64]*ChatWorker)
	bs.mu.Unlock()

	for _, w := range workers {
		w.Stop()
	}
	log.Info().Int("count", len(workers)).Msg("stopped all chat workers")
}
