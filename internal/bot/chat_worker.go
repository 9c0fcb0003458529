package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// WorkerMessage is one unit of work for a chat worker.
type WorkerMessage struct {
	Type string
	Ctx  context.Context
	Done chan struct{} // closed once processed, for synchronous dispatch

	// Only one is set, depending on Type
	Message       *tgbotapi.Message
	CallbackQuery *tgbotapi.CallbackQuery
	QuickAlbum    *Batch[quickAlbumKey]
	ImagesBatch   *Batch[imagesKey]
}

const (
	msgTypeMessage     = "message"
	msgTypeCallback    = "callback"
	msgTypeQuickAlbum  = "quick_album"
	msgTypeImagesBatch = "images_batch"
)

// MessageHandler processes the messages of a chat worker.
type MessageHandler interface {
	HandleWorkerMessage(ctx context.Context, w *ChatWorker, msg WorkerMessage)
}

// ChatWorker processes the messages of one chat sequentially on a dedicated
// goroutine. Handlers run only on that goroutine.
type ChatWorker struct {
	chatID  int64
	inbox   chan WorkerMessage
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	handler MessageHandler
}

func newChatWorker(chatID int64, handler MessageHandler) *ChatWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &ChatWorker{
		chatID:  chatID,
		inbox:   make(chan WorkerMessage, 10),
		ctx:     ctx,
		cancel:  cancel,
		handler: handler,
	}
}

func (w *ChatWorker) ChatID() int64 {
	return w.chatID
}

// Context is cancelled when the worker stops. Timer deliveries use it since
// the update that started them is long gone.
func (w *ChatWorker) Context() context.Context {
	return w.ctx
}

func (w *ChatWorker) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *ChatWorker) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			for {
				select {
				case msg := <-w.inbox:
					if msg.Done != nil {
						close(msg.Done)
					}
				default:
					return
				}
			}
		case msg := <-w.inbox:
			w.process(msg)
		}
	}
}

func (w *ChatWorker) process(msg WorkerMessage) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Int64("chatId", w.chatID).
				Str("type", msg.Type).
				Interface("panic", r).
				Msg("recovered from panic in chat worker")
		}
		if msg.Done != nil {
			close(msg.Done)
		}
	}()

	if w.handler == nil {
		log.Error().Int64("chatId", w.chatID).Msg("chat worker handler not set")
		return
	}
	ctx := msg.Ctx
	if ctx == nil {
		ctx = w.ctx
	}
	w.handler.HandleWorkerMessage(ctx, w, msg)
}

// Send queues msg without waiting for it to be processed.
func (w *ChatWorker) Send(msg WorkerMessage) {
	if w.ctx.Err() != nil {
		if msg.Done != nil {
			close(msg.Done)
		}
		return
	}
	select {
	case w.inbox <- msg:
	case <-w.ctx.Done():
		if msg.Done != nil {
			close(msg.Done)
		}
	}
}

// SendSync queues msg and waits until it has been processed.
func (w *ChatWorker) SendSync(msg WorkerMessage) {
	msg.Done = make(chan struct{})
	w.Send(msg)
	<-msg.Done
}

// Stop stops the worker and waits for it to finish.
func (w *ChatWorker) Stop() {
	w.cancel()
	w.wg.Wait()
}
