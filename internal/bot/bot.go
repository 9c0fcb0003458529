package bot

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/raine/telegram-room-bot/internal/intake"
	"github.com/raine/telegram-room-bot/internal/listing"
)

// Intake is the listing intake service used by the flows.
type Intake interface {
	CreateFromText(ctx context.Context, origin intake.Origin, text string) (string, error)
	CreateFromMedia(ctx context.Context, origin intake.Origin, caption string, items []listing.MediaItem) (string, intake.SaveResult, error)
	CreateFromGuided(ctx context.Context, chatID int64, sender intake.Sender, d listing.Draft) (string, error)
	SaveMedia(ctx context.Context, listingID string, items []listing.MediaItem) intake.SaveResult
	RecentDrafts(ctx context.Context, tgUserID int64, limit int) ([]listing.Listing, error)
	ListingWithMedia(ctx context.Context, id string) (*listing.ListingWithMedia, error)
}

// quickAlbumKey correlates an album sent as the first content of a quick post.
type quickAlbumKey struct {
	Sender intake.Sender
}

// imagesKey correlates an album sent while attaching photos to a listing.
type imagesKey struct {
	ListingID string
}

const (
	bufferQuickAlbums = "quick_albums"
	bufferImageGroups = "image_groups"
)

type Options struct {
	QuietPeriod       time.Duration
	RecentDraftsLimit int
	SendRate          float64
	SendBurst         int
}

// Bot is the main Telegram bot handler.
type Bot struct {
	tg          *Messenger
	state       *BotState
	sessions    *SessionRegistry
	intake      Intake
	quickAlbums *GroupBuffer[quickAlbumKey]
	imageGroups *GroupBuffer[imagesKey]
	recentLimit int
}

// NewBot creates a new Bot instance.
func NewBot(api BotAPI, svc Intake, opts Options) *Bot {
	if opts.QuietPeriod <= 0 {
		opts.QuietPeriod = 1500 * time.Millisecond
	}
	if opts.RecentDraftsLimit <= 0 {
		opts.RecentDraftsLimit = 5
	}

	b := &Bot{
		tg:          NewMessenger(api, opts.SendRate, opts.SendBurst),
		sessions:    NewSessionRegistry(),
		intake:      svc,
		recentLimit: opts.RecentDraftsLimit,
	}
	b.state = NewBotState(b)
	b.quickAlbums = NewGroupBuffer(bufferQuickAlbums, opts.QuietPeriod, func(batch Batch[quickAlbumKey]) {
		b.post(batch.ChatID, WorkerMessage{Type: msgTypeQuickAlbum, QuickAlbum: &batch})
	})
	b.imageGroups = NewGroupBuffer(bufferImageGroups, opts.QuietPeriod, func(batch Batch[imagesKey]) {
		b.post(batch.ChatID, WorkerMessage{Type: msgTypeImagesBatch, ImagesBatch: &batch})
	})
	return b
}

// post hands a buffer delivery to the chat worker.
func (b *Bot) post(chatID int64, msg WorkerMessage) {
	w := b.state.getWorker(chatID)
	if w == nil {
		log.Debug().Int64("chatId", chatID).Str("type", msg.Type).Msg("dropping delivery after shutdown")
		return
	}
	msg.Ctx = w.Context()
	w.Send(msg)
}

// HandleUpdate routes an update to the worker of its chat.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, false)
}

// handleUpdateSync is like HandleUpdate but waits for processing to complete.
func (b *Bot) handleUpdateSync(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, true)
}

func (b *Bot) dispatchUpdate(ctx context.Context, update tgbotapi.Update, sync bool) {
	var msg WorkerMessage
	var chatID int64

	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		if cq.Message != nil && cq.Message.Chat != nil {
			chatID = cq.Message.Chat.ID
		} else if cq.From != nil {
			chatID = cq.From.ID
		}
		msg = WorkerMessage{Type: msgTypeCallback, Ctx: ctx, CallbackQuery: cq}
	case update.Message != nil:
		m := update.Message
		if m.Chat != nil {
			chatID = m.Chat.ID
		} else if m.From != nil {
			chatID = m.From.ID
		}
		msg = WorkerMessage{Type: msgTypeMessage, Ctx: ctx, Message: m}
	default:
		return
	}
	if chatID == 0 {
		return
	}

	w := b.state.getWorker(chatID)
	if w == nil {
		return
	}
	if sync {
		w.SendSync(msg)
	} else {
		w.Send(msg)
	}
}

// HandleWorkerMessage implements MessageHandler. It runs on the worker of
// the chat, one message at a time.
func (b *Bot) HandleWorkerMessage(ctx context.Context, w *ChatWorker, msg WorkerMessage) {
	chatID := w.ChatID()
	switch msg.Type {
	case msgTypeMessage:
		b.handleMessage(ctx, chatID, msg.Message)
	case msgTypeCallback:
		b.handleCallbackQuery(ctx, chatID, msg.CallbackQuery)
	case msgTypeQuickAlbum:
		b.handleQuickAlbum(ctx, chatID, *msg.QuickAlbum)
	case msgTypeImagesBatch:
		b.handleImagesBatch(ctx, chatID, *msg.ImagesBatch)
	default:
		log.Error().Int64("chatId", chatID).Str("type", msg.Type).Msg("unknown worker message type")
	}
}

func (b *Bot) handleMessage(ctx context.Context, chatID int64, m *tgbotapi.Message) {
	log.Info().Int64("chatId", chatID).Str("text", m.Text).Str("caption", m.Caption).Msg("got message")

	if m.IsCommand() {
		LogUser(chatID, "/%s", m.Command())
		b.handleCommand(ctx, chatID, m)
		return
	}

	if item, ok := mediaItemFromMessage(m); ok {
		LogUser(chatID, "%s %s (group %q)", item.Kind, item.FileUniqueID, m.MediaGroupID)
		b.handleMedia(ctx, chatID, m, item)
		return
	}

	if m.Text == "" {
		return
	}
	LogUser(chatID, "%s", m.Text)

	if b.handleMenuLabel(ctx, chatID, m) {
		return
	}
	b.handleText(ctx, chatID, m)
}

// handleText routes free text by the session of the chat.
func (b *Bot) handleText(ctx context.Context, chatID int64, m *tgbotapi.Message) {
	switch s := b.sessions.Get(chatID).(type) {
	case AwaitingQuickText:
		b.handleQuickText(ctx, chatID, m)
	case Guided:
		b.handleGuidedText(ctx, chatID, s, m)
	case AwaitingImages, Idle:
		b.reply(chatID, MsgHeadsUp)
	default:
		log.Error().Int64("chatId", chatID).Str("kind", s.Kind().String()).Msg("unhandled session kind")
	}
}

func (b *Bot) handleCallbackQuery(ctx context.Context, chatID int64, cq *tgbotapi.CallbackQuery) {
	bestEffort("answerCallback", b.tg.AnswerCallback(cq.ID))
	LogCallback(chatID, "%s", cq.Data)

	data := cq.Data
	switch {
	case data == cbPostQuick:
		b.startQuick(chatID, cq)
	case data == cbPostGuided:
		b.startGuided(chatID)
	case strings.HasPrefix(data, cbAddPhotos):
		b.addPhotos(chatID, cq, strings.TrimPrefix(data, cbAddPhotos))
	case strings.HasPrefix(data, cbSkipPhotos):
		b.skipPhotos(chatID, cq, strings.TrimPrefix(data, cbSkipPhotos))
	case strings.HasPrefix(data, cbImagesDone):
		b.imagesDone(ctx, chatID, strings.TrimPrefix(data, cbImagesDone))
	case strings.HasPrefix(data, cbImagesDiscard):
		b.imagesDiscard(chatID, strings.TrimPrefix(data, cbImagesDiscard))
	case strings.HasPrefix(data, cbImagesMore):
		b.imagesMore(chatID, strings.TrimPrefix(data, cbImagesMore))
	case strings.HasPrefix(data, cbGuidedPrefix):
		b.handleGuidedCallback(ctx, chatID, cq, strings.TrimPrefix(data, cbGuidedPrefix))
	default:
		log.Debug().Int64("chatId", chatID).Str("data", data).Msg("unknown callback data")
	}
}

// Shutdown stops the buffers and the chat workers.
func (b *Bot) Shutdown() {
	b.quickAlbums.Stop()
	b.imageGroups.Stop()
	b.state.Shutdown()
}

// setSession writes the next session of a chat and records the transition.
func (b *Bot) setSession(chatID int64, s Session) {
	b.sessions.Set(chatID, s)
	LogState(chatID, "%s", describeSession(s))
}

func describeSession(s Session) string {
	switch v := s.(type) {
	case AwaitingImages:
		return v.Kind().String() + " listing=" + v.ListingID
	case Guided:
		return v.Kind().String() + " step=" + v.Step.String()
	default:
		return s.Kind().String()
	}
}

func senderOf(u *tgbotapi.User) intake.Sender {
	if u == nil {
		return intake.Sender{}
	}
	return intake.Sender{
		UserID:      u.ID,
		Username:    u.UserName,
		DisplayName: strings.TrimSpace(u.FirstName + " " + u.LastName),
	}
}

// reply sends an HTML message with no keyboard.
func (b *Bot) reply(chatID int64, text string, a ...any) tgbotapi.Message {
	return b.send(chatID, formatReplyText(text, a...), nil)
}

func (b *Bot) send(chatID int64, text string, markup any) tgbotapi.Message {
	sent, err := b.tg.SendHTML(chatID, text, markup)
	if err != nil {
		log.Error().Err(err).Int64("chatId", chatID).Msg("failed to send reply message")
		return sent
	}
	LogBot(chatID, "%s", text)
	return sent
}

// editOrReply edits the message in place, or sends a new one if editing
// fails. It returns the id of the message now showing the text.
func (b *Bot) editOrReply(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) int {
	if messageID != 0 {
		err := b.tg.EditHTML(chatID, messageID, text, markup)
		if err == nil || isNotModified(err) {
			LogBot(chatID, "(edit) %s", text)
			return messageID
		}
		bestEffort("editMessage", err)
	}
	var rm any
	if markup != nil {
		rm = *markup
	}
	return b.send(chatID, text, rm).MessageID
}

// replaceCard deletes the old control message and sends a new one.
func (b *Bot) replaceCard(chatID int64, oldID int, text string, markup *tgbotapi.InlineKeyboardMarkup) int {
	b.deleteMessage(chatID, oldID)
	var rm any
	if markup != nil {
		rm = *markup
	}
	return b.send(chatID, text, rm).MessageID
}

func (b *Bot) deleteMessage(chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	bestEffort("deleteMessage", b.tg.Delete(chatID, messageID))
}
