package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/raine/telegram-room-bot/internal/intake"
	"github.com/raine/telegram-room-bot/internal/listing"
	"github.com/raine/telegram-room-bot/internal/metrics"
)

func (b *Bot) startQuick(chatID int64, cq *tgbotapi.CallbackQuery) {
	b.setSession(chatID, AwaitingQuickText{})
	b.editOrReply(chatID, callbackMessageID(cq), MsgSendAdText, nil)
}

// handleQuickText creates a listing from the ad text. The session goes Idle
// before the store is touched so a second text cannot create another one.
func (b *Bot) handleQuickText(ctx context.Context, chatID int64, m *tgbotapi.Message) {
	text := strings.TrimSpace(m.Text)
	if text == "" {
		b.reply(chatID, MsgSendSomeText)
		return
	}

	b.setSession(chatID, Idle{})
	origin := intake.Origin{ChatID: chatID, MessageID: m.MessageID, Sender: senderOf(m.From)}
	id, err := b.intake.CreateFromText(ctx, origin, text)
	if err != nil {
		b.setSession(chatID, AwaitingQuickText{})
		b.replyCreateError(chatID, err, MsgCouldNotSaveAd)
		return
	}

	b.send(chatID, MsgTextSaved, textSavedKeyboard(id))
}

func (b *Bot) replyCreateError(chatID int64, err error, generic string) {
	if errors.Is(err, intake.ErrDuplicatePost) || errors.Is(err, intake.ErrDuplicateTitle) {
		LogError(chatID, "duplicate: %v", err)
		b.reply(chatID, MsgDuplicatePost)
		return
	}
	log.Error().Err(err).Int64("chatId", chatID).Msg("failed to create listing")
	LogError(chatID, "%v", err)
	b.reply(chatID, generic)
}

// handleMedia routes an incoming photo or document by the session of the chat.
func (b *Bot) handleMedia(ctx context.Context, chatID int64, m *tgbotapi.Message, item listing.MediaItem) {
	switch s := b.sessions.Get(chatID).(type) {
	case AwaitingQuickText:
		if m.MediaGroupID != "" {
			b.quickAlbums.Add(m.MediaGroupID, chatID, quickAlbumKey{Sender: senderOf(m.From)}, item)
			return
		}
		b.createFromSingleMedia(ctx, chatID, m, item)
	case AwaitingImages:
		if m.MediaGroupID != "" {
			b.imageGroups.Add(m.MediaGroupID, chatID, imagesKey{ListingID: s.ListingID}, item)
			return
		}
		s.Pending = append(s.Pending, item)
		s.UploadedCount++
		b.postFreshCounter(chatID, s)
	case Idle, Guided:
		b.reply(chatID, MsgStartFromPost)
	default:
		log.Error().Int64("chatId", chatID).Str("kind", s.Kind().String()).Msg("unhandled session kind")
	}
}

func (b *Bot) createFromSingleMedia(ctx context.Context, chatID int64, m *tgbotapi.Message, item listing.MediaItem) {
	b.setSession(chatID, Idle{})
	origin := intake.Origin{ChatID: chatID, MessageID: m.MessageID, Sender: senderOf(m.From)}
	_, _, err := b.intake.CreateFromMedia(ctx, origin, m.Caption, []listing.MediaItem{item})
	if err != nil {
		b.setSession(chatID, AwaitingQuickText{})
		b.replyCreateError(chatID, err, MsgCouldNotSavePost)
		return
	}
	if item.Kind == listing.MediaDocument {
		b.reply(chatID, MsgSavedDocPost)
	} else {
		b.reply(chatID, MsgSavedPhotoPost)
	}
}

// handleQuickAlbum creates one listing from an album that was the first
// content of a quick post.
func (b *Bot) handleQuickAlbum(ctx context.Context, chatID int64, batch Batch[quickAlbumKey]) {
	if _, ok := b.sessions.Get(chatID).(AwaitingQuickText); !ok || len(batch.Items) == 0 {
		metrics.IncGroupBatch(bufferQuickAlbums, "discarded")
		log.Debug().Int64("chatId", chatID).Str("groupId", batch.GroupID).Msg("discarding stale quick album")
		return
	}

	b.setSession(chatID, Idle{})
	origin := intake.Origin{
		ChatID:    chatID,
		MessageID: batch.Items[0].SourceMessageID,
		Sender:    batch.Key.Sender,
	}
	_, res, err := b.intake.CreateFromMedia(ctx, origin, firstCaption(batch.Items), batch.Items)
	if err != nil {
		b.setSession(chatID, AwaitingQuickText{})
		b.replyCreateError(chatID, err, MsgCouldNotSavePost)
		return
	}
	if res.Failed > 0 {
		b.reply(chatID, MsgSavedAlbumFailed, res.Added, res.Failed)
		return
	}
	b.reply(chatID, MsgSavedAlbum, res.Added)
}

// handleImagesBatch appends an album to the pending items of the listing
// it was sent for.
func (b *Bot) handleImagesBatch(ctx context.Context, chatID int64, batch Batch[imagesKey]) {
	s, ok := b.sessions.Get(chatID).(AwaitingImages)
	if !ok || s.ListingID != batch.Key.ListingID {
		metrics.IncGroupBatch(bufferImageGroups, "discarded")
		log.Debug().Int64("chatId", chatID).Str("groupId", batch.GroupID).Msg("discarding stale image group")
		return
	}
	s.Pending = append(s.Pending, batch.Items...)
	s.UploadedCount += len(batch.Items)
	b.postFreshCounter(chatID, s)
}

// postFreshCounter replaces the control card with one showing the current
// count and stores the session with the new card.
func (b *Bot) postFreshCounter(chatID int64, s AwaitingImages) {
	oldID := s.ControlMsgID
	s.ControlMsgID = 0
	b.setSession(chatID, s)

	newID := b.replaceCard(chatID, oldID, formatReplyText(MsgAttachedCounter, s.UploadedCount), ptr(imagesKeyboard(s.ListingID)))

	// Only record the card if nothing moved the session on meanwhile.
	if cur, ok := b.sessions.Get(chatID).(AwaitingImages); ok && cur.ListingID == s.ListingID {
		cur.ControlMsgID = newID
		b.sessions.Set(chatID, cur)
	}
}

func (b *Bot) addPhotos(chatID int64, cq *tgbotapi.CallbackQuery, listingID string) {
	if _, ok := b.sessions.Get(chatID).(Idle); !ok || listingID == "" {
		log.Debug().Int64("chatId", chatID).Msg("ignoring stale add photos")
		return
	}
	b.setSession(chatID, AwaitingImages{ListingID: listingID})
	b.editOrReply(chatID, callbackMessageID(cq), MsgSelectPhotos, nil)
}

func (b *Bot) skipPhotos(chatID int64, cq *tgbotapi.CallbackQuery, listingID string) {
	if _, ok := b.sessions.Get(chatID).(Idle); !ok || listingID == "" {
		log.Debug().Int64("chatId", chatID).Msg("ignoring stale skip photos")
		return
	}
	b.editOrReply(chatID, callbackMessageID(cq), MsgPostReady, nil)
}

// imagesDone persists the pending items together with any album still
// waiting in the buffer.
func (b *Bot) imagesDone(ctx context.Context, chatID int64, listingID string) {
	s, ok := b.sessions.Get(chatID).(AwaitingImages)
	if !ok || s.ListingID != listingID {
		log.Debug().Int64("chatId", chatID).Msg("ignoring stale images done")
		return
	}

	items := append(s.Pending, b.imageGroups.FlushAllFor(chatID, imagesKey{ListingID: listingID})...)
	b.setSession(chatID, Idle{})

	res := b.intake.SaveMedia(ctx, listingID, items)
	b.deleteMessage(chatID, s.ControlMsgID)
	if res.Failed > 0 {
		b.reply(chatID, MsgImagesSavedMixed, res.Added, res.Failed)
		return
	}
	b.reply(chatID, MsgImagesSaved, res.Added)
}

func (b *Bot) imagesDiscard(chatID int64, listingID string) {
	s, ok := b.sessions.Get(chatID).(AwaitingImages)
	if !ok || s.ListingID != listingID {
		log.Debug().Int64("chatId", chatID).Msg("ignoring stale images discard")
		return
	}

	dropped := b.imageGroups.FlushAllFor(chatID, imagesKey{ListingID: listingID})
	b.setSession(chatID, Idle{})
	log.Info().Int64("chatId", chatID).Str("listingId", listingID).
		Int("pending", len(s.Pending)).Int("buffered", len(dropped)).Msg("discarded pending media")

	b.deleteMessage(chatID, s.ControlMsgID)
	b.reply(chatID, MsgContinuedNoPics)
}

func (b *Bot) imagesMore(chatID int64, listingID string) {
	s, ok := b.sessions.Get(chatID).(AwaitingImages)
	if !ok || s.ListingID != listingID {
		log.Debug().Int64("chatId", chatID).Msg("ignoring stale select more")
		return
	}
	s.ControlMsgID = b.editOrReply(chatID, s.ControlMsgID, formatReplyText(MsgSelectMore, s.UploadedCount), ptr(imagesKeyboard(listingID)))
	b.setSession(chatID, s)
}

func callbackMessageID(cq *tgbotapi.CallbackQuery) int {
	if cq == nil || cq.Message == nil {
		return 0
	}
	return cq.Message.MessageID
}

func ptr[T any](v T) *T {
	return &v
}
