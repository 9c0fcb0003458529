package bot

import (
	"context"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/raine/telegram-room-bot/internal/listing"
)

// Telegram limits.
const (
	maxCaptionLength = 1024
	maxMediaGroup    = 10
)

func (b *Bot) handleCommand(ctx context.Context, chatID int64, m *tgbotapi.Message) {
	switch m.Command() {
	case "start":
		b.showStart(chatID)
	case "browse":
		b.reply(chatID, MsgBrowse)
	case "post":
		b.showPostChooser(chatID)
	case "myads":
		b.showMyAds(ctx, chatID, m.From)
	case "wishlist":
		b.reply(chatID, MsgWishlist)
	case "boosted":
		b.reply(chatID, MsgBoosted)
	case "credits":
		b.reply(chatID, MsgCredits)
	case "support":
		b.reply(chatID, MsgSupport)
	default:
		log.Debug().Int64("chatId", chatID).Str("command", m.Command()).Msg("unknown command")
	}
}

// handleMenuLabel reacts to the root menu buttons and reports whether text
// was one of them.
func (b *Bot) handleMenuLabel(ctx context.Context, chatID int64, m *tgbotapi.Message) bool {
	switch strings.TrimSpace(m.Text) {
	case MenuBrowse:
		b.reply(chatID, MsgBrowse)
	case MenuPost:
		b.showPostChooser(chatID)
	case MenuMyAds:
		b.showMyAds(ctx, chatID, m.From)
	case MenuWishlist:
		b.reply(chatID, MsgWishlist)
	case MenuBoosted:
		b.reply(chatID, MsgBoosted)
	case MenuCredits:
		b.reply(chatID, MsgCredits)
	case MenuSupport:
		b.reply(chatID, MsgSupport)
	default:
		return false
	}
	return true
}

// showStart resets the chat and shows the root menu.
func (b *Bot) showStart(chatID int64) {
	b.deleteMessage(chatID, controlMessageOf(b.sessions.Get(chatID)))
	b.setSession(chatID, Idle{})
	b.send(chatID, formatReplyText(MsgWelcome), mainMenuKeyboard())
}

func (b *Bot) showPostChooser(chatID int64) {
	b.send(chatID, formatReplyText(MsgPostChooser), postChooserKeyboard())
}

// showMyAds sends the most recent listings of the user, each as a caption
// card or as media groups carrying the card.
func (b *Bot) showMyAds(ctx context.Context, chatID int64, from *tgbotapi.User) {
	if from == nil {
		return
	}
	rows, err := b.intake.RecentDrafts(ctx, from.ID, b.recentLimit)
	if err != nil {
		log.Error().Err(err).Int64("chatId", chatID).Msg("failed to list recent drafts")
		b.reply(chatID, MsgMyAdsErr)
		return
	}
	if len(rows) == 0 {
		b.reply(chatID, MsgNoAds)
		return
	}

	for _, l := range rows {
		full, err := b.intake.ListingWithMedia(ctx, l.ID)
		if err != nil {
			log.Warn().Err(err).Str("listingId", l.ID).Msg("failed to load listing media")
			continue
		}
		if len(full.Media) == 0 {
			b.send(chatID, listingCaption(full, 0), nil)
			continue
		}
		b.sendListingMedia(chatID, full)
	}
}

// sendListingMedia sends photos and documents as separate groups of at
// most ten. The caption goes on the first item sent.
func (b *Bot) sendListingMedia(chatID int64, l *listing.ListingWithMedia) {
	caption := listingCaption(l, maxCaptionLength)

	var photos, docs []listing.Media
	for _, m := range l.Media {
		if m.Kind == listing.MediaDocument {
			docs = append(docs, m)
		} else {
			photos = append(photos, m)
		}
	}

	for _, group := range [][]listing.Media{photos, docs} {
		for start := 0; start < len(group); start += maxMediaGroup {
			chunk := group[start:min(start+maxMediaGroup, len(group))]
			b.sendMediaChunk(chatID, chunk, caption)
			caption = ""
		}
	}
}

func (b *Bot) sendMediaChunk(chatID int64, chunk []listing.Media, caption string) {
	if len(chunk) == 1 {
		m := chunk[0]
		var msg tgbotapi.Chattable
		if m.Kind == listing.MediaDocument {
			doc := tgbotapi.NewDocument(chatID, tgbotapi.FileID(m.FileID))
			doc.Caption, doc.ParseMode = caption, tgbotapi.ModeHTML
			msg = doc
		} else {
			photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(m.FileID))
			photo.Caption, photo.ParseMode = caption, tgbotapi.ModeHTML
			msg = photo
		}
		_, err := b.tg.Send(msg)
		bestEffort("sendMedia", err)
		return
	}

	files := make([]any, 0, len(chunk))
	for i, m := range chunk {
		if m.Kind == listing.MediaDocument {
			doc := tgbotapi.NewInputMediaDocument(tgbotapi.FileID(m.FileID))
			if i == 0 && caption != "" {
				doc.Caption, doc.ParseMode = caption, tgbotapi.ModeHTML
			}
			files = append(files, doc)
		} else {
			photo := tgbotapi.NewInputMediaPhoto(tgbotapi.FileID(m.FileID))
			if i == 0 && caption != "" {
				photo.Caption, photo.ParseMode = caption, tgbotapi.ModeHTML
			}
			files = append(files, photo)
		}
	}
	_, err := b.tg.SendMediaGroup(tgbotapi.NewMediaGroup(chatID, files))
	bestEffort("sendMediaGroup", err)
}

// listingCaption renders the HTML card of a listing. With a positive limit
// the body is shortened until the card fits.
func listingCaption(l *listing.ListingWithMedia, limit int) string {
	title := "(no title)"
	if l.Title != "" {
		title = html.EscapeString(l.Title)
	}
	owner := "<code>" + html.EscapeString(l.OwnerUserID) + "</code>"
	if l.OwnerUsername != "" {
		owner += " @" + html.EscapeString(l.OwnerUsername)
	}

	var head strings.Builder
	fmt.Fprintf(&head, "<b>Title:</b> %s\n", title)
	fmt.Fprintf(&head, "<b>Status:</b> %s\n", html.EscapeString(string(l.Status)))
	fmt.Fprintf(&head, "<b>Created:</b> %s\n", l.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&head, "<b>Listing ID:</b> <code>%s</code>\n", html.EscapeString(l.ID))
	fmt.Fprintf(&head, "<b>Owner:</b> %s\n", owner)
	fmt.Fprintf(&head, "<b>Price:</b> ₹%d\n", l.Price)
	if len(l.Tags) > 0 {
		tags := make([]string, len(l.Tags))
		for i, t := range l.Tags {
			tags[i] = html.EscapeString(t)
		}
		fmt.Fprintf(&head, "<b>Tags:</b> %s\n", strings.Join(tags, ", "))
	}
	head.WriteString("\n<b>Body:</b>\n")

	body := l.Description
	for {
		caption := head.String() + html.EscapeString(body)
		n := utf8.RuneCountInString(caption)
		if limit <= 0 || n <= limit || body == "" {
			return caption
		}
		keep := utf8.RuneCountInString(body) - (n - limit) - 1
		body = listing.Truncate(body, max(0, keep))
	}
}
