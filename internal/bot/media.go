package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/raine/telegram-room-bot/internal/listing"
)

// mediaItemFromMessage extracts the photo or document of a message. For
// photos the largest size is used.
func mediaItemFromMessage(m *tgbotapi.Message) (listing.MediaItem, bool) {
	switch {
	case len(m.Photo) > 0:
		p := m.Photo[len(m.Photo)-1]
		return listing.MediaItem{
			Kind:            listing.MediaPhoto,
			FileID:          p.FileID,
			FileUniqueID:    p.FileUniqueID,
			FileSize:        p.FileSize,
			Width:           p.Width,
			Height:          p.Height,
			SourceMessageID: m.MessageID,
			Caption:         m.Caption,
		}, true
	case m.Document != nil:
		d := m.Document
		return listing.MediaItem{
			Kind:            listing.MediaDocument,
			FileID:          d.FileID,
			FileUniqueID:    d.FileUniqueID,
			FileName:        d.FileName,
			MimeType:        d.MimeType,
			FileSize:        d.FileSize,
			SourceMessageID: m.MessageID,
			Caption:         m.Caption,
		}, true
	}
	return listing.MediaItem{}, false
}

// firstCaption returns the first non-empty caption of items.
func firstCaption(items []listing.MediaItem) string {
	for _, it := range items {
		if it.Caption != "" {
			return it.Caption
		}
	}
	return ""
}
