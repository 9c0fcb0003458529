package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// BotAPI defines the Telegram bot API operations the bot uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMediaGroup(config tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error)
}

// Messenger wraps BotAPI with a token-bucket limiter on outbound calls.
type Messenger struct {
	api     BotAPI
	limiter *rate.Limiter
}

// NewMessenger returns a Messenger allowing perSecond calls with the given
// burst. A non-positive rate disables limiting.
func NewMessenger(api BotAPI, perSecond float64, burst int) *Messenger {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &Messenger{api: api, limiter: rate.NewLimiter(limit, burst)}
}

func (m *Messenger) wait() {
	// Background: a cancelled handler context must not drop a reply halfway.
	_ = m.limiter.Wait(context.Background())
}

func (m *Messenger) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.wait()
	return m.api.Send(c)
}

func (m *Messenger) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	m.wait()
	return m.api.Request(c)
}

// SendHTML sends an HTML message with an optional reply markup.
func (m *Messenger) SendHTML(chatID int64, text string, markup any) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	return m.Send(msg)
}

// EditHTML replaces the text and inline keyboard of an existing message.
// A nil markup removes the keyboard.
func (m *Messenger) EditHTML(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	var edit tgbotapi.EditMessageTextConfig
	if markup != nil {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, *markup)
	} else {
		edit = tgbotapi.NewEditMessageText(chatID, messageID, text)
	}
	edit.ParseMode = tgbotapi.ModeHTML
	_, err := m.Request(edit)
	return err
}

func (m *Messenger) Delete(chatID int64, messageID int) error {
	_, err := m.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

func (m *Messenger) AnswerCallback(callbackID string) error {
	_, err := m.Request(tgbotapi.NewCallback(callbackID, ""))
	return err
}

func (m *Messenger) SendMediaGroup(config tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error) {
	m.wait()
	return m.api.SendMediaGroup(config)
}

// isNotModified reports whether Telegram refused an edit because the message
// already shows that content.
func isNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}

// bestEffort logs a failed non-critical call and discards the error.
func bestEffort(op string, err error) {
	if err != nil {
		log.Debug().Err(err).Str("op", op).Msg("best-effort telegram call failed")
	}
}
