package bot

import (
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type botApiMock struct {
	mock.Mock
}

func (m *botApiMock) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func (m *botApiMock) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	args := m.Called(c)
	return args.Get(0).(*tgbotapi.APIResponse), args.Error(1)
}

func (m *botApiMock) SendMediaGroup(config tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error) {
	args := m.Called(config)
	return args.Get(0).([]tgbotapi.Message), args.Error(1)
}

func TestRegisterCommands(t *testing.T) {
	tg := new(botApiMock)
	tg.On("Request", mock.MatchedBy(func(c tgbotapi.SetMyCommandsConfig) bool {
		if len(c.Commands) != len(botCommands) {
			return false
		}
		return c.Commands[0].Command == "start" && c.Commands[3].Command == "myads"
	})).Return(&tgbotapi.APIResponse{Ok: true}, nil)

	RegisterCommands(tg)

	tg.AssertExpectations(t)
}

func TestRegisterCommands_FailureIsNotFatal(t *testing.T) {
	tg := new(botApiMock)
	tg.On("Request", mock.Anything).Return((*tgbotapi.APIResponse)(nil), errors.New("unauthorized"))

	assert.NotPanics(t, func() { RegisterCommands(tg) })
	tg.AssertNumberOfCalls(t, "Request", 1)
}

func TestMessenger_SendHTML(t *testing.T) {
	tg := new(botApiMock)
	markup := cancelKeyboard()
	expected := tgbotapi.NewMessage(7, "<b>hi</b>")
	expected.ParseMode = tgbotapi.ModeHTML
	expected.ReplyMarkup = markup
	tg.On("Send", expected).Return(tgbotapi.Message{MessageID: 55}, nil)

	m := NewMessenger(tg, 0, 0)
	sent, err := m.SendHTML(7, "<b>hi</b>", markup)

	require.NoError(t, err)
	assert.Equal(t, 55, sent.MessageID)
	tg.AssertExpectations(t)
}

func TestMessenger_EditHTML(t *testing.T) {
	tg := new(botApiMock)
	markup := confirmKeyboard()
	withMarkup := tgbotapi.NewEditMessageTextAndMarkup(7, 3, "card", markup)
	withMarkup.ParseMode = tgbotapi.ModeHTML
	plain := tgbotapi.NewEditMessageText(7, 4, "done")
	plain.ParseMode = tgbotapi.ModeHTML
	tg.On("Request", withMarkup).Return(&tgbotapi.APIResponse{Ok: true}, nil)
	tg.On("Request", plain).Return((*tgbotapi.APIResponse)(nil), errors.New("message is not modified"))

	m := NewMessenger(tg, 0, 0)

	assert.NoError(t, m.EditHTML(7, 3, "card", &markup))
	assert.EqualError(t, m.EditHTML(7, 4, "done", nil), "message is not modified")
	tg.AssertExpectations(t)
}

func TestMessenger_DeleteAndAnswer(t *testing.T) {
	tg := new(botApiMock)
	tg.On("Request", tgbotapi.NewDeleteMessage(7, 9)).Return(&tgbotapi.APIResponse{Ok: true}, nil)
	tg.On("Request", tgbotapi.NewCallback("cb-1", "")).Return(&tgbotapi.APIResponse{Ok: true}, nil)

	m := NewMessenger(tg, 0, 0)

	assert.NoError(t, m.Delete(7, 9))
	assert.NoError(t, m.AnswerCallback("cb-1"))
	tg.AssertExpectations(t)
}

func TestMessenger_RateLimited(t *testing.T) {
	tg := new(botApiMock)
	tg.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil)

	// Burst of one at 20/s: the third call waits roughly 100ms in total.
	m := NewMessenger(tg, 20, 1)
	start := time.Now()
	for range 3 {
		_, err := m.SendHTML(7, "x", nil)
		require.NoError(t, err)
	}

	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	tg.AssertNumberOfCalls(t, "Send", 3)
}

func TestMessenger_SendMediaGroup(t *testing.T) {
	tg := new(botApiMock)
	cfg := tgbotapi.NewMediaGroup(7, []any{
		tgbotapi.NewInputMediaPhoto(tgbotapi.FileID("a")),
		tgbotapi.NewInputMediaPhoto(tgbotapi.FileID("b")),
	})
	tg.On("SendMediaGroup", cfg).Return([]tgbotapi.Message{{MessageID: 1}, {MessageID: 2}}, nil)

	msgs, err := NewMessenger(tg, 0, 0).SendMediaGroup(cfg)

	require.NoError(t, err)
	assert.Len(t, msgs, 2)
	tg.AssertExpectations(t)
}
