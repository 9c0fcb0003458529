package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Command defines a bot command and its Telegram menu description.
type Command struct {
	Name        string // without slash, e.g. "start"
	Description string
}

// botCommands is the single source of truth for the command menu.
var botCommands = []Command{
	{Name: "start", Description: "Open the main menu"},
	{Name: "browse", Description: "Browse listings"},
	{Name: "post", Description: "Post an ad"},
	{Name: "myads", Description: "Show my recent ads"},
	{Name: "wishlist", Description: "Saved listings"},
	{Name: "boosted", Description: "Boosted listings"},
	{Name: "credits", Description: "Credits and payments"},
	{Name: "support", Description: "Get help"},
}

// RegisterCommands sets the bot's command menu in Telegram.
// This should be called once at startup.
func RegisterCommands(api BotAPI) {
	commands := make([]tgbotapi.BotCommand, len(botCommands))
	for i, cmd := range botCommands {
		commands[i] = tgbotapi.BotCommand{
			Command:     cmd.Name,
			Description: cmd.Description,
		}
	}

	config := tgbotapi.NewSetMyCommands(commands...)
	if _, err := api.Request(config); err != nil {
		log.Error().Err(err).Msg("failed to set bot commands")
	} else {
		log.Info().Int("count", len(commands)).Msg("registered bot commands")
	}
}
