package bot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Per-chat transcripts of the conversation, for debugging intake problems.
// Disabled while the directory is empty.
var (
	transcriptMu  sync.Mutex
	transcriptDir string
)

// InitTranscripts sets the transcript directory. An empty dir disables
// transcripts.
func InitTranscripts(dir string) error {
	transcriptMu.Lock()
	defer transcriptMu.Unlock()
	transcriptDir = dir
	if dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

func transcriptPath(dir string, chatID int64) string {
	return filepath.Join(dir, fmt.Sprintf("transcript_%d.log", chatID))
}

func appendTranscript(chatID int64, prefix, msg string) {
	transcriptMu.Lock()
	dir := transcriptDir
	transcriptMu.Unlock()
	if dir == "" {
		return
	}

	f, err := os.OpenFile(transcriptPath(dir, chatID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Error().Err(err).Int64("chatId", chatID).Msg("failed to write transcript")
		return
	}
	defer f.Close()

	msg = strings.ReplaceAll(msg, "\n", "\n           ")
	fmt.Fprintf(f, "[%s] %s %s\n", time.Now().Format("15:04:05"), prefix, msg)
}

// LogUser records user input.
func LogUser(chatID int64, format string, args ...any) {
	appendTranscript(chatID, "USER    ", fmt.Sprintf(format, args...))
}

// LogBot records a bot reply.
func LogBot(chatID int64, format string, args ...any) {
	appendTranscript(chatID, "BOT     ", fmt.Sprintf(format, args...))
}

// LogState records a session transition.
func LogState(chatID int64, format string, args ...any) {
	appendTranscript(chatID, "STATE   ", fmt.Sprintf(format, args...))
}

func LogError(chatID int64, format string, args ...any) {
	appendTranscript(chatID, "ERROR   ", fmt.Sprintf(format, args...))
}

func LogCallback(chatID int64, format string, args ...any) {
	appendTranscript(chatID, "CALLBACK", fmt.Sprintf(format, args...))
}
