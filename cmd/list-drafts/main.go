package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/raine/telegram-room-bot/config"
	"github.com/raine/telegram-room-bot/internal/listing"
	"github.com/raine/telegram-room-bot/internal/storage"
)

func main() {
	var userID int64
	var limit int

	flag.Int64Var(&userID, "user", 0, "Telegram user ID")
	flag.IntVar(&limit, "limit", 10, "Number of drafts to show")
	flag.Parse()

	// Also accept user ID as positional argument
	if userID == 0 && flag.NArg() > 0 {
		if id, err := strconv.ParseInt(flag.Arg(0), 10, 64); err == nil {
			userID = id
		}
	}
	if userID == 0 {
		fmt.Fprintln(os.Stderr, "Usage: list-drafts --user <telegram_id> [--limit n]")
		os.Exit(2)
	}

	// Same config sources as the bot
	config.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s database: %v\n", cfg.DBDriver, err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()

	user, err := store.GetUserByTelegramID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "No user found for Telegram ID %d\n", userID)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("User: %d (@%s, internal ID %s)\n\n", user.TgUserID, user.TgUsername, user.ID)

	drafts, err := store.ListRecentDrafts(ctx, userID, limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing drafts: %v\n", err)
		os.Exit(1)
	}
	if len(drafts) == 0 {
		fmt.Println("No drafts found")
		return
	}

	fmt.Printf("Found %d drafts:\n\n", len(drafts))
	for _, d := range drafts {
		full, err := store.GetListingWithMedia(ctx, d.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading media for %s: %v\n", d.ID, err)
			continue
		}
		printDraft(full)
	}
}

func printDraft(l *listing.ListingWithMedia) {
	var photos, docs int
	for _, m := range l.Media {
		if m.Kind == listing.MediaDocument {
			docs++
		} else {
			photos++
		}
	}

	fmt.Printf("ID: %s\n", l.ID)
	fmt.Printf("  Title: %s\n", l.Title)
	fmt.Printf("  Status: %s\n", l.Status)
	fmt.Printf("  Created: %s\n", l.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
	if l.Price > 0 {
		fmt.Printf("  Price: ₹%s\n", listing.FormatINR(l.Price))
	}
	if l.Deposit != nil {
		fmt.Printf("  Deposit: ₹%s\n", listing.FormatINR(*l.Deposit))
	}
	if l.AreaText != "" {
		fmt.Printf("  Area: %s\n", l.AreaText)
	}
	fmt.Printf("  Media: %d photos, %d documents\n", photos, docs)
	fmt.Println()
}
