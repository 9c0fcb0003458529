// Package intake turns chat input into draft listings: it resolves the
// owner, applies field defaults, rejects duplicates and attaches media.
package intake

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/raine/telegram-room-bot/internal/listing"
	"github.com/raine/telegram-room-bot/internal/metrics"
)

var (
	// ErrDuplicatePost means the source message was already turned into a listing.
	ErrDuplicatePost = errors.New("duplicate post")
	// ErrDuplicateTitle means the owner already has a listing with this title.
	ErrDuplicateTitle = errors.New("duplicate title")
)

const (
	FlowQuick  = "quick"
	FlowMedia  = "media"
	FlowGuided = "guided"
)

// Store is the persistence the intake service needs.
type Store interface {
	FindOrCreateUser(ctx context.Context, tgUserID int64, username, displayName string) (*listing.User, error)
	IsDuplicateByMessageTag(ctx context.Context, messageID int) (bool, error)
	IsDuplicateTitleForOwner(ctx context.Context, ownerUserID, title string) (bool, error)
	CreateListing(ctx context.Context, req listing.CreateRequest) (string, error)
	SaveMedia(ctx context.Context, listingID string, item listing.MediaItem) (bool, error)
	ListRecentDrafts(ctx context.Context, tgUserID int64, limit int) ([]listing.Listing, error)
	GetListingWithMedia(ctx context.Context, id string) (*listing.ListingWithMedia, error)
}

// Sender identifies the Telegram user behind an input.
type Sender struct {
	UserID      int64
	Username    string
	DisplayName string
}

// Origin is where a quick post came from.
type Origin struct {
	ChatID    int64
	MessageID int
	Sender    Sender
}

// SaveResult counts the outcome of attaching a batch of media.
type SaveResult struct {
	Added  int
	Failed int
	// Duplicates already attached to the listing are skipped.
	Duplicates int
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateFromText creates a draft from a pasted or forwarded ad.
func (s *Service) CreateFromText(ctx context.Context, origin Origin, text string) (string, error) {
	return s.createFromText(ctx, origin, text, FlowQuick)
}

// CreateFromMedia creates a draft from the caption of a media post and
// attaches the items. An empty caption yields the NoCaption placeholder.
func (s *Service) CreateFromMedia(ctx context.Context, origin Origin, caption string, items []listing.MediaItem) (string, SaveResult, error) {
	text := strings.TrimSpace(caption)
	if text == "" {
		text = NoCaption
	}
	id, err := s.createFromText(ctx, origin, text, FlowMedia)
	if err != nil {
		return "", SaveResult{}, err
	}
	return id, s.SaveMedia(ctx, id, items), nil
}

// NoCaption is the body of listings created from media without a caption.
const NoCaption = "(no caption)"

func (s *Service) createFromText(ctx context.Context, origin Origin, text, flow string) (string, error) {
	dup, err := s.store.IsDuplicateByMessageTag(ctx, origin.MessageID)
	if err != nil {
		return "", err
	}
	if dup {
		metrics.IncDuplicateRejected("message")
		return "", ErrDuplicatePost
	}

	owner, err := s.owner(ctx, origin.Sender)
	if err != nil {
		return "", err
	}

	title := listing.Truncate(text, listing.MaxTitleLength)
	if title == "" {
		title = "Untitled"
	}
	if err := s.checkTitle(ctx, owner.ID, title); err != nil {
		return "", err
	}

	tags := []string{
		fmt.Sprintf("tg:chat=%d", origin.ChatID),
		fmt.Sprintf("tg:from=%d", origin.Sender.UserID),
		listing.MessageTag(origin.MessageID),
	}
	if origin.Sender.Username != "" {
		tags = append(tags, "tg:username=@"+origin.Sender.Username)
	}

	id, err := s.store.CreateListing(ctx, listing.CreateRequest{
		OwnerUserID: owner.ID,
		Audience:    listing.Audiences[0],
		UnitType:    listing.UnitTypes[0],
		Title:       title,
		Description: text,
		Price:       ExtractPrice(text),
		Furnished:   listing.Unfurnished,
		Rules:       listing.DefaultRules(),
		Tags:        tags,
	})
	if err != nil {
		return "", err
	}

	metrics.IncListingCreated(flow)
	log.Info().Str("listingId", id).Int64("chatId", origin.ChatID).Str("flow", flow).Msg("created draft listing")
	return id, nil
}

// CreateFromGuided persists a finished guided draft.
func (s *Service) CreateFromGuided(ctx context.Context, chatID int64, sender Sender, d listing.Draft) (string, error) {
	d = FinalizeDraft(d)

	owner, err := s.owner(ctx, sender)
	if err != nil {
		return "", err
	}
	if err := s.checkTitle(ctx, owner.ID, d.Title); err != nil {
		return "", err
	}

	price := 0
	if d.Price != nil {
		price = *d.Price
	}
	id, err := s.store.CreateListing(ctx, listing.CreateRequest{
		OwnerUserID: owner.ID,
		Audience:    d.Audience,
		UnitType:    d.UnitType,
		Title:       d.Title,
		Description: d.Description,
		AreaText:    d.AreaText,
		Price:       price,
		Deposit:     d.Deposit,
		Furnished:   d.Furnished,
		Rules:       d.Rules,
		Tags:        senderTags(chatID, sender),
	})
	if err != nil {
		return "", err
	}

	metrics.IncListingCreated(FlowGuided)
	log.Info().Str("listingId", id).Int64("chatId", chatID).Str("flow", FlowGuided).Msg("created draft listing")
	return id, nil
}

// SaveMedia attaches items in order. Failures are counted, not returned, so
// one bad item does not lose the rest.
func (s *Service) SaveMedia(ctx context.Context, listingID string, items []listing.MediaItem) SaveResult {
	var res SaveResult
	for _, item := range items {
		inserted, err := s.store.SaveMedia(ctx, listingID, item)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("listingId", listingID).Str("fileUniqueId", item.FileUniqueID).Msg("failed to save media")
			res.Failed++
		case !inserted:
			log.Debug().Str("listingId", listingID).Str("fileUniqueId", item.FileUniqueID).Msg("media already attached")
			res.Duplicates++
		default:
			res.Added++
		}
	}
	metrics.AddMediaSaved("added", res.Added)
	metrics.AddMediaSaved("failed", res.Failed)
	metrics.AddMediaSaved("duplicate", res.Duplicates)
	return res
}

func (s *Service) RecentDrafts(ctx context.Context, tgUserID int64, limit int) ([]listing.Listing, error) {
	return s.store.ListRecentDrafts(ctx, tgUserID, limit)
}

func (s *Service) ListingWithMedia(ctx context.Context, id string) (*listing.ListingWithMedia, error) {
	return s.store.GetListingWithMedia(ctx, id)
}

func (s *Service) owner(ctx context.Context, sender Sender) (*listing.User, error) {
	u, err := s.store.FindOrCreateUser(ctx, sender.UserID, sender.Username, sender.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve owner: %w", err)
	}
	return u, nil
}

func (s *Service) checkTitle(ctx context.Context, ownerID, title string) error {
	dup, err := s.store.IsDuplicateTitleForOwner(ctx, ownerID, title)
	if err != nil {
		return err
	}
	if dup {
		metrics.IncDuplicateRejected("title")
		return ErrDuplicateTitle
	}
	return nil
}

// FinalizeDraft fills the title and furnishing of a draft about to be saved.
func FinalizeDraft(d listing.Draft) listing.Draft {
	if d.Title == "" {
		var parts []string
		if d.UnitType != "" {
			parts = append(parts, strings.ToUpper(string(d.UnitType)))
		}
		if d.AreaText != "" {
			parts = append(parts, "in "+d.AreaText)
		}
		if d.Audience != "" {
			parts = append(parts, "for "+string(d.Audience))
		}
		if d.Price != nil && *d.Price != 0 {
			parts = append(parts, "– ₹"+strconv.Itoa(*d.Price))
		}
		d.Title = listing.Truncate(strings.Join(parts, " "), listing.MaxTitleLength)
	}
	if d.Title == "" {
		d.Title = "Untitled"
	}
	if d.Furnished == "" {
		d.Furnished = listing.Unfurnished
	}
	return d
}

var priceRe = regexp.MustCompile(`(?i)(?:₹|Rs\.?\s*)?(\d{2,9})`)

// ExtractPrice returns the first 2 to 9 digit number in text (commas
// ignored), or 0.
func ExtractPrice(text string) int {
	m := priceRe.FindStringSubmatch(strings.ReplaceAll(text, ",", ""))
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func senderTags(chatID int64, sender Sender) []string {
	tags := []string{
		fmt.Sprintf("tg:chat=%d", chatID),
		fmt.Sprintf("tg:from=%d", sender.UserID),
	}
	if sender.Username != "" {
		tags = append(tags, "tg:username=@"+sender.Username)
	}
	return tags
}
