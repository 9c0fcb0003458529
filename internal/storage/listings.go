package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/raine/telegram-room-bot/internal/listing"
)

const listingColumns = `l.id, l.owner_user_id, l.audience, l.unit_type, l.title, l.description,
	l.area_text, l.price, l.deposit, l.furnished, l.restrictions, l.couples_allowed,
	l.bachelors_allowed, l.pets_allowed, l.parking_available, l.tags, l.status,
	l.created_at, l.updated_at`

// CreateListing inserts a draft listing and returns its id. Duplicate checks
// are the caller's job.
func (s *Store) CreateListing(ctx context.Context, req listing.CreateRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tags: %w", err)
	}

	var deposit sql.NullInt64
	if req.Deposit != nil {
		deposit = sql.NullInt64{Int64: int64(*req.Deposit), Valid: true}
	}

	id := uuid.New().String()
	now := s.timestamp()
	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO listings (
			id, owner_user_id, audience, unit_type, title, description, area_text,
			price, deposit, furnished, restrictions, couples_allowed, bachelors_allowed,
			pets_allowed, parking_available, tags, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		id, req.OwnerUserID, string(req.Audience), string(req.UnitType), req.Title, req.Description,
		nullString(req.AreaText), req.Price, deposit, string(req.Furnished),
		req.Rules.Restrictions, req.Rules.CouplesAllowed, req.Rules.BachelorsAllowed,
		req.Rules.PetsAllowed, req.Rules.ParkingAvailable,
		string(tagsJSON), string(listing.StatusDraft), now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create listing: %w", err)
	}
	return id, nil
}

// IsDuplicateByMessageTag reports whether any listing carries the tag of the
// given Telegram message id. The lookup is global, not per chat.
func (s *Store) IsDuplicateByMessageTag(ctx context.Context, messageID int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pattern := fmt.Sprintf(`%%"%s"%%`, listing.MessageTag(messageID))
	var one int
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT 1 FROM listings WHERE tags LIKE ? LIMIT 1`,
	), pattern).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check message tag: %w", err)
	}
	return true, nil
}

// IsDuplicateTitleForOwner reports whether the owner already has a listing
// with exactly this title.
func (s *Store) IsDuplicateTitleForOwner(ctx context.Context, ownerUserID, title string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var one int
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT 1 FROM listings WHERE owner_user_id = ? AND title = ? LIMIT 1`,
	), ownerUserID, title).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check title: %w", err)
	}
	return true, nil
}

// ListRecentDrafts returns the newest listings of a Telegram user, newest
// first. Unknown users have no listings.
func (s *Store) ListRecentDrafts(ctx context.Context, tgUserID int64, limit int) ([]listing.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT `+listingColumns+`
		FROM listings l
		JOIN users u ON u.id = l.owner_user_id
		WHERE u.tg_user_id = ?
		ORDER BY l.created_at DESC
		LIMIT ?
	`), tgUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var listings []listing.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}

// GetListingWithMedia returns ErrNotFound for unknown ids.
func (s *Store) GetListingWithMedia(ctx context.Context, id string) (*listing.ListingWithMedia, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+listingColumns+`, u.tg_username, u.display_name
		FROM listings l
		JOIN users u ON u.id = l.owner_user_id
		WHERE l.id = ?
	`), id)

	var username, displayName sql.NullString
	l, err := scanListing(row, &username, &displayName)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	media, err := s.mediaFor(ctx, id)
	if err != nil {
		return nil, err
	}

	return &listing.ListingWithMedia{
		Listing:          *l,
		OwnerUsername:    username.String,
		OwnerDisplayName: displayName.String,
		Media:            media,
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(row scanner, extra ...any) (*listing.Listing, error) {
	var l listing.Listing
	var audience, unitType, furnished, status, tagsJSON string
	var areaText sql.NullString
	var deposit sql.NullInt64

	dest := []any{
		&l.ID, &l.OwnerUserID, &audience, &unitType, &l.Title, &l.Description,
		&areaText, &l.Price, &deposit, &furnished, &l.Rules.Restrictions, &l.Rules.CouplesAllowed,
		&l.Rules.BachelorsAllowed, &l.Rules.PetsAllowed, &l.Rules.ParkingAvailable, &tagsJSON, &status,
		&l.CreatedAt, &l.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan listing: %w", err)
	}

	l.Audience = listing.Audience(audience)
	l.UnitType = listing.UnitType(unitType)
	l.Furnished = listing.FurnishedType(furnished)
	l.Status = listing.Status(status)
	l.AreaText = areaText.String
	if deposit.Valid {
		d := int(deposit.Int64)
		l.Deposit = &d
	}
	if err := json.Unmarshal([]byte(tagsJSON), &l.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	return &l, nil
}
