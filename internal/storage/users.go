package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/raine/telegram-room-bot/internal/listing"
)

// FindOrCreateUser returns the user with the given Telegram id, creating it
// on first sight. Non-empty username and display name replace stored ones.
func (s *Store) FindOrCreateUser(ctx context.Context, tgUserID int64, username, displayName string) (*listing.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.userByTgID(ctx, tgUserID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if u == nil {
		now := s.timestamp()
		u = &listing.User{
			ID:          uuid.New().String(),
			TgUserID:    tgUserID,
			TgUsername:  username,
			DisplayName: displayName,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		_, err := s.db.ExecContext(ctx, s.rebind(`
			INSERT INTO users (id, tg_user_id, tg_username, display_name, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`), u.ID, u.TgUserID, nullString(username), nullString(displayName), u.CreatedAt, u.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		return u, nil
	}

	changed := false
	if username != "" && username != u.TgUsername {
		u.TgUsername = username
		changed = true
	}
	if displayName != "" && displayName != u.DisplayName {
		u.DisplayName = displayName
		changed = true
	}
	if !changed {
		return u, nil
	}

	u.UpdatedAt = s.timestamp()
	_, err = s.db.ExecContext(ctx, s.rebind(`
		UPDATE users SET tg_username = ?, display_name = ?, updated_at = ? WHERE id = ?
	`), nullString(u.TgUsername), nullString(u.DisplayName), u.UpdatedAt, u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}

// GetUserByTelegramID returns ErrNotFound for unknown users.
func (s *Store) GetUserByTelegramID(ctx context.Context, tgUserID int64) (*listing.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userByTgID(ctx, tgUserID)
}

func (s *Store) userByTgID(ctx context.Context, tgUserID int64) (*listing.User, error) {
	var u listing.User
	var username, displayName sql.NullString
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, tg_user_id, tg_username, display_name, created_at, updated_at
		FROM users WHERE tg_user_id = ?
	`), tgUserID).Scan(&u.ID, &u.TgUserID, &username, &displayName, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	u.TgUsername = username.String
	u.DisplayName = displayName.String
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}
