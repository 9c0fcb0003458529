package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/raine/telegram-room-bot/internal/listing"
)

// SaveMedia attaches a media item to a listing. Saving the same file (by
// unique id) to the same listing twice is a no-op and reports false.
func (s *Store) SaveMedia(ctx context.Context, listingID string, item listing.MediaItem) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO listing_media (
			id, listing_id, kind, file_id, file_unique_id, file_name, mime_type,
			file_size, width, height, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (listing_id, file_unique_id) DO NOTHING
	`),
		uuid.New().String(), listingID, string(item.Kind), item.FileID, item.FileUniqueID,
		nullString(item.FileName), nullString(item.MimeType),
		nullInt(item.FileSize), nullInt(item.Width), nullInt(item.Height), s.timestamp(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to save media: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// mediaFor lists a listing's media oldest first. Caller holds s.mu.
func (s *Store) mediaFor(ctx context.Context, listingID string) ([]listing.Media, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, listing_id, kind, file_id, file_unique_id, file_name, mime_type,
			file_size, width, height, created_at
		FROM listing_media
		WHERE listing_id = ?
		ORDER BY created_at ASC, id ASC
	`), listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query media: %w", err)
	}
	defer rows.Close()

	var media []listing.Media
	for rows.Next() {
		var m listing.Media
		var kind string
		var fileName, mimeType sql.NullString
		var fileSize, width, height sql.NullInt64
		if err := rows.Scan(&m.ID, &m.ListingID, &kind, &m.FileID, &m.FileUniqueID,
			&fileName, &mimeType, &fileSize, &width, &height, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		m.Kind = listing.MediaKind(kind)
		m.FileName = fileName.String
		m.MimeType = mimeType.String
		m.FileSize = int(fileSize.Int64)
		m.Width = int(width.Int64)
		m.Height = int(height.Int64)
		media = append(media, m)
	}
	return media, rows.Err()
}
