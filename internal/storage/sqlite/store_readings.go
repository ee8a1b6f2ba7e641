package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/cezi/internal/reading"
	"github.com/louisbranch/cezi/internal/storage"
)

// InsertReading persists a new reading. The store assigns the record ID and
// creation timestamp so clients never fabricate either.
func (s *Store) InsertReading(ctx context.Context, record reading.Reading) (reading.Reading, error) {
	if s == nil || s.sqlDB == nil {
		return reading.Reading{}, fmt.Errorf("store is not initialized")
	}
	if strings.TrimSpace(record.OwnerID) == "" {
		return reading.Reading{}, fmt.Errorf("owner id is required")
	}

	recordID, err := s.newID()
	if err != nil {
		return reading.Reading{}, fmt.Errorf("generate reading id: %w", err)
	}
	record.ID = recordID
	record.CreatedAt = s.nowUTC()

	_, err = s.sqlDB.ExecContext(ctx, `INSERT INTO readings (
		id, owner_id, character, interpretation, created_at
	) VALUES (?, ?, ?, ?, ?)`,
		record.ID,
		record.OwnerID,
		record.Character,
		record.Interpretation,
		toMillis(record.CreatedAt),
	)
	if err != nil {
		return reading.Reading{}, fmt.Errorf("insert reading: %w", err)
	}
	return record, nil
}

// ListReadingsByOwner returns the owner's readings newest first. The optional
// condition narrows the list with a prebuilt SQL clause and its parameters.
func (s *Store) ListReadingsByOwner(ctx context.Context, ownerID string, condition *storage.Condition) ([]reading.Reading, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("store is not initialized")
	}
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("owner id is required")
	}

	query := `SELECT id, owner_id, character, interpretation, created_at
		FROM readings WHERE owner_id = ?`
	params := []any{ownerID}
	if condition != nil && strings.TrimSpace(condition.Clause) != "" {
		query += " AND (" + condition.Clause + ")"
		params = append(params, condition.Params...)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.sqlDB.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer rows.Close()

	var records []reading.Reading
	for rows.Next() {
		var record reading.Reading
		var createdAt int64
		if err := rows.Scan(&record.ID, &record.OwnerID, &record.Character, &record.Interpretation, &createdAt); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		record.CreatedAt = fromMillis(createdAt)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}
	return records, nil
}
