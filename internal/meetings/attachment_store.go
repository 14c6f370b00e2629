package meetings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const attachmentColumns = `id, meeting_id, file_name, storage_key, description, content_type, size_bytes, created_at`

func scanAttachment(row scanner) (*Attachment, error) {
	a := &Attachment{}
	err := row.Scan(&a.ID, &a.MeetingID, &a.FileName, &a.StorageKey, &a.Description, &a.ContentType, &a.SizeBytes, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) ListAttachments(ctx context.Context, meetingID int64) ([]Attachment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+attachmentColumns+` FROM meeting_attachments WHERE meeting_id = $1 ORDER BY created_at DESC`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	res := []Attachment{}
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		res = append(res, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return res, nil
}

func (s *Store) GetAttachment(ctx context.Context, id int64) (*Attachment, error) {
	a, err := scanAttachment(s.db.QueryRowContext(ctx,
		`SELECT `+attachmentColumns+` FROM meeting_attachments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (s *Store) CreateAttachment(ctx context.Context, a *Attachment) error {
	const q = `
		INSERT INTO meeting_attachments (meeting_id, file_name, storage_key, description, content_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + attachmentColumns
	created, err := scanAttachment(s.db.QueryRowContext(ctx, q,
		a.MeetingID, a.FileName, a.StorageKey, a.Description, a.ContentType, a.SizeBytes))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	*a = *created
	return nil
}

func (s *Store) DeleteAttachment(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM meeting_attachments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrAttachmentNotFound
	}
	return nil
}

func (s *Store) attachmentKeys(ctx context.Context, meetingID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT storage_key FROM meeting_attachments WHERE meeting_id = $1`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return keys, nil
}
