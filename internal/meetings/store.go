package meetings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const meetingColumns = `id, entity_id, title, description, location, president_name, secretary_name, mediator,
	is_online, is_presential, manual_voting, start_date, end_date, voting_start, voting_end, created_by, created_at`

const (
	defaultListLimit = 200
	maxListLimit     = 1000
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeeting(row scanner) (*Meeting, error) {
	m := &Meeting{}
	var end, vStart, vEnd sql.NullTime
	err := row.Scan(&m.ID, &m.EntityID, &m.Title, &m.Description, &m.Location, &m.PresidentName,
		&m.SecretaryName, &m.Mediator, &m.IsOnline, &m.IsPresential, &m.ManualVoting, &m.StartDate,
		&end, &vStart, &vEnd, &m.CreatedBy, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.EndDate = timePtr(end)
	m.VotingStart = timePtr(vStart)
	m.VotingEnd = timePtr(vEnd)
	return m, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// ListByEntity returns the entity's meetings, newest start first.
func (s *Store) ListByEntity(ctx context.Context, entityID int64, f ListFilter) ([]Meeting, error) {
	clauses := []string{"entity_id = $1"}
	args := []any{entityID}
	argIdx := 2

	if !f.From.IsZero() {
		clauses = append(clauses, "start_date >= $"+strconv.Itoa(argIdx))
		args = append(args, f.From)
		argIdx++
	}
	if !f.To.IsZero() {
		clauses = append(clauses, "start_date <= $"+strconv.Itoa(argIdx))
		args = append(args, f.To)
		argIdx++
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		clauses = append(clauses, "title ILIKE $"+strconv.Itoa(argIdx))
		args = append(args, "%"+q+"%")
		argIdx++
	}

	limit := f.Limit
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}

	query := "SELECT " + meetingColumns + " FROM meetings WHERE " + strings.Join(clauses, " AND ") +
		" ORDER BY start_date DESC LIMIT " + strconv.Itoa(limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	res := []Meeting{}
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		res = append(res, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return res, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*Meeting, error) {
	m, err := scanMeeting(s.db.QueryRowContext(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMeetingNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (s *Store) Create(ctx context.Context, m *Meeting) error {
	const q = `
		INSERT INTO meetings (entity_id, title, description, location, president_name, secretary_name, mediator,
			is_online, is_presential, manual_voting, start_date, end_date, voting_start, voting_end, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING ` + meetingColumns
	created, err := scanMeeting(s.db.QueryRowContext(ctx, q,
		m.EntityID, m.Title, m.Description, m.Location, m.PresidentName, m.SecretaryName, m.Mediator,
		m.IsOnline, m.IsPresential, m.ManualVoting, m.StartDate,
		nullTime(m.EndDate), nullTime(m.VotingStart), nullTime(m.VotingEnd), m.CreatedBy,
	))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	*m = *created
	return nil
}

// Update rewrites every editable field. entity_id and created_by are fixed
// at creation.
func (s *Store) Update(ctx context.Context, m *Meeting) error {
	const q = `
		UPDATE meetings SET title = $1, description = $2, location = $3, president_name = $4,
			secretary_name = $5, mediator = $6, is_online = $7, is_presential = $8, manual_voting = $9,
			start_date = $10, end_date = $11, voting_start = $12, voting_end = $13
		WHERE id = $14
		RETURNING ` + meetingColumns
	updated, err := scanMeeting(s.db.QueryRowContext(ctx, q,
		m.Title, m.Description, m.Location, m.PresidentName, m.SecretaryName, m.Mediator,
		m.IsOnline, m.IsPresential, m.ManualVoting, m.StartDate,
		nullTime(m.EndDate), nullTime(m.VotingStart), nullTime(m.VotingEnd), m.ID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMeetingNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	*m = *updated
	return nil
}

// Delete removes the meeting. Agenda items and attachment rows go with it
// through ON DELETE CASCADE; the returned keys name the orphaned objects.
func (s *Store) Delete(ctx context.Context, id int64) ([]string, error) {
	keys, err := s.attachmentKeys(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM meetings WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return nil, ErrMeetingNotFound
	}
	return keys, nil
}

// EntityOf returns the entity owning meetingID.
func (s *Store) EntityOf(ctx context.Context, meetingID int64) (int64, error) {
	var entityID int64
	err := s.db.QueryRowContext(ctx, `SELECT entity_id FROM meetings WHERE id = $1`, meetingID).Scan(&entityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrMeetingNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return entityID, nil
}
