package meetings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"orgmeet/internal/db"
)

const agendaColumns = `id, meeting_id, description, item_order, created_at`

func scanAgendaItem(row scanner) (*AgendaItem, error) {
	a := &AgendaItem{}
	if err := row.Scan(&a.ID, &a.MeetingID, &a.Description, &a.Order, &a.CreatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) ListAgenda(ctx context.Context, meetingID int64) ([]AgendaItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+agendaColumns+` FROM agenda_items WHERE meeting_id = $1 ORDER BY item_order ASC, id ASC`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	res := []AgendaItem{}
	for rows.Next() {
		a, err := scanAgendaItem(rows)
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

func (s *Store) GetAgendaItem(ctx context.Context, id int64) (*AgendaItem, error) {
	a, err := scanAgendaItem(s.db.QueryRowContext(ctx, `SELECT `+agendaColumns+` FROM agenda_items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAgendaItemNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

// CreateAgendaItem appends a to its meeting. An Order of zero places the
// item after the current last one.
func (s *Store) CreateAgendaItem(ctx context.Context, a *AgendaItem) error {
	const q = `
		INSERT INTO agenda_items (meeting_id, description, item_order)
		VALUES ($1, $2, CASE WHEN $3 > 0 THEN $3
			ELSE (SELECT COALESCE(MAX(item_order), 0) + 1 FROM agenda_items WHERE meeting_id = $1) END)
		RETURNING ` + agendaColumns
	created, err := scanAgendaItem(s.db.QueryRowContext(ctx, q, a.MeetingID, a.Description, a.Order))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	*a = *created
	return nil
}

func (s *Store) UpdateAgendaItem(ctx context.Context, a *AgendaItem) error {
	const q = `UPDATE agenda_items SET description = $1, item_order = $2 WHERE id = $3 RETURNING ` + agendaColumns
	updated, err := scanAgendaItem(s.db.QueryRowContext(ctx, q, a.Description, a.Order, a.ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAgendaItemNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	*a = *updated
	return nil
}

func (s *Store) DeleteAgendaItem(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM agenda_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrAgendaItemNotFound
	}
	return nil
}

// ReorderAgenda sets item_order to each id's 1-based position in ids. ids must
// list every agenda item of meetingID exactly once, otherwise nothing changes.
func (s *Store) ReorderAgenda(ctx context.Context, meetingID int64, ids []int64) error {
	return db.WithTx(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		var total int64
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM agenda_items WHERE meeting_id = $1`, meetingID).Scan(&total)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if total != int64(len(ids)) {
			return fmt.Errorf("%w: ids must be the meeting's agenda items, each once", ErrValidation)
		}

		const q = `
			UPDATE agenda_items AS a SET item_order = o.ord
			FROM unnest($2::bigint[]) WITH ORDINALITY AS o(id, ord)
			WHERE a.id = o.id AND a.meeting_id = $1`
		res, err := tx.ExecContext(ctx, q, meetingID, pq.Array(ids))
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if n != total {
			return fmt.Errorf("%w: ids must be the meeting's agenda items, each once", ErrValidation)
		}
		return nil
	})
}
