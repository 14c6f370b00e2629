// Package meetings holds an entity's meetings together with their agenda
// items and file attachments.
package meetings

import (
	"fmt"
	"strings"
	"time"
)

type Meeting struct {
	ID            int64      `json:"id"`
	EntityID      int64      `json:"entity_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Location      string     `json:"location"`
	PresidentName string     `json:"president_name"`
	SecretaryName string     `json:"secretary_name"`
	Mediator      string     `json:"mediator"`
	IsOnline      bool       `json:"is_online"`
	IsPresential  bool       `json:"is_presential"`
	ManualVoting  bool       `json:"manual_voting"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	VotingStart   *time.Time `json:"voting_start"`
	VotingEnd     *time.Time `json:"voting_end"`
	CreatedBy     string     `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (m *Meeting) normalize() {
	m.Title = strings.TrimSpace(m.Title)
	m.Location = strings.TrimSpace(m.Location)
}

func (m *Meeting) validate() error {
	switch {
	case m.Title == "":
		return fmt.Errorf("%w: title is required", ErrValidation)
	case m.StartDate.IsZero():
		return fmt.Errorf("%w: start_date is required", ErrValidation)
	case m.EndDate != nil && m.EndDate.Before(m.StartDate):
		return fmt.Errorf("%w: end_date must not precede start_date", ErrValidation)
	case m.VotingEnd != nil && m.VotingStart == nil:
		return fmt.Errorf("%w: voting_end requires voting_start", ErrValidation)
	case m.VotingEnd != nil && m.VotingEnd.Before(*m.VotingStart):
		return fmt.Errorf("%w: voting_end must not precede voting_start", ErrValidation)
	}
	return nil
}

type AgendaItem struct {
	ID          int64     `json:"id"`
	MeetingID   int64     `json:"meeting_id"`
	Description string    `json:"description"`
	Order       int       `json:"item_order"`
	CreatedAt   time.Time `json:"created_at"`
}

type Attachment struct {
	ID          int64     `json:"id"`
	MeetingID   int64     `json:"meeting_id"`
	FileName    string    `json:"file_name"`
	StorageKey  string    `json:"storage_key"`
	Description string    `json:"description"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListFilter narrows a meeting listing. Zero values mean "no constraint".
type ListFilter struct {
	From  time.Time
	To    time.Time
	Query string
	Limit int
}
