package client

import (
	"orgmeet/internal/entities"
	"orgmeet/internal/meetings"
	"orgmeet/internal/org"
	"orgmeet/internal/storage"
	"orgmeet/internal/users"
)

// Wire types shared with the server.
type (
	Entity     = entities.Entity
	Unit       = org.Unit
	User       = users.User
	Meeting    = meetings.Meeting
	AgendaItem = meetings.AgendaItem
	Attachment = meetings.Attachment
)

// UnitKind selects departments, sectors or positions.
type UnitKind string

const (
	Departments UnitKind = "departments"
	Sectors     UnitKind = "sectors"
	Positions   UnitKind = "positions"
)

type NewAttachment struct {
	MeetingID   int64  `json:"meeting_id"`
	FileName    string `json:"file_name"`
	Description string `json:"description"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

type AttachmentTransfer struct {
	Attachment Attachment        `json:"attachment"`
	Transfer   storage.Presigned `json:"transfer"`
}
