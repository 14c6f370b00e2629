package meetings

import "errors"

var (
	ErrMeetingNotFound    = errors.New("meeting not found")
	ErrAgendaItemNotFound = errors.New("agenda item not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrValidation         = errors.New("validation error")
)
