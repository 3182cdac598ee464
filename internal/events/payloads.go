package events

import "github.com/google/uuid"

// ListingEvent is the payload of listing.* events.
type ListingEvent struct {
	ListingID    uuid.UUID `json:"listing_id"`
	EnterpriseID uuid.UUID `json:"enterprise_id"`
	Title        string    `json:"title"`
	Status       string    `json:"status"`
}

// ApplicationEvent is the payload of application.* events. PreviousStatus is set only
// on status changes.
type ApplicationEvent struct {
	ApplicationID  uuid.UUID `json:"application_id"`
	ListingID      uuid.UUID `json:"listing_id"`
	StudentID      uuid.UUID `json:"student_id"`
	EnterpriseID   uuid.UUID `json:"enterprise_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	MatchRate      float64   `json:"match_rate"`
}
