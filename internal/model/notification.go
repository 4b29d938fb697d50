package model

// EventType classifies a notification or push event, using the server's
// wire values.
type EventType string

const (
	EventNewRequest      EventType = "NEW_REQUEST"
	EventSOSAlert        EventType = "SOS_ALERT"
	EventRequestTaken    EventType = "REQUEST_TAKEN"
	EventRequestAccepted EventType = "REQUEST_ACCEPTED"
	EventRequestRejected EventType = "REQUEST_REJECTED"
	EventStatusUpdate    EventType = "STATUS_UPDATE"
	EventLocationUpdate  EventType = "LOCATION_UPDATE"
	EventGeneric         EventType = "GENERIC"
)

// Notification is an alert delivered to a user about activity on a
// repair request. Created server-side; the read flag only ever moves
// from false to true.
type Notification struct {
	// ID is the server-assigned identifier.
	ID string `json:"id"`

	// UserID is the recipient.
	UserID string `json:"userId"`

	Type    EventType `json:"type"`
	Title   string    `json:"title"`
	Message string    `json:"message"`

	// RequestID links to the repair request this concerns, if any.
	RequestID string `json:"requestId,omitempty"`

	IsRead    bool `json:"isRead"`
	CreatedAt Time `json:"createdAt"`
}
