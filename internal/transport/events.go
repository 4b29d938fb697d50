package transport

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roadassist/client/internal/model"
)

// pushEnvelope is the wire form of every inbound push frame:
// a type discriminator, an opaque payload, and an epoch-millis
// timestamp.
type pushEnvelope struct {
	Type      model.EventType `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// Event is a decoded push event. Exactly one of the payload fields is
// set, depending on the event type.
type Event struct {
	Type      model.EventType
	Timestamp time.Time

	// Request carries the repair request payload for request-shaped
	// events (NEW_REQUEST, SOS_ALERT, REQUEST_TAKEN, REQUEST_ACCEPTED,
	// REQUEST_REJECTED, STATUS_UPDATE).
	Request *model.RepairRequest

	// Notification carries the payload for GENERIC events.
	Notification *model.Notification

	// Location carries the payload for LOCATION_UPDATE events.
	Location *model.LocationUpdate
}

// decodeEvent parses a raw inbound frame into an Event. Unknown event
// types and malformed payloads return an error; the caller drops the
// frame rather than tearing down the connection.
func decodeEvent(raw []byte) (Event, error) {
	var env pushEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Event{}, fmt.Errorf("decoding push envelope: %w", err)
	}
	if env.Type == "" {
		return Event{}, fmt.Errorf("push frame missing type")
	}

	event := Event{
		Type:      env.Type,
		Timestamp: time.UnixMilli(env.Timestamp),
	}

	switch env.Type {
	case model.EventNewRequest,
		model.EventSOSAlert,
		model.EventRequestTaken,
		model.EventRequestAccepted,
		model.EventRequestRejected,
		model.EventStatusUpdate:
		var req model.RepairRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			return Event{}, fmt.Errorf("decoding %s payload: %w", env.Type, err)
		}
		event.Request = &req

	case model.EventGeneric:
		var notif model.Notification
		if err := json.Unmarshal(env.Data, &notif); err != nil {
			return Event{}, fmt.Errorf("decoding %s payload: %w", env.Type, err)
		}
		event.Notification = &notif

	case model.EventLocationUpdate:
		var loc model.LocationUpdate
		if err := json.Unmarshal(env.Data, &loc); err != nil {
			return Event{}, fmt.Errorf("decoding %s payload: %w", env.Type, err)
		}
		event.Location = &loc

	default:
		return Event{}, fmt.Errorf("unknown push event type %q", env.Type)
	}

	return event, nil
}
