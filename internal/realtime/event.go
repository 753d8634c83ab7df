package realtime

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types pushed to group subscribers.
const (
	EventMemberJoined    = "member.joined"
	EventMemberLeft      = "member.left"
	EventMemberRemoved   = "member.removed"
	EventGroupUpdated    = "group.updated"
	EventGroupDeleted    = "group.deleted"
	EventLocationCreated = "location.created"
	EventLocationUpdated = "location.updated"
	EventLocationDeleted = "location.deleted"
	EventPhotoUploaded   = "photo.uploaded"
	EventPhotoMoved      = "photo.moved"
	EventPhotoDeleted    = "photo.deleted"
)

// Event is one activity notification for a group.
type Event struct {
	Type    string      `json:"type"`
	GroupID uuid.UUID   `json:"groupId"`
	ActorID uuid.UUID   `json:"actorId"`
	Payload interface{} `json:"payload,omitempty"`
	At      time.Time   `json:"at"`
}

// Publisher delivers group events. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}

// NewEvent stamps an event with the current time.
func NewEvent(eventType string, groupID, actorID uuid.UUID, payload interface{}) Event {
	return Event{Type: eventType, GroupID: groupID, ActorID: actorID, Payload: payload, At: time.Now().UTC()}
}
