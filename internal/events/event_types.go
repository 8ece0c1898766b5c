package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventPostCreated EventType = "post_created"
	EventPostUpdated EventType = "post_updated"
	EventPostDeleted EventType = "post_deleted"
)

// Event is emitted by the post service after a successful write.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	PostID    int64     `json:"post_id"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
}

// NewPostEvent stamps an event with a fresh id and the current time.
func NewPostEvent(eventType EventType, postID int64, actor string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		PostID:    postID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
	}
}
