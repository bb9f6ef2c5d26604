package service

import "github.com/google/uuid"

type EventType string

const (
	EventPostCreated  EventType = "POST_CREATED"
	EventPostDeleted  EventType = "POST_DELETED"
	EventPostLiked    EventType = "POST_LIKED"
	EventPostUnliked  EventType = "POST_UNLIKED"
	EventCommentAdded EventType = "COMMENT_ADDED"
)

// Event is a change to a post that live clients may want to render.
type Event struct {
	Type    EventType   `json:"type"`
	PostID  uuid.UUID   `json:"postId"`
	Payload interface{} `json:"payload,omitempty"`
}

type EventPublisher interface {
	Publish(event Event)
}

type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}
