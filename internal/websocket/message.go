package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	// Client to Server
	MessageTypeSubscribe MessageType = "SUBSCRIBE"

	// Server to Client
	MessageTypeSubscribed   MessageType = "SUBSCRIBED"
	MessageTypePostCreated  MessageType = "POST_CREATED"
	MessageTypePostDeleted  MessageType = "POST_DELETED"
	MessageTypePostLiked    MessageType = "POST_LIKED"
	MessageTypePostUnliked  MessageType = "POST_UNLIKED"
	MessageTypeCommentAdded MessageType = "COMMENT_ADDED"
	MessageTypeError        MessageType = "ERROR"
)

type Message struct {
	Type      MessageType     `json:"type"`
	PostID    *uuid.UUID      `json:"postId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	msg := &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
	}
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Payload = payloadBytes
	}
	return msg, nil
}

// SubscribePayload limits the events a client receives to the listed posts.
// An empty list subscribes to everything.
type SubscribePayload struct {
	PostIDs []uuid.UUID `json:"postIds"`
}

type SubscribedPayload struct {
	PostIDs []uuid.UUID `json:"postIds"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
