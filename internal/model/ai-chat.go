package model

import (
	"github.com/google/uuid"
	"time"
)

type MessageSource string

const (
	MessageSourceUser      = MessageSource("user")
	MessageSourceAssistant = MessageSource("assistant")
)

type ChatMessage struct {
	ID        uuid.UUID
	Source    MessageSource
	Body      string
	Timestamp time.Time
}

// NewChatMessage stamps the message with a time-ordered id.
func NewChatMessage(source MessageSource, body string) ChatMessage {
	now := time.Now()
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ChatMessage{
		ID:        id,
		Source:    source,
		Body:      body,
		Timestamp: now,
	}
}

// HistoryEntry is a message as the assistant sees it.
type HistoryEntry struct {
	Source MessageSource
	Body   string
}

func HistoryFromMessages(messages []ChatMessage) []HistoryEntry {
	history := make([]HistoryEntry, 0, len(messages))
	for _, message := range messages {
		history = append(
			history, HistoryEntry{
				Source: message.Source,
				Body:   message.Body,
			},
		)
	}
	return history
}

type GroundingLink struct {
	Title string
	URI   string
}

type AssistantReply struct {
	Text  string
	Links []GroundingLink
}
