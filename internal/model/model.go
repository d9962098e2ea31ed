package model

import (
	"github.com/google/uuid"
	"time"
)

type Session struct {
	SessionID        uuid.UUID
	OriginalImage    *Image
	TransformedImage *Image
	SelectedStyle    DesignStyle
	Messages         []ChatMessage
	IsImageLoading   bool
	IsChatLoading    bool
	StatusMessage    string
	// Generation grows on every upload; results issued under an older value are stale.
	Generation   uint64
	ImageVersion uint64
	UpdatedAt    time.Time
}

func (s *Session) HasOriginal() bool {
	return s.OriginalImage != nil
}

func (s *Session) HasTransformed() bool {
	return s.OriginalImage != nil && s.TransformedImage != nil
}

// Clone copies the message log so callers can't mutate a stored session through it.
func (s Session) Clone() Session {
	messages := make([]ChatMessage, len(s.Messages))
	copy(messages, s.Messages)
	s.Messages = messages
	return s
}
