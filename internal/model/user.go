package model

import (
	"github.com/google/uuid"
)

// TelegramChat binds a Telegram chat to the session it currently works on.
type TelegramChat struct {
	TelegramID int64
	SessionID  uuid.UUID
}
