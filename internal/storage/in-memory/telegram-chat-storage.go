package in_memory

import (
	"context"
	"github.com/google/uuid"
	"github.com/iamvkosarev/ai-interior-designer/internal/model"
	"sync"
)

type TelegramChatStorage struct {
	mu    sync.RWMutex
	chats map[int64]model.TelegramChat
}

func NewTelegramChatStorage() *TelegramChatStorage {
	return &TelegramChatStorage{
		chats: make(map[int64]model.TelegramChat),
	}
}

func (t *TelegramChatStorage) GetSessionIDForTelegramChat(_ context.Context, telegramID int64) (uuid.UUID, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	chat, ok := t.chats[telegramID]
	if !ok {
		return uuid.Nil, model.ErrTelegramChatDoesNotExist
	}
	return chat.SessionID, nil
}

func (t *TelegramChatStorage) BindTelegramChat(_ context.Context, telegramID int64, sessionID uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.chats[telegramID] = model.TelegramChat{
		TelegramID: telegramID,
		SessionID:  sessionID,
	}
	return nil
}
