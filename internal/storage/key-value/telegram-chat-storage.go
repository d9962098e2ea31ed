package key_value

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/iamvkosarev/ai-interior-designer/internal/model"
	"github.com/redis/go-redis/v9"
	"time"
)

type TelegramChatStorage struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewTelegramChatStorage(rdb *redis.Client, ttl time.Duration) *TelegramChatStorage {
	return &TelegramChatStorage{
		rdb: rdb,
		ttl: ttl,
	}
}

func (t *TelegramChatStorage) GetSessionIDForTelegramChat(ctx context.Context, telegramID int64) (uuid.UUID, error) {
	key := getTelegramChatKey(telegramID)
	sessionIDStr, err := t.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, model.ErrTelegramChatDoesNotExist
		}
		return uuid.Nil, fmt.Errorf("failed to get telegram chat %s: %w", key, err)
	}
	sessionID, err := uuid.Parse(sessionIDStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse session id %s: %w", sessionIDStr, err)
	}
	return sessionID, nil
}

func (t *TelegramChatStorage) BindTelegramChat(ctx context.Context, telegramID int64, sessionID uuid.UUID) error {
	key := getTelegramChatKey(telegramID)
	if err := t.rdb.Set(ctx, key, sessionID.String(), t.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save telegram chat %s: %w", key, err)
	}
	return nil
}

func getTelegramChatKey(id int64) string {
	return fmt.Sprintf("telegram_%d", id)
}
