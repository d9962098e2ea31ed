package usecase

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/iamvkosarev/ai-interior-designer/internal/model"
)

type TelegramChatStorage interface {
	GetSessionIDForTelegramChat(ctx context.Context, telegramID int64) (uuid.UUID, error)
	BindTelegramChat(ctx context.Context, telegramID int64, sessionID uuid.UUID) error
}

type TelegramChatUsecaseDeps struct {
	TelegramChatStorage TelegramChatStorage
	Sessions            *SessionUsecase
}

// TelegramChatUsecase keeps one current session per Telegram chat.
type TelegramChatUsecase struct {
	TelegramChatUsecaseDeps
}

func NewTelegramChatUsecase(deps TelegramChatUsecaseDeps) *TelegramChatUsecase {
	return &TelegramChatUsecase{
		TelegramChatUsecaseDeps: deps,
	}
}

// SessionForTelegramChat returns the chat's session, starting a new one when the chat
// is unknown or its session has expired.
func (u *TelegramChatUsecase) SessionForTelegramChat(ctx context.Context, telegramID int64) (model.Session, error) {
	sessionID, err := u.TelegramChatStorage.GetSessionIDForTelegramChat(ctx, telegramID)
	if errors.Is(err, model.ErrTelegramChatDoesNotExist) {
		return u.StartNewSession(ctx, telegramID)
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to get session id for telegram chat: %w", err)
	}

	session, err := u.Sessions.GetSession(ctx, sessionID)
	if errors.Is(err, model.ErrSessionDoesNotExist) {
		return u.StartNewSession(ctx, telegramID)
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// StartNewSession drops the chat's previous session and binds a fresh one.
func (u *TelegramChatUsecase) StartNewSession(ctx context.Context, telegramID int64) (model.Session, error) {
	previousID, err := u.TelegramChatStorage.GetSessionIDForTelegramChat(ctx, telegramID)
	switch {
	case err == nil:
		if err = u.Sessions.DeleteSession(ctx, previousID); err != nil && !errors.Is(err, model.ErrSessionDoesNotExist) {
			return model.Session{}, fmt.Errorf("failed to delete previous session: %w", err)
		}
	case !errors.Is(err, model.ErrTelegramChatDoesNotExist):
		return model.Session{}, fmt.Errorf("failed to get session id for telegram chat: %w", err)
	}

	session, err := u.Sessions.CreateSession(ctx)
	if err != nil {
		return model.Session{}, err
	}
	if err = u.TelegramChatStorage.BindTelegramChat(ctx, telegramID, session.SessionID); err != nil {
		return model.Session{}, fmt.Errorf("failed to bind telegram chat: %w", err)
	}
	return session, nil
}
