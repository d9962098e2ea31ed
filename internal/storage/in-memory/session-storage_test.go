package in_memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/iamvkosarev/ai-interior-designer/internal/model"
)

func newSession() model.Session {
	return model.Session{
		SessionID:     uuid.New(),
		StatusMessage: "Select a style to begin",
		Messages:      []model.ChatMessage{},
	}
}

func TestSessionStorageCreateGet(t *testing.T) {
	ctx := context.Background()
	storage := NewSessionStorage()
	session := newSession()

	if err := storage.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if err := storage.CreateSession(ctx, session); !errors.Is(err, ErrSessionAlreadyExists) {
		t.Errorf("second CreateSession() error = %v, want ErrSessionAlreadyExists", err)
	}

	got, err := storage.GetSession(ctx, session.SessionID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.SessionID != session.SessionID || got.StatusMessage != session.StatusMessage {
		t.Errorf("GetSession() = %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not stamped")
	}

	if _, err = storage.GetSession(ctx, uuid.New()); !errors.Is(err, model.ErrSessionDoesNotExist) {
		t.Errorf("GetSession(unknown) error = %v, want ErrSessionDoesNotExist", err)
	}
}

func TestSessionStorageUpdateRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	storage := NewSessionStorage()
	session := newSession()
	if err := storage.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	errAbort := errors.New("abort")
	_, err := storage.UpdateSession(
		ctx, session.SessionID, func(s *model.Session) error {
			s.StatusMessage = "changed"
			s.Messages = append(s.Messages, model.NewChatMessage(model.MessageSourceUser, "hi"))
			return errAbort
		},
	)
	if !errors.Is(err, errAbort) {
		t.Fatalf("UpdateSession() error = %v, want errAbort", err)
	}

	got, _ := storage.GetSession(ctx, session.SessionID)
	if got.StatusMessage != session.StatusMessage || len(got.Messages) != 0 {
		t.Errorf("failed update leaked into storage: %+v", got)
	}
}

func TestSessionStorageUpdateIsAtomic(t *testing.T) {
	ctx := context.Background()
	storage := NewSessionStorage()
	session := newSession()
	if err := storage.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := storage.UpdateSession(
				ctx, session.SessionID, func(s *model.Session) error {
					s.Messages = append(s.Messages, model.NewChatMessage(model.MessageSourceUser, "x"))
					return nil
				},
			)
			if err != nil {
				t.Errorf("UpdateSession() error = %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := storage.GetSession(ctx, session.SessionID)
	if len(got.Messages) != writers {
		t.Errorf("len(Messages) = %d, want %d", len(got.Messages), writers)
	}
}

func TestSessionStorageReturnsCopies(t *testing.T) {
	ctx := context.Background()
	storage := NewSessionStorage()
	session := newSession()
	session.Messages = []model.ChatMessage{model.NewChatMessage(model.MessageSourceAssistant, "welcome")}
	if err := storage.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	got, _ := storage.GetSession(ctx, session.SessionID)
	got.Messages[0].Body = "mutated"

	again, _ := storage.GetSession(ctx, session.SessionID)
	if again.Messages[0].Body != "welcome" {
		t.Error("caller mutation reached stored session")
	}
}

func TestSessionStorageDelete(t *testing.T) {
	ctx := context.Background()
	storage := NewSessionStorage()
	session := newSession()
	_ = storage.CreateSession(ctx, session)

	if err := storage.DeleteSession(ctx, session.SessionID); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if err := storage.DeleteSession(ctx, session.SessionID); !errors.Is(err, model.ErrSessionDoesNotExist) {
		t.Errorf("second DeleteSession() error = %v, want ErrSessionDoesNotExist", err)
	}
}

func TestTelegramChatStorage(t *testing.T) {
	ctx := context.Background()
	storage := NewTelegramChatStorage()

	if _, err := storage.GetSessionIDForTelegramChat(ctx, 42); !errors.Is(err, model.ErrTelegramChatDoesNotExist) {
		t.Fatalf("GetSessionIDForTelegramChat() error = %v, want ErrTelegramChatDoesNotExist", err)
	}

	first, second := uuid.New(), uuid.New()
	if err := storage.BindTelegramChat(ctx, 42, first); err != nil {
		t.Fatalf("BindTelegramChat() error = %v", err)
	}
	if err := storage.BindTelegramChat(ctx, 42, second); err != nil {
		t.Fatalf("BindTelegramChat() rebind error = %v", err)
	}
	got, err := storage.GetSessionIDForTelegramChat(ctx, 42)
	if err != nil || got != second {
		t.Errorf("GetSessionIDForTelegramChat() = (%v, %v), want %v", got, err, second)
	}
}
