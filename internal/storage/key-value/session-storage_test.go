package key_value

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/iamvkosarev/ai-interior-designer/internal/model"
	"github.com/redis/go-redis/v9"
)

// newTestClient connects to REDIS_ENDPOINT or skips the test.
func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	endpoint := os.Getenv("REDIS_ENDPOINT")
	if endpoint == "" {
		t.Skip("REDIS_ENDPOINT not set, skipping redis storage tests")
	}
	rdb := redis.NewClient(&redis.Options{Addr: endpoint})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis at %s unavailable: %v", endpoint, err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestSessionRoundTripConversion(t *testing.T) {
	session := model.Session{
		SessionID:        uuid.New(),
		OriginalImage:    &model.Image{MIMEType: model.MIMETypePNG, Data: []byte{1, 2, 3}},
		SelectedStyle:    model.DesignStyle{ID: "japandi", Name: "Japandi", Prompt: "zen"},
		Messages:         []model.ChatMessage{model.NewChatMessage(model.MessageSourceAssistant, "hi")},
		IsChatLoading:    true,
		StatusMessage:    "Updating visualization...",
		Generation:       3,
		ImageVersion:     2,
		TransformedImage: nil,
	}

	got, err := fromSessionInternal(toSessionInternal(session))
	if err != nil {
		t.Fatalf("fromSessionInternal() error = %v", err)
	}
	if got.SessionID != session.SessionID || got.Generation != 3 || got.ImageVersion != 2 {
		t.Errorf("ids/counters lost: %+v", got)
	}
	if got.OriginalImage == nil || string(got.OriginalImage.Data) != string([]byte{1, 2, 3}) {
		t.Errorf("original image lost: %+v", got.OriginalImage)
	}
	if got.TransformedImage != nil {
		t.Error("absent transformed image must stay absent")
	}
	if len(got.Messages) != 1 || got.Messages[0].ID != session.Messages[0].ID {
		t.Errorf("messages lost: %+v", got.Messages)
	}
	if got.SelectedStyle.ID != "japandi" || !got.IsChatLoading {
		t.Errorf("style/flags lost: %+v", got)
	}
}

func TestDecodeSessionRejectsUnknownSource(t *testing.T) {
	raw := `{"session_id":"` + uuid.NewString() + `","messages":[{"id":"` + uuid.NewString() +
		`","source":"system","body":"x"}]}`
	if _, err := decodeSession(raw); !errors.Is(err, ErrUnknownMessageSource) {
		t.Errorf("decodeSession() error = %v, want ErrUnknownMessageSource", err)
	}

	raw = `{"session_id":"` + uuid.NewString() + `","messages":[{"id":"` + uuid.NewString() +
		`","source":"model","body":"x"}]}`
	session, err := decodeSession(raw)
	if err != nil {
		t.Fatalf("decodeSession() error = %v", err)
	}
	if session.Messages[0].Source != model.MessageSourceAssistant {
		t.Errorf("source = %q, want assistant", session.Messages[0].Source)
	}
}

func TestSessionStorageRedis(t *testing.T) {
	rdb := newTestClient(t)
	ctx := context.Background()
	storage := NewSessionStorage(rdb, time.Minute)

	session := model.Session{SessionID: uuid.New(), Messages: []model.ChatMessage{}}
	t.Cleanup(func() { _ = storage.DeleteSession(ctx, session.SessionID) })

	if err := storage.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if err := storage.CreateSession(ctx, session); !errors.Is(err, ErrSessionAlreadyExists) {
		t.Errorf("second CreateSession() error = %v, want ErrSessionAlreadyExists", err)
	}

	const writers = 10
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

	got, err := storage.GetSession(ctx, session.SessionID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if len(got.Messages) != writers {
		t.Errorf("len(Messages) = %d, want %d", len(got.Messages), writers)
	}

	if _, err = storage.GetSession(ctx, uuid.New()); !errors.Is(err, model.ErrSessionDoesNotExist) {
		t.Errorf("GetSession(unknown) error = %v, want ErrSessionDoesNotExist", err)
	}
}

func TestTelegramChatStorageRedis(t *testing.T) {
	rdb := newTestClient(t)
	ctx := context.Background()
	storage := NewTelegramChatStorage(rdb, time.Minute)

	telegramID := time.Now().UnixNano()
	t.Cleanup(func() { rdb.Del(ctx, getTelegramChatKey(telegramID)) })

	if _, err := storage.GetSessionIDForTelegramChat(ctx, telegramID); !errors.Is(err, model.ErrTelegramChatDoesNotExist) {
		t.Fatalf("GetSessionIDForTelegramChat() error = %v", err)
	}
	sessionID := uuid.New()
	if err := storage.BindTelegramChat(ctx, telegramID, sessionID); err != nil {
		t.Fatalf("BindTelegramChat() error = %v", err)
	}
	got, err := storage.GetSessionIDForTelegramChat(ctx, telegramID)
	if err != nil || got != sessionID {
		t.Errorf("GetSessionIDForTelegramChat() = (%v, %v), want %v", got, err, sessionID)
	}
}
