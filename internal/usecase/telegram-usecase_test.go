package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamvkosarev/ai-interior-designer/config"
	"github.com/iamvkosarev/ai-interior-designer/internal/model"
	in_memory "github.com/iamvkosarev/ai-interior-designer/internal/storage/in-memory"
	"github.com/iamvkosarev/ai-interior-designer/pkg/local"
)

const testChatID = 42

type fakeBot struct {
	mu       sync.Mutex
	sent     []api.Chattable
	requests []api.Chattable
	fileURL  string
}

func (b *fakeBot) Send(c api.Chattable) (api.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	return api.Message{MessageID: len(b.sent)}, nil
}

func (b *fakeBot) Request(c api.Chattable) (*api.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	return &api.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetFileDirectURL(fileID string) (string, error) {
	return b.fileURL + "/" + fileID, nil
}

func (b *fakeBot) GetUpdatesChan(api.UpdateConfig) api.UpdatesChannel {
	return make(chan api.Update)
}

func (b *fakeBot) StopReceivingUpdates() {}

func (b *fakeBot) texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, c := range b.sent {
		if msg, ok := c.(api.MessageConfig); ok {
			out = append(out, msg.Text)
		}
	}
	return out
}

func (b *fakeBot) photos() []api.PhotoConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []api.PhotoConfig
	for _, c := range b.sent {
		if photo, ok := c.(api.PhotoConfig); ok {
			out = append(out, photo)
		}
	}
	return out
}

func (b *fakeBot) keyboards() []api.InlineKeyboardMarkup {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []api.InlineKeyboardMarkup
	for _, c := range b.sent {
		msg, ok := c.(api.MessageConfig)
		if !ok {
			continue
		}
		if markup, ok := msg.ReplyMarkup.(api.InlineKeyboardMarkup); ok {
			out = append(out, markup)
		}
	}
	return out
}

type telegramFixture struct {
	shell    *TelegramUsecase
	bot      *fakeBot
	sessions *SessionUsecase
	chats    *TelegramChatUsecase
	images   *fakeImages
	assist   *fakeAssistant
}

func roomPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, G: 180, B: 150, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func newTelegramFixture(t *testing.T, allowed ...int64) *telegramFixture {
	t.Helper()
	photo := roomPNG(t)
	files := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "image/png")
				_, _ = w.Write(photo)
			},
		),
	)
	t.Cleanup(files.Close)

	f := &telegramFixture{
		bot:    &fakeBot{fileURL: files.URL},
		images: &fakeImages{result: restyledImage},
		assist: &fakeAssistant{reply: model.AssistantReply{Text: "Nice idea."}},
	}
	f.sessions = NewSessionUsecase(
		SessionUsecaseDeps{
			SessionStorage: in_memory.NewSessionStorage(),
			Images:         f.images,
			Assistant:      f.assist,
		}, local.Eng,
	)
	f.chats = NewTelegramChatUsecase(
		TelegramChatUsecaseDeps{
			TelegramChatStorage: in_memory.NewTelegramChatStorage(),
			Sessions:            f.sessions,
		},
	)
	shell, err := NewTelegramUsecase(
		config.Telegram{AllowedTelegramID: allowed}, local.Eng, 0,
		TelegramUsecaseDeps{
			Chats:    f.chats,
			Sessions: f.sessions,
			Bot:      f.bot,
		},
	)
	if err != nil {
		t.Fatalf("NewTelegramUsecase() error = %v", err)
	}
	f.shell = shell
	t.Cleanup(
		func() {
			f.shell.Wait()
			f.sessions.Wait()
		},
	)
	return f
}

func decodeUpdate(t *testing.T, raw string) api.Update {
	t.Helper()
	var update api.Update
	if err := json.Unmarshal([]byte(raw), &update); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	return update
}

func photoUpdate(t *testing.T) api.Update {
	return decodeUpdate(
		t, `{"update_id":1,"message":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"},
		"photo":[{"file_id":"small","file_unique_id":"s","width":1,"height":1},
		{"file_id":"big","file_unique_id":"b","width":4,"height":4}]}}`,
	)
}

func styleUpdate(t *testing.T, styleID string) api.Update {
	return decodeUpdate(
		t, `{"update_id":2,"callback_query":{"id":"cb1","from":{"id":42,"is_bot":false,"first_name":"A"},
		"message":{"message_id":2,"date":0,"chat":{"id":42,"type":"private"}},
		"chat_instance":"ci","data":"style:`+styleID+`"}}`,
	)
}

func textUpdate(t *testing.T, text string) api.Update {
	payload, _ := json.Marshal(text)
	raw := `{"update_id":3,"message":{"message_id":3,"date":0,"chat":{"id":42,"type":"private"},"text":` +
		string(payload)
	if strings.HasPrefix(text, "/") {
		raw += `,"entities":[{"type":"bot_command","offset":0,"length":` + strconv.Itoa(len(text)) + `}]`
	}
	return decodeUpdate(t, raw+`}}`)
}

func TestTelegramPhotoShowsStyleKeyboard(t *testing.T) {
	ctx := context.Background()
	f := newTelegramFixture(t)

	f.shell.HandleUpdate(ctx, photoUpdate(t))

	keyboards := f.bot.keyboards()
	if len(keyboards) != 1 {
		t.Fatalf("keyboards sent = %d, want 1", len(keyboards))
	}
	var buttons []api.InlineKeyboardButton
	for _, row := range keyboards[0].InlineKeyboard {
		buttons = append(buttons, row...)
	}
	if len(buttons) != 6 {
		t.Fatalf("buttons = %d, want 6", len(buttons))
	}
	if buttons[0].CallbackData == nil || *buttons[0].CallbackData != "style:scandinavian" {
		t.Errorf("first button data = %v", buttons[0].CallbackData)
	}

	session, err := f.chats.SessionForTelegramChat(ctx, testChatID)
	if err != nil {
		t.Fatalf("SessionForTelegramChat() error = %v", err)
	}
	if !session.HasOriginal() || session.OriginalImage.MIMEType != model.MIMETypePNG {
		t.Error("photo not stored as the original image")
	}
}

func TestTelegramStyleCallbackSendsPhoto(t *testing.T) {
	ctx := context.Background()
	f := newTelegramFixture(t)
	f.shell.HandleUpdate(ctx, photoUpdate(t))

	f.shell.HandleUpdate(ctx, styleUpdate(t, "japandi"))

	photos := f.bot.photos()
	if len(photos) != 1 {
		t.Fatalf("photos sent = %d, want 1", len(photos))
	}
	if !strings.Contains(photos[0].Caption, "Japandi") {
		t.Errorf("caption = %q", photos[0].Caption)
	}
	file, ok := photos[0].File.(api.FileBytes)
	if !ok || string(file.Bytes) != "restyled" {
		t.Errorf("photo file = %+v", photos[0].File)
	}
	if !containsText(f.bot.texts(), "Crafting your Japandi space...") {
		t.Errorf("status not sent, texts = %q", f.bot.texts())
	}
}

func TestTelegramStyleCallbackWithoutPhoto(t *testing.T) {
	f := newTelegramFixture(t)
	f.shell.HandleUpdate(context.Background(), styleUpdate(t, "industrial"))

	if !containsText(f.bot.texts(), TextTelegramNeedPhoto.Text(local.Eng)) {
		t.Errorf("texts = %q", f.bot.texts())
	}
	if len(f.images.Calls()) != 0 {
		t.Error("generation started without a photo")
	}
}

func TestTelegramStyleCallbackFailure(t *testing.T) {
	ctx := context.Background()
	f := newTelegramFixture(t)
	f.images.err = context.DeadlineExceeded
	f.shell.HandleUpdate(ctx, photoUpdate(t))

	f.shell.HandleUpdate(ctx, styleUpdate(t, "bohemian"))

	if !containsText(f.bot.texts(), TextTransformationFailed.Text(local.Eng)) {
		t.Errorf("alert not sent, texts = %q", f.bot.texts())
	}
	if len(f.bot.photos()) != 0 {
		t.Error("photo sent after failure")
	}
}

func TestTelegramTextWithVisualEdit(t *testing.T) {
	ctx := context.Background()
	f := newTelegramFixture(t)
	f.shell.HandleUpdate(ctx, photoUpdate(t))
	f.shell.HandleUpdate(ctx, styleUpdate(t, "scandinavian"))

	f.shell.HandleUpdate(ctx, textUpdate(t, "add a green plant"))
	f.shell.Wait()

	if !containsText(f.bot.texts(), "Nice idea.") {
		t.Errorf("reply not sent, texts = %q", f.bot.texts())
	}
	if got := len(f.bot.photos()); got != 2 {
		t.Errorf("photos sent = %d, want reimagined + edited", got)
	}
	calls := f.images.Calls()
	if len(calls) != 2 || calls[1].Refinement != "add a green plant" {
		t.Errorf("image calls = %+v", calls)
	}
}

func TestTelegramNewCommandStartsFreshSession(t *testing.T) {
	ctx := context.Background()
	f := newTelegramFixture(t)
	f.shell.HandleUpdate(ctx, photoUpdate(t))
	before, _ := f.chats.SessionForTelegramChat(ctx, testChatID)

	f.shell.HandleUpdate(ctx, textUpdate(t, "/new"))

	after, err := f.chats.SessionForTelegramChat(ctx, testChatID)
	if err != nil {
		t.Fatalf("SessionForTelegramChat() error = %v", err)
	}
	if after.SessionID == before.SessionID {
		t.Error("/new kept the old session")
	}
	if after.HasOriginal() {
		t.Error("fresh session carries the old photo")
	}
	if _, err = f.sessions.GetSession(ctx, before.SessionID); err == nil {
		t.Error("old session not deleted")
	}
	if !containsText(f.bot.texts(), TextTelegramNewSession.Text(local.Eng)) {
		t.Errorf("texts = %q", f.bot.texts())
	}
}

func TestTelegramCommands(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{"/start", TextTelegramStart.Text(local.Eng)},
		{"/help", TextTelegramHelp.Text(local.Eng)},
		{"/dance", TextTelegramUnknownCommand.Text(local.Eng)},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			f := newTelegramFixture(t)
			f.shell.HandleUpdate(context.Background(), textUpdate(t, tt.command))
			if !containsText(f.bot.texts(), tt.want) {
				t.Errorf("texts = %q, want %q", f.bot.texts(), tt.want)
			}
		})
	}

	f := newTelegramFixture(t)
	f.shell.HandleUpdate(context.Background(), textUpdate(t, "/styles"))
	if len(f.bot.keyboards()) != 1 {
		t.Error("/styles did not show the keyboard")
	}
}

func TestTelegramRejectsUnknownUsers(t *testing.T) {
	f := newTelegramFixture(t, 7)
	f.shell.HandleUpdate(context.Background(), textUpdate(t, "hello"))

	if !containsText(f.bot.texts(), TextTelegramNoAccess.Text(local.Eng)) {
		t.Errorf("texts = %q", f.bot.texts())
	}
	if len(f.assist.Calls()) != 0 {
		t.Error("blocked user reached the assistant")
	}
}

func containsText(texts []string, want string) bool {
	for _, text := range texts {
		if text == want {
			return true
		}
	}
	return false
}
