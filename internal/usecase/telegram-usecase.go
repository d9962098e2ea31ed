package usecase

import (
	"context"
	"errors"
	"fmt"
	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/google/uuid"
	"github.com/iamvkosarev/ai-interior-designer/config"
	"github.com/iamvkosarev/ai-interior-designer/internal/catalog"
	imagecodec "github.com/iamvkosarev/ai-interior-designer/internal/image"
	"github.com/iamvkosarev/ai-interior-designer/internal/logging"
	"github.com/iamvkosarev/ai-interior-designer/internal/model"
	"github.com/iamvkosarev/ai-interior-designer/pkg/local"
	"github.com/sourcegraph/conc"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const (
	CommandStart  = "start"
	CommandHelp   = "help"
	CommandNew    = "new"
	CommandStyles = "styles"

	styleCallbackPrefix = "style:"
	maxButtonsInRow     = 2
	defaultMaxPhotoSize = 10 << 20
)

var ErrPhotoTooLarge = errors.New("photo exceeds size limit")

type TelegramBot interface {
	Send(c api.Chattable) (api.Message, error)
	Request(c api.Chattable) (*api.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config api.UpdateConfig) api.UpdatesChannel
	StopReceivingUpdates()
}

type TelegramUsecaseDeps struct {
	Chats      *TelegramChatUsecase
	Sessions   *SessionUsecase
	Bot        TelegramBot
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// TelegramUsecase is the chat-bot shell over the session controller.
type TelegramUsecase struct {
	TelegramUsecaseDeps
	cfg          config.Telegram
	language     local.Language
	maxPhotoSize int64
	allowedUsers map[int64]struct{}
	handlers     *conc.WaitGroup
}

func NewTelegramUsecase(
	cfg config.Telegram, language local.Language, maxPhotoSize int64, deps TelegramUsecaseDeps,
) (*TelegramUsecase, error) {
	allowedUsers := make(map[int64]struct{})
	for _, userID := range cfg.AllowedTelegramID {
		allowedUsers[userID] = struct{}{}
	}
	if deps.HTTPClient == nil {
		deps.HTTPClient = http.DefaultClient
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	deps.Logger = deps.Logger.With("component", "telegram")
	if maxPhotoSize <= 0 {
		maxPhotoSize = defaultMaxPhotoSize
	}

	_, err := deps.Bot.Request(
		api.NewSetMyCommands(
			[]api.BotCommand{
				{
					Command:     CommandHelp,
					Description: "Get help",
				},
				{
					Command:     CommandStyles,
					Description: "Show design styles",
				},
				{
					Command:     CommandNew,
					Description: "Start over with a new room",
				},
			}...,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set bot commands: %w", err)
	}

	return &TelegramUsecase{
		TelegramUsecaseDeps: deps,
		cfg:                 cfg,
		language:            language,
		maxPhotoSize:        maxPhotoSize,
		allowedUsers:        allowedUsers,
		handlers:            conc.NewWaitGroup(),
	}, nil
}

// Run polls updates until ctx is done, handling each one on its own goroutine.
func (t *TelegramUsecase) Run(ctx context.Context) error {
	u := api.NewUpdate(0)
	u.Timeout = 60

	updates := t.Bot.GetUpdatesChan(u)
	defer t.handlers.Wait()

	for {
		select {
		case <-ctx.Done():
			t.Bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.handlers.Go(
				func() {
					t.HandleUpdate(ctx, update)
				},
			)
		}
	}
}

// Wait blocks until every in-flight update handler has returned.
func (t *TelegramUsecase) Wait() {
	t.handlers.Wait()
}

func (t *TelegramUsecase) HandleUpdate(ctx context.Context, update api.Update) {
	logger := t.Logger.With("update_id", update.UpdateID)
	ctx = logging.WithRequestID(ctx, fmt.Sprintf("tg-%d", update.UpdateID))
	if update.Message != nil {
		if err := t.handleMessage(ctx, update); err != nil {
			logger.Error("error handling message", "error", err)
		}
	}
	if update.CallbackQuery != nil {
		if err := t.handleCallbackQuery(ctx, update); err != nil {
			logger.Error("error handling callback query", "error", err)
		}
	}
}

func (t *TelegramUsecase) isAllowed(chatID int64) bool {
	if len(t.allowedUsers) == 0 {
		return true
	}
	_, ok := t.allowedUsers[chatID]
	return ok
}

func (t *TelegramUsecase) handleCallbackQuery(ctx context.Context, update api.Update) error {
	chatID := update.CallbackQuery.Message.Chat.ID
	callback := api.NewCallback(update.CallbackQuery.ID, "")
	if _, err := t.Bot.Request(callback); err != nil {
		return fmt.Errorf("failed to request callback: %w", err)
	}
	if !t.isAllowed(chatID) {
		t.sendMessageAndHandleErr(chatID, TextTelegramNoAccess.Text(t.language))
		return nil
	}

	styleID, ok := strings.CutPrefix(update.CallbackQuery.Data, styleCallbackPrefix)
	if !ok {
		return nil
	}
	style, ok := catalog.Lookup(styleID)
	if !ok {
		t.sendMessageAndHandleErr(chatID, TextTelegramUnknownCommand.Text(t.language))
		return nil
	}

	session, err := t.Chats.SessionForTelegramChat(ctx, chatID)
	if err != nil {
		t.sendMessageAndHandleErr(chatID, TextTelegramServerError.Text(t.language))
		return fmt.Errorf("failed to get session for chat: %w", err)
	}
	if !session.HasOriginal() {
		t.sendMessageAndHandleErr(chatID, TextTelegramNeedPhoto.Text(t.language))
		return nil
	}

	t.sendMessageAndHandleErr(chatID, TextStatusCrafting.Format(t.language, style.Name))
	t.sendChatAction(chatID, api.ChatUploadPhoto)

	session, err = t.Sessions.Reimagine(ctx, session.SessionID, style.ID)
	switch {
	case errors.Is(err, ErrImageGenerationInProgress):
		t.sendMessageAndHandleErr(chatID, TextTelegramImageBusy.Text(t.language))
		return nil
	case errors.Is(err, ErrTransformationFailed):
		t.sendMessageAndHandleErr(chatID, TextTransformationFailed.Text(t.language))
		return nil
	case err != nil:
		t.sendMessageAndHandleErr(chatID, TextTelegramServerError.Text(t.language))
		return fmt.Errorf("failed to reimagine room: %w", err)
	}
	if !session.HasTransformed() {
		// A newer photo replaced the one this style was applied to.
		return nil
	}

	var caption string
	if len(session.Messages) > 0 {
		caption = session.Messages[len(session.Messages)-1].Body
	}
	if _, err = t.sendPhoto(chatID, *session.TransformedImage, caption); err != nil {
		return fmt.Errorf("failed to send reimagined photo: %w", err)
	}
	return nil
}

func (t *TelegramUsecase) handleMessage(ctx context.Context, update api.Update) error {
	chatID := update.Message.Chat.ID

	if !t.isAllowed(chatID) {
		t.sendMessageAndHandleErr(chatID, TextTelegramNoAccess.Text(t.language))
		return nil
	}

	if update.Message.IsCommand() {
		var answerText string
		switch update.Message.Command() {
		case CommandStart:
			answerText = TextTelegramStart.Text(t.language)
		case CommandHelp:
			answerText = TextTelegramHelp.Text(t.language)
		case CommandStyles:
			return t.sendStylesKeyboard(chatID, TextTelegramPickStyle.Text(t.language))
		case CommandNew:
			if _, err := t.Chats.StartNewSession(ctx, chatID); err != nil {
				t.sendMessageAndHandleErr(chatID, TextTelegramServerError.Text(t.language))
				return fmt.Errorf("failed to start new session: %w", err)
			}
			answerText = TextTelegramNewSession.Text(t.language)
		default:
			answerText = TextTelegramUnknownCommand.Text(t.language)
		}
		t.sendMessageAndHandleErr(chatID, answerText)
		return nil
	}

	if fileID, ok := photoFileID(update.Message); ok {
		return t.handlePhoto(ctx, chatID, fileID)
	}
	return t.handleText(ctx, chatID, update.Message.Text)
}

func (t *TelegramUsecase) handlePhoto(ctx context.Context, chatID int64, fileID string) error {
	session, err := t.Chats.SessionForTelegramChat(ctx, chatID)
	if err != nil {
		t.sendMessageAndHandleErr(chatID, TextTelegramServerError.Text(t.language))
		return fmt.Errorf("failed to get session for chat: %w", err)
	}

	data, err := t.downloadFile(ctx, fileID)
	if err != nil {
		t.sendMessageAndHandleErr(chatID, TextTelegramServerError.Text(t.language))
		return fmt.Errorf("failed to download photo: %w", err)
	}
	img, err := imagecodec.Normalize(data)
	if err != nil {
		t.sendMessageAndHandleErr(chatID, TextTelegramBadPhoto.Text(t.language))
		return nil
	}

	if _, err = t.Sessions.UploadImage(ctx, session.SessionID, img); err != nil {
		t.sendMessageAndHandleErr(chatID, TextTelegramServerError.Text(t.language))
		return fmt.Errorf("failed to upload photo: %w", err)
	}
	return t.sendStylesKeyboard(chatID, TextTelegramPickStyle.Text(t.language))
}

func (t *TelegramUsecase) handleText(ctx context.Context, chatID int64, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	session, err := t.Chats.SessionForTelegramChat(ctx, chatID)
	if err != nil {
		t.sendMessageAndHandleErr(chatID, TextTelegramServerError.Text(t.language))
		return fmt.Errorf("failed to get session for chat: %w", err)
	}

	t.sendChatAction(chatID, api.ChatTyping)
	outcome, err := t.Sessions.SendMessage(ctx, session.SessionID, text)
	switch {
	case errors.Is(err, ErrBlankMessage):
		return nil
	case errors.Is(err, ErrChatInProgress):
		t.sendMessageAndHandleErr(chatID, TextTelegramChatBusy.Text(t.language))
		return nil
	case err != nil:
		t.sendMessageAndHandleErr(chatID, TextTelegramServerError.Text(t.language))
		return fmt.Errorf("failed to send message: %w", err)
	}

	for _, reply := range outcome.Replies {
		t.sendMessageAndHandleErr(chatID, reply.Body)
	}

	if outcome.ImageEdit != nil {
		t.handlers.Go(
			func() {
				t.sendEditedImage(ctx, chatID, session.SessionID, outcome.ImageEdit)
			},
		)
	}
	return nil
}

func (t *TelegramUsecase) sendEditedImage(
	ctx context.Context, chatID int64, sessionID uuid.UUID, edit <-chan bool,
) {
	if applied := <-edit; !applied {
		return
	}
	logger := logging.FromContext(ctx, t.Logger)
	session, err := t.Chats.SessionForTelegramChat(ctx, chatID)
	if err != nil {
		logger.Error("failed to get session for edited image", "error", err)
		return
	}
	if session.SessionID != sessionID || !session.HasTransformed() {
		return
	}
	if _, err = t.sendPhoto(chatID, *session.TransformedImage, ""); err != nil {
		logger.Error("failed to send edited photo", "error", err)
	}
}

func (t *TelegramUsecase) sendStylesKeyboard(chatID int64, text string) error {
	msg := api.NewMessage(chatID, text)
	inlineRows := make([][]api.InlineKeyboardButton, 0)
	inlineButtons := make([]api.InlineKeyboardButton, 0)
	for _, style := range catalog.Styles() {
		if len(inlineButtons) == maxButtonsInRow {
			inlineRows = append(inlineRows, inlineButtons)
			inlineButtons = make([]api.InlineKeyboardButton, 0)
		}
		inlineButtons = append(
			inlineButtons,
			api.NewInlineKeyboardButtonData(style.Icon+" "+style.Name, styleCallbackPrefix+style.ID),
		)
	}
	if len(inlineButtons) > 0 {
		inlineRows = append(inlineRows, inlineButtons)
	}
	msg.ReplyMarkup = api.NewInlineKeyboardMarkup(inlineRows...)
	if _, err := t.Bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send message to bot: %w", err)
	}
	return nil
}

func (t *TelegramUsecase) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := t.Bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, t.maxPhotoSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > t.maxPhotoSize {
		return nil, ErrPhotoTooLarge
	}
	return data, nil
}

// photoFileID picks the largest photo size, or an image sent as a document.
func photoFileID(msg *api.Message) (string, bool) {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID, true
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID, true
	}
	return "", false
}

func (t *TelegramUsecase) sendChatAction(chatID int64, action string) {
	if _, err := t.Bot.Request(api.NewChatAction(chatID, action)); err != nil {
		t.Logger.Warn("failed to send chat action", "error", err)
	}
}

func (t *TelegramUsecase) sendMessageAndHandleErr(chatID int64, message string) api.Message {
	msg, err := t.sendMessage(chatID, message)
	if err != nil {
		t.Logger.Error("failed to send new message to bot", "error", err)
	}
	return msg
}

func (t *TelegramUsecase) sendMessage(chatID int64, message string) (api.Message, error) {
	return t.Bot.Send(api.NewMessage(chatID, message))
}

func (t *TelegramUsecase) sendPhoto(chatID int64, img model.Image, caption string) (api.Message, error) {
	photo := api.NewPhoto(chatID, api.FileBytes{Name: "room.png", Bytes: img.Data})
	photo.Caption = caption
	return t.Bot.Send(photo)
}
