package usecase

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/iamvkosarev/ai-interior-designer/internal/catalog"
	"github.com/iamvkosarev/ai-interior-designer/internal/logging"
	"github.com/iamvkosarev/ai-interior-designer/internal/model"
	"github.com/iamvkosarev/ai-interior-designer/pkg/local"
	"github.com/sourcegraph/conc"
	"log/slog"
	"strings"
)

var (
	ErrUnknownStyle              = errors.New("unknown design style")
	ErrImageGenerationInProgress = errors.New("image generation already in progress")
	ErrTransformationFailed      = errors.New("room transformation failed")
	ErrBlankMessage              = errors.New("message is blank")
	ErrChatInProgress            = errors.New("chat request already in progress")

	errNoOriginalImage = errors.New("session has no original image")
)

type SessionStorage interface {
	CreateSession(ctx context.Context, session model.Session) error
	GetSession(ctx context.Context, sessionID uuid.UUID) (model.Session, error)
	UpdateSession(ctx context.Context, sessionID uuid.UUID, update func(*model.Session) error) (model.Session, error)
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
}

type ImageGenerator interface {
	RegenerateImage(ctx context.Context, source model.Image, stylePrompt, refinement string) (model.Image, error)
}

type Assistant interface {
	ConsultAssistant(ctx context.Context, message string, history []model.HistoryEntry) model.AssistantReply
}

// EditClassifier reports whether a chat message asks for a change to the picture.
type EditClassifier func(message string) bool

var visualEditKeywords = []string{"make", "add", "change", "remove"}

// IsVisualEditRequest is a plain substring test, so "makeover" or "address" match too.
func IsVisualEditRequest(message string) bool {
	lower := strings.ToLower(message)
	for _, keyword := range visualEditKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

type SessionUsecaseDeps struct {
	SessionStorage SessionStorage
	Images         ImageGenerator
	Assistant      Assistant
	Classifier     EditClassifier
	Logger         *slog.Logger
}

type SessionUsecase struct {
	SessionUsecaseDeps
	language local.Language
	edits    *conc.WaitGroup
}

// MessageOutcome is the result of a chat submission. ImageEdit is nil when no visual
// edit was issued; otherwise it yields once whether the transformed image was replaced.
type MessageOutcome struct {
	Session   model.Session
	Replies   []model.ChatMessage
	ImageEdit <-chan bool
}

func NewSessionUsecase(deps SessionUsecaseDeps, language local.Language) *SessionUsecase {
	if deps.Classifier == nil {
		deps.Classifier = IsVisualEditRequest
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	return &SessionUsecase{
		SessionUsecaseDeps: deps,
		language:           language,
		edits:              conc.NewWaitGroup(),
	}
}

func (s *SessionUsecase) CreateSession(ctx context.Context) (model.Session, error) {
	session := model.Session{
		SessionID:     uuid.New(),
		SelectedStyle: catalog.Default(),
		Messages:      make([]model.ChatMessage, 0),
		StatusMessage: TextStatusSelectStyle.Text(s.language),
	}
	if err := s.SessionStorage.CreateSession(ctx, session); err != nil {
		return model.Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

func (s *SessionUsecase) GetSession(ctx context.Context, sessionID uuid.UUID) (model.Session, error) {
	return s.SessionStorage.GetSession(ctx, sessionID)
}

func (s *SessionUsecase) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	return s.SessionStorage.DeleteSession(ctx, sessionID)
}

// UploadImage starts the session over around a new original image.
func (s *SessionUsecase) UploadImage(ctx context.Context, sessionID uuid.UUID, img model.Image) (model.Session, error) {
	return s.SessionStorage.UpdateSession(
		ctx, sessionID, func(session *model.Session) error {
			original := img
			session.OriginalImage = &original
			session.TransformedImage = nil
			session.Messages = make([]model.ChatMessage, 0)
			session.Generation++
			session.ImageVersion++
			return nil
		},
	)
}

// Reimagine restyles the original image. Without an original image it changes nothing.
func (s *SessionUsecase) Reimagine(ctx context.Context, sessionID uuid.UUID, styleID string) (model.Session, error) {
	style, ok := catalog.Lookup(styleID)
	if !ok {
		return model.Session{}, fmt.Errorf("%w: %q", ErrUnknownStyle, styleID)
	}

	var (
		source     model.Image
		generation uint64
	)
	session, err := s.SessionStorage.UpdateSession(
		ctx, sessionID, func(session *model.Session) error {
			if !session.HasOriginal() {
				return errNoOriginalImage
			}
			if session.IsImageLoading {
				return ErrImageGenerationInProgress
			}
			session.SelectedStyle = style
			session.IsImageLoading = true
			session.StatusMessage = TextStatusCrafting.Format(s.language, style.Name)
			source = *session.OriginalImage
			generation = session.Generation
			return nil
		},
	)
	if errors.Is(err, errNoOriginalImage) {
		return session, nil
	}
	if err != nil {
		return session, err
	}

	logger := logging.FromContext(ctx, s.Logger).With("session_id", sessionID, "style", style.ID)
	ctx = context.WithoutCancel(ctx)
	img, genErr := s.Images.RegenerateImage(ctx, source, style.Prompt, "")

	stale := false
	session, err = s.SessionStorage.UpdateSession(
		ctx, sessionID, func(session *model.Session) error {
			session.IsImageLoading = false
			stale = session.Generation != generation
			if genErr != nil || stale {
				return nil
			}
			transformed := img
			session.TransformedImage = &transformed
			session.ImageVersion++
			session.Messages = []model.ChatMessage{
				model.NewChatMessage(
					model.MessageSourceAssistant,
					TextWelcome.Format(s.language, style.Name, style.Description),
				),
			}
			return nil
		},
	)
	if err != nil {
		return session, fmt.Errorf("failed to store reimagined session: %w", err)
	}
	if genErr != nil {
		return session, fmt.Errorf("%w: %w", ErrTransformationFailed, genErr)
	}
	if stale {
		logger.Info("discarding reimagined image of a replaced upload")
	}
	return session, nil
}

// SendMessage appends the user's message, optionally starts a visual edit in the
// background and waits for the assistant's reply.
func (s *SessionUsecase) SendMessage(ctx context.Context, sessionID uuid.UUID, text string) (MessageOutcome, error) {
	if strings.TrimSpace(text) == "" {
		return MessageOutcome{}, ErrBlankMessage
	}

	var (
		history     []model.HistoryEntry
		visualEdit  bool
		editSource  model.Image
		stylePrompt string
		generation  uint64
	)
	userMessage := model.NewChatMessage(model.MessageSourceUser, text)
	session, err := s.SessionStorage.UpdateSession(
		ctx, sessionID, func(session *model.Session) error {
			if session.IsChatLoading {
				return ErrChatInProgress
			}
			history = model.HistoryFromMessages(session.Messages)
			session.Messages = append(session.Messages, userMessage)
			session.IsChatLoading = true
			generation = session.Generation

			visualEdit = s.Classifier(text) && session.HasOriginal() && !session.IsImageLoading
			if visualEdit {
				session.IsImageLoading = true
				session.StatusMessage = TextStatusUpdating.Text(s.language)
				editSource = *session.OriginalImage
				stylePrompt = session.SelectedStyle.Prompt
			}
			return nil
		},
	)
	if err != nil {
		return MessageOutcome{Session: session}, err
	}

	logger := logging.FromContext(ctx, s.Logger).With("session_id", sessionID)
	ctx = context.WithoutCancel(ctx)

	outcome := MessageOutcome{}
	if visualEdit {
		outcome.ImageEdit = s.startVisualEdit(ctx, logger, sessionID, generation, editSource, stylePrompt, text)
	}

	reply := s.Assistant.ConsultAssistant(ctx, text, history)
	replies := s.assistantMessages(reply)

	stale := false
	session, err = s.SessionStorage.UpdateSession(
		ctx, sessionID, func(session *model.Session) error {
			session.IsChatLoading = false
			stale = session.Generation != generation
			if stale {
				return nil
			}
			session.Messages = append(session.Messages, replies...)
			return nil
		},
	)
	if err != nil {
		return outcome, fmt.Errorf("failed to store assistant reply: %w", err)
	}
	if stale {
		logger.Info("discarding assistant reply for a replaced upload")
		replies = nil
	}
	outcome.Session = session
	outcome.Replies = replies
	return outcome, nil
}

// Wait blocks until every background visual edit has been applied or dropped.
func (s *SessionUsecase) Wait() {
	s.edits.Wait()
}

func (s *SessionUsecase) startVisualEdit(
	ctx context.Context,
	logger *slog.Logger,
	sessionID uuid.UUID,
	generation uint64,
	source model.Image,
	stylePrompt, refinement string,
) <-chan bool {
	done := make(chan bool, 1)
	s.edits.Go(
		func() {
			defer close(done)
			img, genErr := s.Images.RegenerateImage(ctx, source, stylePrompt, refinement)

			applied := false
			_, err := s.SessionStorage.UpdateSession(
				ctx, sessionID, func(session *model.Session) error {
					applied = false
					session.IsImageLoading = false
					if genErr != nil || session.Generation != generation {
						return nil
					}
					transformed := img
					session.TransformedImage = &transformed
					session.ImageVersion++
					applied = true
					return nil
				},
			)
			if err != nil {
				logger.Error("failed to store edited image", "error", err)
				applied = false
			}
			done <- applied
		},
	)
	return done
}

func (s *SessionUsecase) assistantMessages(reply model.AssistantReply) []model.ChatMessage {
	messages := []model.ChatMessage{
		model.NewChatMessage(model.MessageSourceAssistant, reply.Text),
	}
	if len(reply.Links) > 0 {
		messages = append(
			messages,
			model.NewChatMessage(model.MessageSourceAssistant, FormatLinks(TextLinksHeader.Text(s.language), reply.Links)),
		)
	}
	return messages
}

// FormatLinks renders links as "• [title](uri)" lines under header.
func FormatLinks(header string, links []model.GroundingLink) string {
	var b strings.Builder
	b.WriteString(header)
	for _, link := range links {
		b.WriteString("\n• [")
		b.WriteString(link.Title)
		b.WriteString("](")
		b.WriteString(link.URI)
		b.WriteString(")")
	}
	return b.String()
}
