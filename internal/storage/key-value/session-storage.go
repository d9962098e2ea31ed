package key_value

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/iamvkosarev/ai-interior-designer/internal/model"
	"github.com/redis/go-redis/v9"
	"time"
)

const maxUpdateRetries = 16

var (
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrTooManyConflicts     = errors.New("session update conflicted too many times")
	ErrUnknownMessageSource = errors.New("unknown message source")
)

type imageInternal struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

type messageInternal struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

type styleInternal struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
	Icon        string `json:"icon"`
}

type sessionInternal struct {
	SessionID        string            `json:"session_id"`
	OriginalImage    *imageInternal    `json:"original_image,omitempty"`
	TransformedImage *imageInternal    `json:"transformed_image,omitempty"`
	SelectedStyle    styleInternal     `json:"selected_style"`
	Messages         []messageInternal `json:"messages"`
	IsImageLoading   bool              `json:"is_image_loading"`
	IsChatLoading    bool              `json:"is_chat_loading"`
	StatusMessage    string            `json:"status_message"`
	Generation       uint64            `json:"generation"`
	ImageVersion     uint64            `json:"image_version"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

type SessionStorage struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSessionStorage keeps sessions as JSON documents expiring ttl after their last write.
// A zero ttl keeps them forever.
func NewSessionStorage(rdb *redis.Client, ttl time.Duration) *SessionStorage {
	return &SessionStorage{
		rdb: rdb,
		ttl: ttl,
	}
}

func (s *SessionStorage) CreateSession(ctx context.Context, session model.Session) error {
	session.UpdatedAt = time.Now()
	sessionJSON, err := json.Marshal(toSessionInternal(session))
	if err != nil {
		return fmt.Errorf("failed to marshal internal session: %w", err)
	}
	created, err := s.rdb.SetNX(ctx, getSessionIDKey(session.SessionID), sessionJSON, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.SessionID, err)
	}
	if !created {
		return ErrSessionAlreadyExists
	}
	return nil
}

func (s *SessionStorage) GetSession(ctx context.Context, sessionID uuid.UUID) (model.Session, error) {
	raw, err := s.rdb.Get(ctx, getSessionIDKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Session{}, model.ErrSessionDoesNotExist
		}
		return model.Session{}, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}
	return decodeSession(raw)
}

// UpdateSession runs update inside a WATCH/MULTI transaction and retries when another
// writer touched the session in between.
func (s *SessionStorage) UpdateSession(
	ctx context.Context,
	sessionID uuid.UUID,
	update func(*model.Session) error,
) (model.Session, error) {
	key := getSessionIDKey(sessionID)
	var result model.Session

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrSessionDoesNotExist
			}
			return fmt.Errorf("failed to get session %s: %w", sessionID, err)
		}
		session, err := decodeSession(raw)
		if err != nil {
			return err
		}
		result = session.Clone()
		if err = update(&session); err != nil {
			return err
		}
		session.UpdatedAt = time.Now()
		sessionJSON, err := json.Marshal(toSessionInternal(session))
		if err != nil {
			return fmt.Errorf("failed to marshal internal session: %w", err)
		}
		_, err = tx.TxPipelined(
			ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, sessionJSON, s.ttl)
				return nil
			},
		)
		if err != nil {
			return err
		}
		result = session
		return nil
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return result, err
	}
	return result, ErrTooManyConflicts
}

func (s *SessionStorage) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	deleted, err := s.rdb.Del(ctx, getSessionIDKey(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	if deleted == 0 {
		return model.ErrSessionDoesNotExist
	}
	return nil
}

func decodeSession(raw string) (model.Session, error) {
	var sessionInt sessionInternal
	if err := json.Unmarshal([]byte(raw), &sessionInt); err != nil {
		return model.Session{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return fromSessionInternal(sessionInt)
}

func toSessionInternal(session model.Session) sessionInternal {
	messages := make([]messageInternal, 0, len(session.Messages))
	for _, msg := range session.Messages {
		messages = append(
			messages, messageInternal{
				ID:        msg.ID.String(),
				Source:    string(msg.Source),
				Body:      msg.Body,
				Timestamp: msg.Timestamp,
			},
		)
	}
	style := session.SelectedStyle
	return sessionInternal{
		SessionID:        session.SessionID.String(),
		OriginalImage:    toImageInternal(session.OriginalImage),
		TransformedImage: toImageInternal(session.TransformedImage),
		SelectedStyle: styleInternal{
			ID:          style.ID,
			Name:        style.Name,
			Description: style.Description,
			Prompt:      style.Prompt,
			Icon:        style.Icon,
		},
		Messages:       messages,
		IsImageLoading: session.IsImageLoading,
		IsChatLoading:  session.IsChatLoading,
		StatusMessage:  session.StatusMessage,
		Generation:     session.Generation,
		ImageVersion:   session.ImageVersion,
		UpdatedAt:      session.UpdatedAt,
	}
}

func fromSessionInternal(sessionInt sessionInternal) (model.Session, error) {
	sessionID, err := uuid.Parse(sessionInt.SessionID)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to parse session id %s: %w", sessionInt.SessionID, err)
	}
	messages := make([]model.ChatMessage, 0, len(sessionInt.Messages))
	for _, msg := range sessionInt.Messages {
		messageID, err := uuid.Parse(msg.ID)
		if err != nil {
			return model.Session{}, fmt.Errorf("failed to parse message id %s: %w", msg.ID, err)
		}
		source, ok := model.ParseMessageSource(msg.Source)
		if !ok {
			return model.Session{}, fmt.Errorf("%w: %q", ErrUnknownMessageSource, msg.Source)
		}
		messages = append(
			messages, model.ChatMessage{
				ID:        messageID,
				Source:    source,
				Body:      msg.Body,
				Timestamp: msg.Timestamp,
			},
		)
	}
	style := sessionInt.SelectedStyle
	return model.Session{
		SessionID:        sessionID,
		OriginalImage:    fromImageInternal(sessionInt.OriginalImage),
		TransformedImage: fromImageInternal(sessionInt.TransformedImage),
		SelectedStyle: model.DesignStyle{
			ID:          style.ID,
			Name:        style.Name,
			Description: style.Description,
			Prompt:      style.Prompt,
			Icon:        style.Icon,
		},
		Messages:       messages,
		IsImageLoading: sessionInt.IsImageLoading,
		IsChatLoading:  sessionInt.IsChatLoading,
		StatusMessage:  sessionInt.StatusMessage,
		Generation:     sessionInt.Generation,
		ImageVersion:   sessionInt.ImageVersion,
		UpdatedAt:      sessionInt.UpdatedAt,
	}, nil
}

func toImageInternal(img *model.Image) *imageInternal {
	if img == nil {
		return nil
	}
	return &imageInternal{MIMEType: img.MIMEType, Data: img.Data}
}

func fromImageInternal(img *imageInternal) *model.Image {
	if img == nil {
		return nil
	}
	return &model.Image{MIMEType: img.MIMEType, Data: img.Data}
}

func getSessionIDKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("session_%v", sessionID.String())
}
