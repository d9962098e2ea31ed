package web

import (
	"fmt"
	"time"

	"github.com/iamvkosarev/ai-interior-designer/internal/model"
)

type styleView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type messageView struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

type sessionView struct {
	ID               string        `json:"id"`
	OriginalImage    string        `json:"original_image,omitempty"`
	TransformedImage string        `json:"transformed_image,omitempty"`
	SelectedStyle    styleView     `json:"selected_style"`
	Messages         []messageView `json:"messages"`
	ImageLoading     bool          `json:"image_loading"`
	ChatLoading      bool          `json:"chat_loading"`
	Status           string        `json:"status"`
	Alert            string        `json:"alert,omitempty"`
}

type reimagineRequest struct {
	StyleID string `json:"style_id"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type uploadImageRequest struct {
	DataURI string `json:"data_uri"`
}

func toStyleView(style model.DesignStyle) styleView {
	return styleView{
		ID:          style.ID,
		Name:        style.Name,
		Description: style.Description,
		Icon:        style.Icon,
	}
}

func toStylesView(styles []model.DesignStyle) []styleView {
	out := make([]styleView, 0, len(styles))
	for _, style := range styles {
		out = append(out, toStyleView(style))
	}
	return out
}

// toSessionView links images by URL. The version query keeps browsers from showing a
// cached picture after an upload or edit.
func toSessionView(session model.Session) sessionView {
	view := sessionView{
		ID:            session.SessionID.String(),
		SelectedStyle: toStyleView(session.SelectedStyle),
		Messages:      make([]messageView, 0, len(session.Messages)),
		ImageLoading:  session.IsImageLoading,
		ChatLoading:   session.IsChatLoading,
		Status:        session.StatusMessage,
	}
	if session.HasOriginal() {
		view.OriginalImage = imageURL(session, imageKindOriginal)
	}
	if session.HasTransformed() {
		view.TransformedImage = imageURL(session, imageKindTransformed)
	}
	for _, msg := range session.Messages {
		view.Messages = append(
			view.Messages, messageView{
				ID:        msg.ID.String(),
				Source:    string(msg.Source),
				Body:      msg.Body,
				Timestamp: msg.Timestamp,
			},
		)
	}
	return view
}

func imageURL(session model.Session, kind string) string {
	return fmt.Sprintf("/api/sessions/%s/images/%s?v=%d", session.SessionID, kind, session.ImageVersion)
}
