package usecase

import (
	"context"
	"fmt"
	"github.com/iamvkosarev/ai-interior-designer/config"
	"github.com/iamvkosarev/ai-interior-designer/internal/logging"
	"github.com/iamvkosarev/ai-interior-designer/internal/model"
	"github.com/iamvkosarev/ai-interior-designer/pkg/local"
	openai_tools "github.com/iamvkosarev/ai-interior-designer/pkg/openai-tools"
	"log/slog"
	"net/url"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	OpenAIRoleUser      = "user"
	OpenAIRoleAssistant = "assistant"
	OpenAIRoleUnknown   = "unknown"
)

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIUsecase answers chat turns through an OpenAI-compatible API. It has no web
// search, so its replies never carry links.
type OpenAIUsecase struct {
	cfg      config.OpenAI
	persona  string
	language local.Language
	client   chatCompleter
	logger   *slog.Logger
}

func NewOpenAIUsecase(cfg config.OpenAI, assistantCfg config.Assistant, logger *slog.Logger) (*OpenAIUsecase, error) {
	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		baseURL, err := url.JoinPath(cfg.OpenAIBaseURL, "/v1")
		if err != nil {
			return nil, fmt.Errorf("failed to build openai base url: %w", err)
		}
		clientConfig.BaseURL = baseURL
	}
	return newOpenAIUsecase(cfg, assistantCfg, openai.NewClientWithConfig(clientConfig), logger), nil
}

func newOpenAIUsecase(
	cfg config.OpenAI, assistantCfg config.Assistant, client chatCompleter, logger *slog.Logger,
) *OpenAIUsecase {
	if logger == nil {
		logger = logging.Discard()
	}
	return &OpenAIUsecase{
		cfg:      cfg,
		persona:  assistantCfg.Persona,
		language: local.ParseLanguage(assistantCfg.Language),
		client:   client,
		logger:   logger.With("component", "openai"),
	}
}

func (o *OpenAIUsecase) ConsultAssistant(
	ctx context.Context, message string, history []model.HistoryEntry,
) (reply model.AssistantReply) {
	logger := logging.FromContext(ctx, o.logger)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("chat failed", "error", fmt.Errorf("openai gateway panicked: %v", r))
			reply = model.AssistantReply{Text: TextAssistantError.Text(o.language)}
		}
	}()

	messageHistory := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	for _, entry := range history {
		messageHistory = append(
			messageHistory, openai.ChatCompletionMessage{
				Role:    parseMessageSourceToRole(entry.Source),
				Content: entry.Body,
			},
		)
	}
	messageHistory = append(
		messageHistory, openai.ChatCompletionMessage{
			Role:    OpenAIRoleUser,
			Content: message,
		},
	)

	messageHistory, trimmed, err := openai_tools.TrimHistory(messageHistory, o.cfg.OpenAIModel, o.cfg.MaxHistoryTokens)
	if err != nil {
		logger.Warn("failed to count history tokens, sending untrimmed", "error", err)
	}
	if trimmed > 0 {
		logger.Info("history trimmed due to token limit", "dropped_messages", trimmed)
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(messageHistory)+1)
	if o.persona != "" {
		messages = append(
			messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: o.persona,
			},
		)
	}
	messages = append(messages, messageHistory...)

	req := openai.ChatCompletionRequest{
		Model:       o.cfg.OpenAIModel,
		Temperature: o.cfg.ModelTemperature,
		TopP:        1,
		N:           1,
		Messages:    messages,
	}
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		logger.Error("chat failed", "error", err)
		return model.AssistantReply{Text: TextAssistantError.Text(o.language)}
	}

	var text string
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}
	if strings.TrimSpace(text) == "" {
		text = TextAssistantEmpty.Text(o.language)
	}
	return model.AssistantReply{
		Text:  text,
		Links: make([]model.GroundingLink, 0),
	}
}

func parseMessageSourceToRole(source model.MessageSource) string {
	switch source {
	case model.MessageSourceUser:
		return OpenAIRoleUser
	case model.MessageSourceAssistant:
		return OpenAIRoleAssistant
	default:
		return OpenAIRoleUnknown
	}
}
