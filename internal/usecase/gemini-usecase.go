package usecase

import (
	"context"
	"errors"
	"fmt"
	"github.com/iamvkosarev/ai-interior-designer/config"
	"github.com/iamvkosarev/ai-interior-designer/internal/logging"
	"github.com/iamvkosarev/ai-interior-designer/internal/model"
	"github.com/iamvkosarev/ai-interior-designer/pkg/local"
	"google.golang.org/genai"
	"log/slog"
	"strings"
)

const (
	restyleInstructionFormat = "Reimagine this room using the %s style. Maintain the architectural layout and windows, " +
		"but replace all furniture and decor to match the style perfectly. High resolution, professional interior photography."
	refineInstructionFormat = "Apply these changes to this interior design image: %s. " +
		"Maintain the overall structure of the room but transform it into a %s."
)

var (
	ErrNoImageInResponse = errors.New("model response contains no image")
	ErrGatewayPanic      = errors.New("gemini gateway panicked")
)

type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// GeminiUsecase is the gateway to Gemini image synthesis and grounded chat. Neither
// operation lets a failure escape as a panic.
type GeminiUsecase struct {
	cfg      config.Gemini
	persona  string
	language local.Language
	models   contentGenerator
	logger   *slog.Logger
}

func NewGeminiUsecase(
	ctx context.Context, cfg config.Gemini, assistantCfg config.Assistant, logger *slog.Logger,
) (*GeminiUsecase, error) {
	client, err := genai.NewClient(
		ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newGeminiUsecase(cfg, assistantCfg, client.Models, logger), nil
}

func newGeminiUsecase(
	cfg config.Gemini, assistantCfg config.Assistant, models contentGenerator, logger *slog.Logger,
) *GeminiUsecase {
	if logger == nil {
		logger = logging.Discard()
	}
	return &GeminiUsecase{
		cfg:      cfg,
		persona:  assistantCfg.Persona,
		language: local.ParseLanguage(assistantCfg.Language),
		models:   models,
		logger:   logger.With("component", "gemini"),
	}
}

// BuildImageInstruction picks the full restyle instruction or, when refinement is
// given, the targeted edit instruction.
func BuildImageInstruction(stylePrompt, refinement string) string {
	if refinement != "" {
		return fmt.Sprintf(refineInstructionFormat, refinement, stylePrompt)
	}
	return fmt.Sprintf(restyleInstructionFormat, stylePrompt)
}

func (g *GeminiUsecase) RegenerateImage(
	ctx context.Context, source model.Image, stylePrompt, refinement string,
) (img model.Image, err error) {
	logger := logging.FromContext(ctx, g.logger)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrGatewayPanic, r)
		}
		if err != nil {
			logger.Error("image generation failed", "error", err, "refinement", refinement != "")
		}
	}()

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	mimeType := source.MIMEType
	if mimeType == "" {
		mimeType = model.MIMETypePNG
	}
	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: source.Data}},
		genai.NewPartFromText(BuildImageInstruction(stylePrompt, refinement)),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig:        &genai.ImageConfig{AspectRatio: g.cfg.AspectRatio},
	}

	res, err := g.models.GenerateContent(ctx, g.cfg.ImageModel, contents, cfg)
	if err != nil {
		return model.Image{}, fmt.Errorf("gemini generate image: %w", err)
	}
	img, ok := firstInlineImage(res)
	if !ok {
		return model.Image{}, ErrNoImageInResponse
	}
	logger.Debug("image generated", "bytes", len(img.Data), "mime_type", img.MIMEType)
	return img, nil
}

func (g *GeminiUsecase) ConsultAssistant(
	ctx context.Context, message string, history []model.HistoryEntry,
) (reply model.AssistantReply) {
	logger := logging.FromContext(ctx, g.logger)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("chat failed", "error", fmt.Errorf("%w: %v", ErrGatewayPanic, r))
			reply = model.AssistantReply{Text: TextAssistantError.Text(g.language)}
		}
	}()

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, entry := range history {
		contents = append(contents, genai.NewContentFromText(entry.Body, parseMessageSourceToGeminiRole(entry.Source)))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(g.persona, genai.RoleUser),
	}
	if g.cfg.GoogleSearch {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	res, err := g.models.GenerateContent(ctx, g.cfg.ChatModel, contents, cfg)
	if err != nil {
		logger.Error("chat failed", "error", err)
		return model.AssistantReply{Text: TextAssistantError.Text(g.language)}
	}

	text := res.Text()
	if strings.TrimSpace(text) == "" {
		text = TextAssistantEmpty.Text(g.language)
	}
	return model.AssistantReply{
		Text:  text,
		Links: groundingLinks(res),
	}
}

func (g *GeminiUsecase) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.cfg.RequestTimeout > 0 {
		return context.WithTimeout(ctx, g.cfg.RequestTimeout)
	}
	return context.WithCancel(ctx)
}

func firstInlineImage(res *genai.GenerateContentResponse) (model.Image, bool) {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return model.Image{}, false
	}
	for _, part := range res.Candidates[0].Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mimeType := part.InlineData.MIMEType
		if mimeType == "" {
			mimeType = model.MIMETypePNG
		}
		return model.Image{MIMEType: mimeType, Data: part.InlineData.Data}, true
	}
	return model.Image{}, false
}

func groundingLinks(res *genai.GenerateContentResponse) []model.GroundingLink {
	links := make([]model.GroundingLink, 0)
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].GroundingMetadata == nil {
		return links
	}
	for _, chunk := range res.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		links = append(
			links, model.GroundingLink{
				Title: chunk.Web.Title,
				URI:   chunk.Web.URI,
			},
		)
	}
	return links
}

func parseMessageSourceToGeminiRole(source model.MessageSource) genai.Role {
	switch source {
	case model.MessageSourceAssistant:
		return genai.RoleModel
	default:
		return genai.RoleUser
	}
}
