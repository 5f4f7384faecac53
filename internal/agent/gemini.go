package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"realia_backend/internal/qualification"
	"realia_backend/platform/config"
	"realia_backend/platform/logger"
)

// Gemini implements Responder, Extractor and StaffAssistant over the
// Gemini API.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	log     *logger.Logger
}

// NewGemini creates the Gemini adapter.
func NewGemini(ctx context.Context, cfg config.GenAIConfig, log *logger.Logger) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &Gemini{
		client:  client,
		model:   cfg.GetGeminiModel(),
		timeout: cfg.GetGenAITimeout(),
		log:     log,
	}, nil
}

func (g *Gemini) generate(ctx context.Context, system, prompt string, jsonOutput bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}
	if jsonOutput {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("empty model response")
	}
	return text, nil
}

// Reply generates the lead-facing reply.
func (g *Gemini) Reply(ctx context.Context, req ReplyRequest) (string, error) {
	return g.generate(ctx, responderSystem, BuildReplyPrompt(req), false)
}

// Extract pulls qualification facts from one exchange. A response that is
// not valid JSON yields an empty extraction rather than an error: a failed
// extraction must never break the conversation turn.
func (g *Gemini) Extract(ctx context.Context, userMessage, reply string) (qualification.Extraction, error) {
	text, err := g.generate(ctx, extractorSystem, BuildExtractionPrompt(userMessage, reply), true)
	if err != nil {
		return qualification.Extraction{}, err
	}

	var e qualification.Extraction
	if err := json.Unmarshal([]byte(stripFences(text)), &e); err != nil {
		g.log.Warn("unparseable extraction", "error", err, "raw", text)
		return qualification.Extraction{}, nil
	}
	return e, nil
}

// ResolveAction turns a staff message into a raw action envelope.
func (g *Gemini) ResolveAction(ctx context.Context, req StaffRequest) ([]byte, error) {
	text, err := g.generate(ctx, staffSystem, BuildStaffPrompt(req), true)
	if err != nil {
		return nil, err
	}
	return []byte(stripFences(text)), nil
}

// stripFences removes a markdown code fence the model sometimes wraps JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
