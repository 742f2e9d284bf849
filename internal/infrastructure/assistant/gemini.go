// Package assistant provides the generative fallback used by the help assistant.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/assetflow/backend/internal/infrastructure/config"
	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const systemPrompt = "You are the help assistant of an equipment and asset request system. Employees request " +
	"products, monitors approve requests, confirm returns and approve due date extensions. Answer in at most " +
	"three short sentences. Never invent stock levels, request statuses or people; if asked for data, tell the " +
	"user to ask \"my requests\", \"my assignments\" or \"is the <product> available\"."

// ErrNotConfigured is returned when no API key is set
var ErrNotConfigured = errors.New("assistant: gemini api key is not configured")

// GeminiResponder answers free-form questions with a Gemini model
type GeminiResponder struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
	logger  *zap.Logger
}

// NewGeminiResponder creates a responder from configuration
func NewGeminiResponder(ctx context.Context, cfg config.AssistantConfig, logger *zap.Logger) (*GeminiResponder, error) {
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		return nil, ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	name := cfg.Model
	if name == "" {
		name = "gemini-1.5-flash"
	}
	model := client.GenerativeModel(name)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	model.SetTemperature(0.3)
	model.SetMaxOutputTokens(256)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	logger.Info("Gemini assistant fallback enabled", zap.String("model", name))
	return &GeminiResponder{client: client, model: model, timeout: timeout, logger: logger}, nil
}

// Reply sends the message to the model and returns its text answer
func (g *GeminiResponder) Reply(ctx context.Context, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.model.GenerateContent(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return replyText(resp)
}

// Close releases the underlying client
func (g *GeminiResponder) Close() error {
	return g.client.Close()
}

func replyText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("empty response from model")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("model response has no text")
	}
	return strings.TrimSpace(sb.String()), nil
}
