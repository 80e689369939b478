package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Part is one element of a prompt: either text or an inline image.
type Part struct {
	Text     string
	Image    []byte
	MIMEType string
}

func TextPart(text string) Part {
	return Part{Text: text}
}

func ImagePart(data []byte, mimeType string) Part {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return Part{Image: data, MIMEType: mimeType}
}

// Request is a single generate-content call. Schema, when set, asks the model
// for schema-constrained JSON output.
type Request struct {
	Parts  []Part
	Schema *genai.Schema
}

// Generator sends one request to a hosted model and returns the response text.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

var ErrEmptyResponse = errors.New("no content generated")

// GeminiGenerator is a Generator backed by the Gemini API.
type GeminiGenerator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model, timeout: timeout}, nil
}

func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	model := g.client.GenerativeModel(g.model)
	if req.Schema != nil {
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = req.Schema
	}

	parts := make([]genai.Part, 0, len(req.Parts))
	for _, p := range req.Parts {
		if len(p.Image) > 0 {
			parts = append(parts, genai.Blob{MIMEType: p.MIMEType, Data: p.Image})
			continue
		}
		parts = append(parts, genai.Text(p.Text))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}
