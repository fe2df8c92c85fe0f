package chat

import (
	"context"
	"fmt"
	"iter"

	"google.golang.org/genai"

	"github.com/PaulBabatuyi/portfolio-api/internal/config"
	"github.com/PaulBabatuyi/portfolio-api/internal/data"
)

// Gemini is a Provider backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	cfg    config.ChatConfig
}

// NewGemini returns a Gemini provider, or Disabled when no API key is set.
func NewGemini(ctx context.Context, cfg config.ChatConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return Disabled{}, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Gemini{client: client, cfg: cfg}, nil
}

func (g *Gemini) generateConfig() *genai.GenerateContentConfig {
	temperature := g.cfg.Temperature
	gc := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: g.cfg.MaxTokens,
	}
	if g.cfg.SystemPrompt != "" {
		gc.SystemInstruction = genai.NewContentFromText(g.cfg.SystemPrompt, genai.RoleUser)
	}
	return gc
}

// contents maps stored turns to Gemini roles. System turns are carried by the
// system instruction instead.
func contents(history []data.ChatMessage) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case data.RoleUser:
			out = append(out, genai.NewContentFromText(m.Content, genai.RoleUser))
		case data.RoleAssistant:
			out = append(out, genai.NewContentFromText(m.Content, genai.RoleModel))
		}
	}
	return out
}

func (g *Gemini) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.cfg.Timeout)
}

func (g *Gemini) Complete(ctx context.Context, history []data.ChatMessage) (string, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, contents(history), g.generateConfig())
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}

func (g *Gemini) Stream(ctx context.Context, history []data.ChatMessage) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, cancel := g.withTimeout(ctx)
		defer cancel()

		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.cfg.Model, contents(history), g.generateConfig()) {
			if err != nil {
				yield("", fmt.Errorf("gemini stream: %w", err))
				return
			}
			if text := resp.Text(); text != "" {
				if !yield(text, nil) {
					return
				}
			}
		}
	}
}
