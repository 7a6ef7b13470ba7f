package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"duit/internal/core"
	"duit/internal/log"
)

// Gemini is the production Oracle backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
	logger *log.Logger
	now    func() time.Time
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  model,
		logger: log.New(log.DefaultConfig()).WithComponent(log.ComponentOracle),
		now:    time.Now,
	}, nil
}

// ParseText implements Oracle.
func (g *Gemini) ParseText(ctx context.Context, input string) (*RawDraft, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: textPrompt(g.now())},
				{Text: input},
			},
		},
	}

	raw, err := g.generate(ctx, contents)
	if err != nil {
		return nil, err
	}

	var draft RawDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		// Text mode tolerates a model that ignored the JSON instruction:
		// the repair pipeline turns an empty draft into sane defaults.
		g.logger.WarnContext(ctx, "Model returned non-JSON for text input, degrading to empty draft",
			log.FieldError, err)
		return &RawDraft{}, nil
	}

	return &draft, nil
}

// ParseImage implements Oracle.
func (g *Gemini) ParseImage(ctx context.Context, image []byte, mimeType string) (*RawDraft, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: imagePrompt(g.now())},
				{Text: "Extract transaction details from this receipt:"},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     image,
					},
				},
			},
		},
	}

	raw, err := g.generate(ctx, contents)
	if err != nil {
		return nil, err
	}

	var draft RawDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, fmt.Errorf("%w: unmarshal model response: %v", core.ErrOracle, err)
	}

	return &draft, nil
}

func (g *Gemini) generate(ctx context.Context, contents []*genai.Content) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("%w: generate content: %v", core.ErrOracle, err)
	}

	rawText := resp.Text()
	if strings.TrimSpace(rawText) == "" {
		// An absent answer reads as an empty object.
		return "{}", nil
	}

	return cleanModelJSON(rawText), nil
}

// cleanModelJSON strips Markdown fences and surrounding junk when the
// model ignores the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Keep only the outermost object if junk still surrounds it.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
