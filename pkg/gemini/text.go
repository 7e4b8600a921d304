package gemini

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"
)

// DefaultTextModel is the default model for text generation.
const DefaultTextModel = "gemini-2.0-flash"

// Text generates text with the Gemini API, keeping a running conversation
// history. Not safe for concurrent use.
type Text struct {
	client  *genai.Client
	model   string
	system  string
	history []*genai.Content
}

// TextOption configures a Text generator.
type TextOption func(*Text)

// WithSystemPrompt sets the system instruction.
func WithSystemPrompt(prompt string) TextOption {
	return func(t *Text) { t.system = prompt }
}

// NewText creates a text generator. An empty model selects
// DefaultTextModel.
func NewText(ctx context.Context, apiKey, model string, opts ...TextOption) (*Text, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	if model == "" {
		model = DefaultTextModel
	}
	t := &Text{client: client, model: model}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// NewTextWithClient wraps an existing genai client.
func NewTextWithClient(client *genai.Client, model string, opts ...TextOption) *Text {
	if model == "" {
		model = DefaultTextModel
	}
	t := &Text{client: client, model: model}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Reset clears the conversation history.
func (t *Text) Reset() {
	t.history = nil
}

// Generate sends a user message and returns the complete reply, recording
// both in the history.
func (t *Text) Generate(ctx context.Context, message string) (string, error) {
	var sb strings.Builder
	for chunk, err := range t.Stream(ctx, message) {
		if err != nil {
			return "", err
		}
		sb.WriteString(chunk)
	}
	return sb.String(), nil
}

// Stream sends a user message and yields reply chunks as they arrive. The
// full reply is recorded in the history once the stream ends.
func (t *Text) Stream(ctx context.Context, message string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		t.history = append(t.history, genai.NewContentFromText(message, genai.RoleUser))

		cfg := &genai.GenerateContentConfig{}
		if t.system != "" {
			cfg.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: t.system}},
			}
		}

		var reply strings.Builder
		for chunk, err := range t.client.Models.GenerateContentStream(ctx, t.model, t.history, cfg) {
			if err != nil {
				if e, ok := err.(*apierror.APIError); ok {
					err = e.Unwrap()
				}
				yield("", err)
				return
			}
			if len(chunk.Candidates) == 0 || chunk.Candidates[0].Content == nil {
				continue
			}
			for _, p := range chunk.Candidates[0].Content.Parts {
				if p.Text == "" {
					continue
				}
				reply.WriteString(p.Text)
				if !yield(p.Text, nil) {
					return
				}
			}
		}

		if reply.Len() > 0 {
			t.history = append(t.history, genai.NewContentFromText(reply.String(), genai.RoleModel))
		}
	}
}
