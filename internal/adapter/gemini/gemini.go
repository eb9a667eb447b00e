// Package gemini implements the generative model port with the Google Gen AI
// SDK.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"google.golang.org/genai"
)

var _ port.GenerativeModel = (*Model)(nil)

type Model struct {
	client *genai.Client
}

func New(ctx context.Context, apiKey string) (*Model, error) {
	const op = "gemini.New"

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Model{client}, nil
}

// GenerateJSON returns the text reply of a prompt. With a reply schema the
// model is asked for JSON matching it.
func (m *Model) GenerateJSON(ctx context.Context, p domain.Prompt) ([]byte, error) {
	const op = "Model.GenerateJSON"
	log := slog.With("op", op, "model", p.Model)

	config := generateConfig(p)
	if p.ReplySchema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = toSchema(p.ReplySchema)
	}

	resp, err := m.client.Models.GenerateContent(ctx, p.Model, contents(p), config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	text, err := replyText(resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Debug("model replied", "bytes", len(text))
	return []byte(text), nil
}

// GenerateImage returns the first inline image of the reply.
func (m *Model) GenerateImage(ctx context.Context, p domain.Prompt) (domain.Image, error) {
	const op = "Model.GenerateImage"

	config := generateConfig(p)
	config.ResponseModalities = []string{"TEXT", "IMAGE"}

	resp, err := m.client.Models.GenerateContent(ctx, p.Model, contents(p), config)
	if err != nil {
		return domain.Image{}, fmt.Errorf("%s: %w", op, err)
	}

	img, err := replyImage(resp)
	if err != nil {
		return domain.Image{}, fmt.Errorf("%s: %w", op, err)
	}
	return img, nil
}

func generateConfig(p domain.Prompt) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if p.Instruction != "" {
		config.SystemInstruction = genai.NewContentFromText(p.Instruction, genai.RoleUser)
	}
	return config
}

// contents puts the images before the text, as one user turn.
func contents(p domain.Prompt) []*genai.Content {
	parts := make([]*genai.Part, 0, len(p.Images)+1)
	for _, img := range p.Images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	if p.Text != "" {
		parts = append(parts, genai.NewPartFromText(p.Text))
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

func replyParts(resp *genai.GenerateContentResponse) ([]*genai.Part, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates", domain.ErrModelReply)
	}
	c := resp.Candidates[0]
	if c.Content == nil || len(c.Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty candidate", domain.ErrModelReply)
	}
	return c.Content.Parts, nil
}

func replyText(resp *genai.GenerateContentResponse) (string, error) {
	parts, err := replyParts(resp)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, part := range parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: no text", domain.ErrModelReply)
	}
	return b.String(), nil
}

func replyImage(resp *genai.GenerateContentResponse) (domain.Image, error) {
	parts, err := replyParts(resp)
	if err != nil {
		return domain.Image{}, err
	}
	for _, part := range parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return domain.Image{
				Data:     part.InlineData.Data,
				MIMEType: part.InlineData.MIMEType,
			}, nil
		}
	}
	return domain.Image{}, fmt.Errorf("%w: no image", domain.ErrModelReply)
}

// toSchema converts the subset of JSON Schema used for model replies.
func toSchema(s *jsonschema.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Type:        genai.Type(strings.ToUpper(s.Type)),
		Description: s.Description,
		Required:    slices.Clone(s.Required),
		Items:       toSchema(s.Items),
	}
	for _, v := range s.Enum {
		if str, ok := v.(string); ok {
			out.Enum = append(out.Enum, str)
		}
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toSchema(prop)
			out.PropertyOrdering = append(out.PropertyOrdering, name)
		}
		slices.Sort(out.PropertyOrdering)
	}
	return out
}
