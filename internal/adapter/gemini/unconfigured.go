package gemini

import (
	"context"
	"errors"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var ErrNoAPIKey = errors.New("model API key is not configured")

var _ port.GenerativeModel = Unconfigured{}

// Unconfigured stands in for [Model] when no API key is set. Every prompt
// fails with [ErrNoAPIKey] and the assistant answers with its fallbacks.
type Unconfigured struct{}

func (Unconfigured) GenerateJSON(context.Context, domain.Prompt) ([]byte, error) {
	return nil, ErrNoAPIKey
}

func (Unconfigured) GenerateImage(context.Context, domain.Prompt) (domain.Image, error) {
	return domain.Image{}, ErrNoAPIKey
}
