package domain

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

var imageTypes = []string{"image/jpeg", "image/png", "image/webp"}

type Image struct {
	Data     []byte
	MIMEType string
}

// Validate accepts non-empty JPEG, PNG and WEBP images.
func (img Image) Validate() error {
	if len(img.Data) == 0 || !slices.Contains(imageTypes, img.MIMEType) {
		return fmt.Errorf(
			"%w: Please upload a valid image file (JPEG, PNG, WEBP).", ErrInvalidImage,
		)
	}
	return nil
}

// A Prompt is a single request to a generative model.
//
// ReplySchema, when set, asks the model for a structured JSON reply.
type Prompt struct {
	Model       string
	Instruction string
	Text        string
	Images      []Image
	ReplySchema *jsonschema.Schema
}

type (
	Recommendation struct {
		Message  string
		Products []Product
		Fallback bool
	}

	Look struct {
		Main      Product
		Rationale string
		Products  []Product
		Fallback  bool
	}

	TryOnResult struct {
		Image    *Image
		Message  string
		Fallback bool
	}
)

type ReviewDraft struct {
	Author string
	Rating int
	Title  string
	Body   string
}

func (d ReviewDraft) Validate() error {
	if d.Rating < 1 || d.Rating > 5 {
		return fmt.Errorf("%w: Please select a rating", ErrInvalidReview)
	}
	if strings.TrimSpace(d.Body) == "" {
		return fmt.Errorf("%w: review text is required", ErrInvalidReview)
	}
	return nil
}
