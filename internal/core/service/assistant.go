package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

const (
	chatFallback   = "I'm sorry, I'm having a little trouble right now. Please try again later."
	visualFallback = "We couldn't find any matches for that look. Please try again."
	tryOnFallback  = "Sorry, something went wrong. Please try another image or check your API key."
	lookFallback   = "We couldn't put together a look right now. Please try again later."

	tryOnMessage = "Here's how it could look on you."
)

const (
	stylistInstruction = `You are a friendly personal stylist for an online fashion store.
Recommend products only from the catalog below, using their exact ids.
Reply in JSON with a short conversational "response" and "productIds",
the recommended product ids ordered from best to worst match.
Catalog: %s`

	visualInstruction = `You are a visual search engine for an online fashion store.
Find the catalog products most similar in style, color and category to the
clothing in the image, using their exact ids. Reply in JSON with a short
"response" describing the look and "productIds" ordered from best match.
Catalog: %s`

	lookInstruction = `You are a fashion stylist completing an outfit.
The shopper is looking at this product: %s
Pick two to four products from the catalog below that complete the outfit.
Never include the product itself. Reply in JSON with a short "rationale"
and "productIds" using exact catalog ids.
Catalog: %s`

	tryOnInstruction = `Generate a realistic photo of the person in the first image
wearing the garment shown in the second image. Keep the person's face, pose,
body and background unchanged.`

	visualSearchText = "Find products that match the outfit in this photo."
)

type AssistantConfig struct {
	TextModel  string
	ImageModel string
}

// recommendationReply is the structured model reply of the chat and visual
// search prompts. Rationale replaces Response in complete-the-look replies.
type recommendationReply struct {
	Response   string   `json:"response"`
	Rationale  string   `json:"rationale"`
	ProductIDs []string `json:"productIds"`
}

type promptProduct struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Colors      []string `json:"colors"`
}

type replySchema struct {
	schema   *jsonschema.Schema
	resolved *jsonschema.Resolved
}

func newReplySchema(messageField string) (replySchema, error) {
	s := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			messageField: {Type: "string"},
			"productIds": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "string"},
			},
		},
		Required: []string{messageField, "productIds"},
	}
	resolved, err := s.Resolve(nil)
	if err != nil {
		return replySchema{}, err
	}
	return replySchema{s, resolved}, nil
}

var _ port.StyleAssistant = (*Assistant)(nil)

// Assistant turns shopper intent into ranked catalog products with a
// generative model. Model failures never surface as errors: the caller gets
// a fixed fallback message and no products.
type Assistant struct {
	catalog domain.Catalog
	model   port.GenerativeModel
	images  port.ImageFetcher
	carts   *Carts
	config  AssistantConfig

	catalogJSON string
	chatSchema  replySchema
	lookSchema  replySchema
}

func NewAssistant(
	catalog domain.Catalog,
	model port.GenerativeModel,
	images port.ImageFetcher,
	carts *Carts,
	config AssistantConfig,
) (*Assistant, error) {
	const op = "NewAssistant"

	catalogJSON, err := promptCatalog(catalog.All())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	chatSchema, err := newReplySchema("response")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	lookSchema, err := newReplySchema("rationale")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Assistant{
		catalog:     catalog,
		model:       model,
		images:      images,
		carts:       carts,
		config:      config,
		catalogJSON: catalogJSON,
		chatSchema:  chatSchema,
		lookSchema:  lookSchema,
	}, nil
}

func (a *Assistant) StyleChat(
	ctx context.Context, message string,
) (domain.Recommendation, error) {
	const op = "Assistant.StyleChat"

	message = strings.TrimSpace(message)
	if message == "" {
		return domain.Recommendation{}, fmt.Errorf(
			"%s: %w: message is empty", op, domain.ErrInvalidQuery,
		)
	}

	reply, err := a.recommend(ctx, a.chatSchema, domain.Prompt{
		Model:       a.config.TextModel,
		Instruction: fmt.Sprintf(stylistInstruction, a.catalogJSON),
		Text:        message,
	})
	return a.recommendation(ctx, op, reply, err, chatFallback)
}

func (a *Assistant) VisualSearch(
	ctx context.Context, img domain.Image,
) (domain.Recommendation, error) {
	const op = "Assistant.VisualSearch"

	if err := img.Validate(); err != nil {
		return domain.Recommendation{}, fmt.Errorf("%s: %w", op, err)
	}

	reply, err := a.recommend(ctx, a.chatSchema, domain.Prompt{
		Model:       a.config.TextModel,
		Instruction: fmt.Sprintf(visualInstruction, a.catalogJSON),
		Text:        visualSearchText,
		Images:      []domain.Image{img},
	})
	return a.recommendation(ctx, op, reply, err, visualFallback)
}

func (a *Assistant) recommendation(
	ctx context.Context,
	op string,
	reply recommendationReply,
	err error,
	fallback string,
) (domain.Recommendation, error) {
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Recommendation{}, fmt.Errorf("%s: %w", op, ctxErr)
		}
		slog.With("op", op).Warn("assistant fallback", "err", err)
		return domain.Recommendation{Message: fallback, Fallback: true}, nil
	}
	return domain.Recommendation{
		Message:  reply.Response,
		Products: a.productsByID(reply.ProductIDs, ""),
	}, nil
}

// CompleteTheLook suggests products that go with the given one. The product
// itself is never part of the look.
func (a *Assistant) CompleteTheLook(
	ctx context.Context, productID string,
) (domain.Look, error) {
	const op = "Assistant.CompleteTheLook"
	log := slog.With("op", op)

	base, ok := a.catalog.Product(productID)
	if !ok {
		return domain.Look{}, fmt.Errorf("%s: %w", op, domain.ErrProductNotFound)
	}
	mainJSON, err := json.Marshal(newPromptProduct(base))
	if err != nil {
		return domain.Look{}, fmt.Errorf("%s: %w", op, err)
	}

	reply, err := a.recommend(ctx, a.lookSchema, domain.Prompt{
		Model:       a.config.TextModel,
		Instruction: fmt.Sprintf(lookInstruction, mainJSON, a.catalogJSON),
		Text:        "Complete the look for " + base.Name + ".",
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Look{}, fmt.Errorf("%s: %w", op, ctxErr)
		}
		log.Warn("assistant fallback", "err", err)
		return domain.Look{Main: base, Rationale: lookFallback, Fallback: true}, nil
	}

	return domain.Look{
		Main:      base,
		Rationale: reply.Rationale,
		Products:  a.productsByID(reply.ProductIDs, base.ID),
	}, nil
}

// AddLookToCart adds one item of every product in its first size and color.
// Nothing is added when any product is unknown or has no size or color.
func (a *Assistant) AddLookToCart(
	ctx context.Context, owner string, productIDs []string,
) (domain.CartSnapshot, error) {
	const op = "Assistant.AddLookToCart"

	if len(productIDs) == 0 {
		return domain.CartSnapshot{}, fmt.Errorf(
			"%s: %w: no products", op, domain.ErrInvalidQuery,
		)
	}

	products := make([]domain.Product, 0, len(productIDs))
	for _, id := range productIDs {
		p, ok := a.catalog.Product(id)
		if !ok {
			return domain.CartSnapshot{}, fmt.Errorf(
				"%s: %w: %q", op, domain.ErrProductNotFound, id,
			)
		}
		if len(p.Sizes) == 0 || len(p.Colors) == 0 {
			return domain.CartSnapshot{}, fmt.Errorf(
				"%s: %w: %q has no default selection", op, domain.ErrSelectionRequired, id,
			)
		}
		products = append(products, p)
	}

	store := a.carts.Store(ctx, owner)
	for _, p := range products {
		if _, err := store.Add(ctx, p, p.Sizes[0], p.Colors[0]); err != nil {
			return domain.CartSnapshot{}, fmt.Errorf("%s: %w", op, err)
		}
	}
	return store.Snapshot(), nil
}

// TryOn renders the shopper photo wearing the product.
func (a *Assistant) TryOn(
	ctx context.Context, productID string, person domain.Image,
) (domain.TryOnResult, error) {
	const op = "Assistant.TryOn"
	log := slog.With("op", op)

	p, ok := a.catalog.Product(productID)
	if !ok {
		return domain.TryOnResult{}, fmt.Errorf("%s: %w", op, domain.ErrProductNotFound)
	}
	if err := person.Validate(); err != nil {
		return domain.TryOnResult{}, fmt.Errorf("%s: %w", op, err)
	}

	img, err := a.tryOn(ctx, p, person)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.TryOnResult{}, fmt.Errorf("%s: %w", op, ctxErr)
		}
		log.Warn("assistant fallback", "err", err)
		return domain.TryOnResult{Message: tryOnFallback, Fallback: true}, nil
	}
	return domain.TryOnResult{Image: &img, Message: tryOnMessage}, nil
}

func (a *Assistant) tryOn(
	ctx context.Context, p domain.Product, person domain.Image,
) (domain.Image, error) {
	garment, err := a.images.FetchImage(ctx, p.Images[0])
	if err != nil {
		return domain.Image{}, err
	}

	img, err := a.model.GenerateImage(ctx, domain.Prompt{
		Model:       a.config.ImageModel,
		Instruction: tryOnInstruction,
		Text:        fmt.Sprintf("The garment is %q, %s.", p.Name, p.Description),
		Images:      []domain.Image{person, garment},
	})
	if err != nil {
		return domain.Image{}, err
	}
	if len(img.Data) == 0 {
		return domain.Image{}, fmt.Errorf("%w: no image in reply", domain.ErrModelReply)
	}
	return img, nil
}

// recommend sends the prompt and validates the reply against the schema.
// Any shape mismatch is an error.
func (a *Assistant) recommend(
	ctx context.Context, rs replySchema, prompt domain.Prompt,
) (recommendationReply, error) {
	prompt.ReplySchema = rs.schema

	data, err := a.model.GenerateJSON(ctx, prompt)
	if err != nil {
		return recommendationReply{}, err
	}
	return parseReply(data, rs.resolved)
}

func parseReply(data []byte, resolved *jsonschema.Resolved) (recommendationReply, error) {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return recommendationReply{}, fmt.Errorf("%w: %w", domain.ErrModelReply, err)
	}
	if err := resolved.Validate(instance); err != nil {
		return recommendationReply{}, fmt.Errorf("%w: %w", domain.ErrModelReply, err)
	}

	var reply recommendationReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return recommendationReply{}, fmt.Errorf("%w: %w", domain.ErrModelReply, err)
	}
	return reply, nil
}

// productsByID maps reply ids to catalog products in reply order. Unknown
// and repeated ids and the excluded id are dropped.
func (a *Assistant) productsByID(ids []string, exclude string) []domain.Product {
	products := make([]domain.Product, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == exclude {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := a.catalog.Product(id); ok {
			products = append(products, p)
		}
	}
	return products
}

func newPromptProduct(p domain.Product) promptProduct {
	return promptProduct{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Tags:        p.Tags,
		Colors:      p.Colors,
	}
}

func promptCatalog(products []domain.Product) (string, error) {
	subset := make([]promptProduct, len(products))
	for i, p := range products {
		subset[i] = newPromptProduct(p)
	}
	data, err := json.Marshal(subset)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
