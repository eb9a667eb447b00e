package httphandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/niksmo/storefront/internal/core/port"
)

type (
	SearchInput struct {
		Query string `json:"query" jsonschema:"free text matched against name, category, description and tags"`
	}

	FilterInput struct {
		Categories []string `json:"categories,omitempty" jsonschema:"categories to include, new or sale select the special tag"`
		Sizes      []string `json:"sizes,omitempty" jsonschema:"sizes to include"`
		Colors     []string `json:"colors,omitempty" jsonschema:"colors to include"`
		MaxPrice   *float64 `json:"max_price,omitempty" jsonschema:"inclusive price ceiling"`
		Sort       string   `json:"sort,omitempty" jsonschema:"featured, newest, price-asc or price-desc"`
	}

	ProductInput struct {
		ID string `json:"id" jsonschema:"product id"`
	}

	StyleInput struct {
		Message string `json:"message" jsonschema:"what the shopper is looking for"`
	}

	CartInput struct{}

	AddToCartInput struct {
		ProductID string `json:"product_id" jsonschema:"product id"`
		Size      string `json:"size" jsonschema:"one of the product sizes"`
		Color     string `json:"color" jsonschema:"one of the product colors"`
	}
)

// MCPHandler exposes the storefront as MCP tools. Cart tools act on the
// session of the X-Session-ID request header.
type MCPHandler struct {
	catalog   port.CatalogBrowser
	reviews   port.ReviewManager
	carts     port.CartManager
	assistant port.StyleAssistant
}

func NewMCPHandler(
	catalog port.CatalogBrowser,
	reviews port.ReviewManager,
	carts port.CartManager,
	assistant port.StyleAssistant,
) MCPHandler {
	return MCPHandler{catalog, reviews, carts, assistant}
}

// RegisterMCP mounts the stateless streamable MCP endpoint at /mcp.
func RegisterMCP(mux *http.ServeMux, h MCPHandler) {
	server := h.NewMCPServer()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return server },
		&mcp.StreamableHTTPOptions{Stateless: true, JSONResponse: true},
	))
}

func (h MCPHandler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "storefront", Version: "1.0.0"},
		&mcp.ServerOptions{
			Instructions: "Storefront catalog, cart and style assistant.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_products",
		Description: "Search the catalog by free text.",
	}, h.searchProducts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "filter_products",
		Description: "Filter and sort the catalog.",
	}, h.filterProducts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_product",
		Description: "Get a product with its first reviews and related products.",
	}, h.getProduct)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "style_assistant",
		Description: "Ask the style assistant for product recommendations.",
	}, h.styleAssistant)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_cart",
		Description: "Get the shopping bag of the session.",
	}, h.getCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_cart",
		Description: "Add a product in the given size and color to the shopping bag.",
	}, h.addToCart)

	return server
}

func (h MCPHandler) searchProducts(
	_ context.Context, _ *mcp.CallToolRequest, in SearchInput,
) (*mcp.CallToolResult, ProductList, error) {
	return nil, toProductList(h.catalog.Search(in.Query)), nil
}

func (h MCPHandler) filterProducts(
	_ context.Context, _ *mcp.CallToolRequest, in FilterInput,
) (*mcp.CallToolResult, ProductList, error) {
	q := url.Values{
		"category": in.Categories,
		"size":     in.Sizes,
		"color":    in.Colors,
	}
	if in.MaxPrice != nil {
		q.Set("max_price", strconv.FormatFloat(*in.MaxPrice, 'f', -1, 64))
	}
	if in.Sort != "" {
		q.Set("sort", in.Sort)
	}

	criteria, key, err := ParseCriteria(q, h.catalog)
	if err != nil {
		return nil, ProductList{}, mcpError(err)
	}
	ps, err := h.catalog.Browse(criteria, key)
	if err != nil {
		return nil, ProductList{}, mcpError(err)
	}
	return nil, toProductList(ps), nil
}

func (h MCPHandler) getProduct(
	ctx context.Context, req *mcp.CallToolRequest, in ProductInput,
) (*mcp.CallToolResult, ProductPage, error) {
	p, err := h.catalog.Product(in.ID)
	if err != nil {
		return nil, ProductPage{}, mcpError(err)
	}
	// Session is optional here, anonymous callers see catalog reviews only.
	owner, _ := mcpSession(req)
	reviews, total, err := h.reviews.ReviewPage(ctx, owner, in.ID, false)
	if err != nil {
		return nil, ProductPage{}, mcpError(err)
	}
	return nil, ProductPage{
		Product:      toProduct(p),
		Reviews:      toReviews(reviews),
		ReviewsTotal: total,
		Related:      toProducts(h.catalog.Related(in.ID)),
	}, nil
}

func (h MCPHandler) styleAssistant(
	ctx context.Context, _ *mcp.CallToolRequest, in StyleInput,
) (*mcp.CallToolResult, Recommendation, error) {
	rec, err := h.assistant.StyleChat(ctx, in.Message)
	if err != nil {
		return nil, Recommendation{}, mcpError(err)
	}
	return nil, toRecommendation(rec), nil
}

func (h MCPHandler) getCart(
	ctx context.Context, req *mcp.CallToolRequest, _ CartInput,
) (*mcp.CallToolResult, Cart, error) {
	owner, err := mcpSession(req)
	if err != nil {
		return nil, Cart{}, err
	}
	return nil, toCart(h.carts.Cart(ctx, owner)), nil
}

func (h MCPHandler) addToCart(
	ctx context.Context, req *mcp.CallToolRequest, in AddToCartInput,
) (*mcp.CallToolResult, CartLineResult, error) {
	owner, err := mcpSession(req)
	if err != nil {
		return nil, CartLineResult{}, err
	}
	line, err := h.carts.AddToCart(ctx, owner, in.ProductID, in.Size, in.Color)
	if err != nil {
		return nil, CartLineResult{}, mcpError(err)
	}
	return nil, CartLineResult{
		Line:   toCartLine(line),
		Notice: addedNotice(line.Product),
	}, nil
}

func mcpSession(req *mcp.CallToolRequest) (string, error) {
	if req.Extra == nil || req.Extra.Header.Get(SessionHeader) == "" {
		return "", errors.New("session is required")
	}
	return req.Extra.Header.Get(SessionHeader), nil
}

// mcpError turns domain errors into tool errors and hides the rest.
func mcpError(err error) error {
	const op = "httphandler.mcpError"

	if apiErr := toAPIError(err); apiErr != nil {
		return apiErr
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	slog.Error("mcp internal error", "op", op, "err", err)
	return errors.New("internal error")
}
