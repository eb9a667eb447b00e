package domain

import "errors"

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrLineNotFound      = errors.New("cart line not found")
	ErrRecordNotFound    = errors.New("record not found")
	ErrSelectionRequired = errors.New("size and color selection required")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidCriteria   = errors.New("invalid filter criteria")
	ErrInvalidQuery      = errors.New("invalid query")
	ErrInvalidImage      = errors.New("invalid image")
	ErrInvalidReview     = errors.New("invalid review")
	ErrInvalidCatalog    = errors.New("invalid catalog")
	ErrModelReply        = errors.New("unexpected model reply")
)
