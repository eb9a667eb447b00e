package schema

import (
	"time"

	"github.com/hamba/avro/v2"
)

const ActivityEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront",
	"name": "activity_event",
	"fields": [
		{"name": "owner", "type": "string"},
		{"name": "kind", "type": "string"},
		{"name": "action", "type": "string"},
		{"name": "product_id", "type": "string"},
		{"name": "line_id", "type": "string", "default": ""},
		{"name": "count", "type": "long"},
		{"name": "total", "type": "double"},
		{"name": "occurred_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

// ActivityEventV1 is a single shopper cart or wishlist change.
type ActivityEventV1 struct {
	Owner      string    `avro:"owner"`
	Kind       string    `avro:"kind"`
	Action     string    `avro:"action"`
	ProductID  string    `avro:"product_id"`
	LineID     string    `avro:"line_id"`
	Count      int64     `avro:"count"`
	Total      float64   `avro:"total"`
	OccurredAt time.Time `avro:"occurred_at"`
}

// ActivityEventV1Avro returns the parsed schema. Panics on invalid schema text.
func ActivityEventV1Avro() avro.Schema {
	return avro.MustParse(ActivityEventSchemaTextV1)
}
