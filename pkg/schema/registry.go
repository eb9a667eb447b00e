package schema

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/sr"
)

// RegistryIdentifier determines schema ids through a schema registry.
type RegistryIdentifier struct {
	client *sr.Client
}

func NewRegistryIdentifier(client *sr.Client) RegistryIdentifier {
	return RegistryIdentifier{client}
}

// DetermineID registers the avro schema under the subject. The registry
// returns the existing id when the same schema is already registered.
func (ri RegistryIdentifier) DetermineID(
	ctx context.Context, subject string, schemaText string,
) (int, error) {
	const op = "RegistryIdentifier.DetermineID"

	ss, err := ri.client.CreateSchema(
		ctx, subject, sr.Schema{Schema: schemaText, Type: sr.TypeAvro},
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return ss.ID, nil
}
