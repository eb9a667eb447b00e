package config

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

type SecretAccessor interface {
	AccessSecret(ctx context.Context, name string) ([]byte, error)
}

// SecretManager reads secret versions from Google Cloud Secret Manager with
// the application default credentials.
type SecretManager struct{}

// AccessSecret returns the payload of a secret version, name has the form
// projects/{project}/secrets/{secret}/versions/{version}.
func (SecretManager) AccessSecret(ctx context.Context, name string) ([]byte, error) {
	const op = "SecretManager.AccessSecret"

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: creating secret manager client: %w", op, err)
	}
	defer client.Close()

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: name,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: accessing secret %s: %w", op, name, err)
	}
	return result.Payload.Data, nil
}

// ResolveAPIKey fills the model API key from the configured secret when the
// key itself is not set.
func (c *Config) ResolveAPIKey(ctx context.Context, secrets SecretAccessor) error {
	const op = "Config.ResolveAPIKey"

	if c.Assistant.APIKey != "" || c.Assistant.APIKeySecret == "" {
		return nil
	}

	data, err := secrets.AccessSecret(ctx, c.Assistant.APIKeySecret)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	c.Assistant.APIKey = strings.TrimSpace(string(data))
	return nil
}
