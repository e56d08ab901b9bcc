// Package secrets resolves the external partner credential from AWS
// Secrets Manager.
package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// API is the slice of the Secrets Manager client this package uses.
type API interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Resolver fetches a named secret and yields its token value. The secret
// may be a bare string or a JSON object with an "api_token" key.
type Resolver struct {
	client   API
	secretID string
}

func NewResolver(client API, secretID string) *Resolver {
	return &Resolver{client: client, secretID: secretID}
}

func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	out, err := r.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &r.secretID,
	})
	if err != nil {
		return "", fmt.Errorf("get secret %s: %w", r.secretID, err)
	}
	if out.SecretString == nil || *out.SecretString == "" {
		return "", fmt.Errorf("secret %s has no string value", r.secretID)
	}

	raw := *out.SecretString

	var doc struct {
		APIToken string `json:"api_token"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err == nil && doc.APIToken != "" {
		return doc.APIToken, nil
	}
	return raw, nil
}
