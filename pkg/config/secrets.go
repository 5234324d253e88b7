package config

import (
	"context"
	"fmt"
	"log/slog"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// SecretAccessor is the subset of the Secret Manager client used to resolve API keys.
type SecretAccessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

func loadSecrets(ctx context.Context, cfg *Config) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("create secret manager client: %w", err)
	}
	defer func() { _ = client.Close() }()

	resolveSecrets(ctx, &secretAdapter{client: client}, cfg)
	return nil
}

type secretAdapter struct {
	client *secretmanager.Client
}

func (a *secretAdapter) AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	return a.client.AccessSecretVersion(ctx, req)
}

// resolveSecrets fills API keys that are still empty from "<NAME>/versions/latest".
func resolveSecrets(ctx context.Context, accessor SecretAccessor, cfg *Config) {
	targets := []struct {
		name string
		dst  *string
	}{
		{"GEMINI_API_KEY", &cfg.GeminiAPIKey},
		{"GROQ_API_KEY", &cfg.GroqAPIKey},
	}

	for _, target := range targets {
		if *target.dst != "" {
			continue
		}
		value, err := accessSecret(ctx, accessor, cfg.GCPProject, target.name)
		if err != nil {
			slog.Debug("Secret not available", "secret", target.name, "error", err)
			continue
		}
		*target.dst = value
		slog.Info("Loaded secret from Secret Manager", "secret", target.name)
	}
}

func accessSecret(ctx context.Context, accessor SecretAccessor, project, name string) (string, error) {
	resp, err := accessor.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", project, name),
	})
	if err != nil {
		return "", fmt.Errorf("access secret %s: %w", name, err)
	}
	if resp.GetPayload() == nil || len(resp.GetPayload().GetData()) == 0 {
		return "", fmt.Errorf("secret %s is empty", name)
	}
	return string(resp.GetPayload().GetData()), nil
}
