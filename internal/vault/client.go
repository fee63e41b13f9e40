package vault

import (
	"context"
	"fmt"
	"strings"
	"time"

	vaultapi "github.com/hashicorp/vault/api"

	"github.com/vyrodovalexey/authgw/internal/config"
	"github.com/vyrodovalexey/authgw/internal/observability"
)

// DefaultTimeout bounds every Vault request.
const DefaultTimeout = 10 * time.Second

// Client reads KV secrets using token authentication.
type Client struct {
	api    *vaultapi.Client
	logger observability.Logger
}

// New creates a Vault client from configuration. When cfg.Token is empty
// the VAULT_TOKEN environment variable picked up by the Vault SDK is used.
func New(cfg *config.VaultConfig, logger observability.Logger) (*Client, error) {
	if cfg == nil || cfg.Address == "" {
		return nil, NewVaultError("init", "", ErrInvalidConfig)
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	apiConfig := vaultapi.DefaultConfig()
	apiConfig.Address = cfg.Address
	apiConfig.Timeout = cfg.Timeout.OrDefault(DefaultTimeout)
	apiConfig.MaxRetries = 0

	api, err := vaultapi.NewClient(apiConfig)
	if err != nil {
		return nil, NewVaultError("init", "", fmt.Errorf("failed to create vault client: %w", err))
	}
	if cfg.Token != "" {
		api.SetToken(cfg.Token)
	}
	if cfg.Namespace != "" {
		api.SetNamespace(cfg.Namespace)
	}

	return &Client{
		api:    api,
		logger: logger.With(observability.String("component", "vault")),
	}, nil
}

// SplitPath splits "<mount>/<path>" into its mount and secret path.
func SplitPath(fullPath string) (mount, path string, err error) {
	mount, path, ok := strings.Cut(strings.Trim(fullPath, "/"), "/")
	if !ok || mount == "" || path == "" {
		return "", "", NewVaultError("parse", fullPath, ErrInvalidPath)
	}
	return mount, path, nil
}

// Read reads a KV v2 secret and returns its data map. KV v1 mounts are
// handled by falling back to the raw secret data.
func (c *Client) Read(ctx context.Context, mount, path string) (map[string]interface{}, error) {
	fullPath := fmt.Sprintf("%s/data/%s", mount, path)

	secret, err := c.api.Logical().ReadWithContext(ctx, fullPath)
	if err != nil {
		return nil, NewVaultError("kv_read", fullPath, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, NewVaultError("kv_read", fullPath, ErrSecretNotFound)
	}

	dataValue, hasData := secret.Data["data"]
	if hasData && dataValue == nil {
		// soft deleted in KV v2
		return nil, NewVaultError("kv_read", fullPath, ErrSecretNotFound)
	}

	data, ok := dataValue.(map[string]interface{})
	if !ok {
		data = secret.Data
	}

	c.logger.Debug("secret read", observability.String("path", fullPath))
	return data, nil
}

// ReadString reads a single string value from the secret at "<mount>/<path>".
func (c *Client) ReadString(ctx context.Context, fullPath, key string) (string, error) {
	mount, path, err := SplitPath(fullPath)
	if err != nil {
		return "", err
	}

	data, err := c.Read(ctx, mount, path)
	if err != nil {
		return "", err
	}

	value, ok := data[key].(string)
	if !ok || value == "" {
		return "", NewVaultError("kv_read", fullPath, fmt.Errorf("key %q: %w", key, ErrSecretNotFound))
	}
	return value, nil
}

// ReadFirstString returns the first non-empty string among keys, and the
// key it was found under.
func (c *Client) ReadFirstString(ctx context.Context, fullPath string, keys ...string) (key, value string, err error) {
	mount, path, err := SplitPath(fullPath)
	if err != nil {
		return "", "", err
	}

	data, err := c.Read(ctx, mount, path)
	if err != nil {
		return "", "", err
	}

	for _, k := range keys {
		if v, ok := data[k].(string); ok && v != "" {
			return k, v, nil
		}
	}
	return "", "", NewVaultError("kv_read", fullPath,
		fmt.Errorf("none of %s present: %w", strings.Join(keys, ", "), ErrSecretNotFound))
}
