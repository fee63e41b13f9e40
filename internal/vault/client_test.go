package vault

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/authgw/internal/config"
)

func newTestVault(t *testing.T, secrets map[string]interface{}) *Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("X-Vault-Token"))

		body, ok := secrets[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)

	client, err := New(&config.VaultConfig{Address: server.URL, Token: "test-token"}, nil)
	require.NoError(t, err)
	return client
}

func kv2(data map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": map[string]interface{}{
			"data":     data,
			"metadata": map[string]interface{}{"version": 1},
		},
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := New(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(&config.VaultConfig{}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSplitPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input     string
		wantMount string
		wantPath  string
		wantErr   bool
	}{
		{input: "secret/jwt", wantMount: "secret", wantPath: "jwt"},
		{input: "/secret/gateway/jwt/", wantMount: "secret", wantPath: "gateway/jwt"},
		{input: "secret", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			mount, path, err := SplitPath(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMount, mount)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}

func TestClient_ReadString(t *testing.T) {
	t.Parallel()

	client := newTestVault(t, map[string]interface{}{
		"/v1/secret/data/jwt":   kv2(map[string]interface{}{"publicKey": "abc"}),
		"/v1/secret/data/redis": kv2(map[string]interface{}{"password": ""}),
	})
	ctx := context.Background()

	value, err := client.ReadString(ctx, "secret/jwt", "publicKey")
	require.NoError(t, err)
	assert.Equal(t, "abc", value)

	_, err = client.ReadString(ctx, "secret/redis", "password")
	assert.ErrorIs(t, err, ErrSecretNotFound)

	_, err = client.ReadString(ctx, "secret/missing", "password")
	assert.Error(t, err)
}

func TestClient_ReadFirstString(t *testing.T) {
	t.Parallel()

	client := newTestVault(t, map[string]interface{}{
		"/v1/secret/data/jwt": kv2(map[string]interface{}{"secret": "hmac"}),
	})

	key, value, err := client.ReadFirstString(context.Background(), "secret/jwt", "publicKey", "secret")
	require.NoError(t, err)
	assert.Equal(t, "secret", key)
	assert.Equal(t, "hmac", value)

	_, _, err = client.ReadFirstString(context.Background(), "secret/jwt", "publicKey")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}
