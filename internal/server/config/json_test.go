package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	t.Setenv("MINDKEEPER_CONFIG", "")

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_http": "www.example:8000",
		"endpoint_addr_grpc": "www.example:9000",
		"database_dsn":       "postgres://db",
		"api_key":            "key",
		"secret_key":         "my_secret_key",
		"shutdown_timeout":   "9s",
		"s3_root_user":       "user",
		"s3_root_password":   "password",
		"s3_bucket":          "bucket",
		"s3_region":          "region",
		"s3_base_endpoint":   "base_endpoint",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "www.example:8000", cfg.EndpointAddrHTTP)
		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, "key", cfg.APIKey)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 9*time.Second, cfg.ShutdownTimeout)
		assert.Equal(t, "user", cfg.S3RootUser)
		assert.Equal(t, "password", cfg.S3RootPassword)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "region", cfg.S3Region)
		assert.Equal(t, "base_endpoint", cfg.S3BaseEndpoint)
	})

	t.Run("env var names the file", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv("MINDKEEPER_CONFIG", pathFlag)

		cfg := &Config{}
		parseJson(cfg)
		assert.Equal(t, "www.example:8000", cfg.EndpointAddrHTTP)
	})

	t.Run("absent keys keep current values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"api_key": "other"})
		os.Args = []string{"testbin", "-c", partial}

		var cfg Config
		cfg.LoadDefaults()
		parseJson(&cfg)

		assert.Equal(t, "other", cfg.APIKey)
		assert.Equal(t, ":8080", cfg.EndpointAddrHTTP)
		assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	})

	t.Run("no CONFIG and no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			EndpointAddrHTTP: "defaults:1234",
			SecretKey:        "key",
			ShutdownTimeout:  2 * time.Second,
		}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrHTTP)
		assert.Equal(t, "key", cfg.SecretKey)
		assert.Equal(t, 2*time.Second, cfg.ShutdownTimeout)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}
		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})

	t.Run("missing file → panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", filepath.Join(dir, "nope.json")}
		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
