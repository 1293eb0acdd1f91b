package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.EndpointAddrHTTP)
	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
	assert.Equal(t, "", c.DatabaseDSN)
	assert.Equal(t, "", c.APIKey)
	assert.Equal(t, "secretKey", c.SecretKey)
	assert.Equal(t, 5*time.Second, c.ShutdownTimeout)
	assert.Equal(t, "admin", c.S3RootUser)
	assert.Equal(t, "secretpassword", c.S3RootPassword)
	assert.Equal(t, "", c.S3Bucket)
	assert.Equal(t, "us-east-1", c.S3Region)
	assert.Equal(t, "http://127.0.0.1:9000/", c.S3BaseEndpoint)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}
	t.Setenv("MINDKEEPER_CONFIG", "")

	c := LoadConfig()

	require.NotNil(t, c, "LoadConfig must not return nil")

	var want Config
	want.LoadDefaults()
	assert.Equal(t, want, *c)
}
