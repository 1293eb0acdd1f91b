package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-o", "127.0.0.1:9091", "-d", "db", "-k", "key", "-s", "secret",
			"-w", "7", "-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
		}, expectPanic: false,
			expected: &Config{
				EndpointAddrHTTP: "127.0.0.1:9090",
				EndpointAddrGRPC: "127.0.0.1:9091",
				DatabaseDSN:      "db",
				APIKey:           "key",
				SecretKey:        "secret",
				ShutdownTimeout:  7 * time.Second,
				S3RootUser:       "user",
				S3RootPassword:   "password",
				S3Bucket:         "bucket",
				S3Region:         "us-west-1",
				S3BaseEndpoint:   "http://endpoint",
			}},
		{name: "unknown flags are filtered", args: []string{"cmd", "-x", "1", "-c", "cfg.json", "-a", ":1"},
			expected: &Config{EndpointAddrHTTP: ":1"}},
		{name: "bad number panics", args: []string{"cmd", "-w", "soon"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origArgs := os.Args
			t.Cleanup(func() { os.Args = origArgs })
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
