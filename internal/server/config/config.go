// Package config handles configuration for the Data API server,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the MindKeeper Data API server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the JSON Data API.
//   - EndpointAddrGRPC: bind address for the gRPC health service.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty keeps documents in memory.
//   - APIKey: value expected in the api-key header. Empty disables key auth.
//   - SecretKey: HMAC secret for verifying jwtTokenString tokens (HS256).
//     Empty disables token auth.
//   - ShutdownTimeout: grace period for in-flight requests on shutdown.
//   - S3RootUser / S3RootPassword: credentials for the S3-compatible backend.
//   - S3Bucket / S3Region / S3BaseEndpoint: object storage settings.
//     An empty bucket disables archiving.
//
// With neither APIKey nor SecretKey set, every request is accepted.
type Config struct {
	EndpointAddrHTTP string
	EndpointAddrGRPC string
	DatabaseDSN      string
	APIKey           string
	SecretKey        string
	ShutdownTimeout  time.Duration
	S3RootUser       string
	S3RootPassword   string
	S3Bucket         string
	S3Region         string
	S3BaseEndpoint   string
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.APIKey = ""
	c.SecretKey = "secretKey"
	c.ShutdownTimeout = 5 * time.Second
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
