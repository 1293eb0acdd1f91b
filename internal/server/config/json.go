package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/mindkeeper/internal/flagx"
	"github.com/dmitrijs2005/mindkeeper/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. Durations accept both "5s" and integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC string         `json:"endpoint_addr_grpc"`
	DatabaseDSN      string         `json:"database_dsn"`
	APIKey           string         `json:"api_key"`
	SecretKey        string         `json:"secret_key"`
	ShutdownTimeout  timex.Duration `json:"shutdown_timeout"`
	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
}

// parseJson overlays config with the values present in the JSON file named
// by -c, -config or $MINDKEEPER_CONFIG. Keys that are absent or empty keep
// their current value. It panics if the file cannot be read or parsed.
func parseJson(config *Config) {

	jsonConfigFile := flagx.ConfigFile()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	overlay(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	overlay(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	overlay(&config.DatabaseDSN, c.DatabaseDSN)
	overlay(&config.APIKey, c.APIKey)
	overlay(&config.SecretKey, c.SecretKey)
	overlay(&config.S3RootUser, c.S3RootUser)
	overlay(&config.S3RootPassword, c.S3RootPassword)
	overlay(&config.S3Bucket, c.S3Bucket)
	overlay(&config.S3Region, c.S3Region)
	overlay(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.ShutdownTimeout.Duration > 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
