package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/mindkeeper/internal/flagx"
	"github.com/dmitrijs2005/mindkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals use
// timex.Duration, so "3s" and integer nanoseconds are both accepted.
type JsonConfig struct {
	DataAPIURL          string         `json:"data_api_url"`
	APIKey              string         `json:"api_key"`
	JWTToken            string         `json:"jwt_token"`
	DataSource          string         `json:"data_source"`
	Database            string         `json:"database"`
	StorePath           *string        `json:"store_path"`
	StorePrefix         string         `json:"store_prefix"`
	StorageQuota        int64          `json:"storage_quota"`
	Passphrase          string         `json:"passphrase"`
	SyncPreference      string         `json:"sync_preference"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	RetryAttempts       *int           `json:"retry_attempts"`
	LogFile             string         `json:"log_file"`
	LogLevel            string         `json:"log_level"`
}

// parseJson overlays cfg with the values present in the file named by -c,
// -config or $MINDKEEPER_CONFIG. Absent keys keep their current value.
// store_path may be set to "" explicitly to select the in-memory store.
//
// It panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFile()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.DataAPIURL, jc.DataAPIURL)
	setString(&cfg.APIKey, jc.APIKey)
	setString(&cfg.JWTToken, jc.JWTToken)
	setString(&cfg.DataSource, jc.DataSource)
	setString(&cfg.Database, jc.Database)
	setString(&cfg.StorePrefix, jc.StorePrefix)
	setString(&cfg.Passphrase, jc.Passphrase)
	setString(&cfg.SyncPreference, jc.SyncPreference)
	setString(&cfg.LogFile, jc.LogFile)
	setString(&cfg.LogLevel, jc.LogLevel)

	if jc.StorePath != nil {
		cfg.StorePath = *jc.StorePath
	}
	if jc.StorageQuota > 0 {
		cfg.StorageQuota = jc.StorageQuota
	}
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.RetryAttempts != nil {
		cfg.RetryAttempts = *jc.RetryAttempts
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
