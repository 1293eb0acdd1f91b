package config

import (
	"time"

	"github.com/dmitrijs2005/mindkeeper/internal/client/storage"
)

// PassphrasePrompt as the passphrase value asks for it on the terminal.
const PassphrasePrompt = "prompt"

// Config holds runtime settings for the MindKeeper CLI.
//
// An empty DataAPIURL runs the client in local-only mode. An empty StorePath
// keeps data in memory for the lifetime of the process. An empty Passphrase
// leaves envelopes unkeyed.
type Config struct {
	DataAPIURL          string
	APIKey              string
	JWTToken            string
	DataSource          string
	Database            string
	StorePath           string
	StorePrefix         string
	StorageQuota        int64
	Passphrase          string
	SyncPreference      string
	OnlineCheckInterval time.Duration
	RequestTimeout      time.Duration
	RetryAttempts       int
	LogFile             string
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DataSource = "Cluster0"
	c.Database = "mental_health_app"
	c.StorePath = "mindkeeper.db"
	c.StorePrefix = "mental_health"
	c.StorageQuota = storage.DefaultQuota
	c.SyncPreference = "local"
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 15 * time.Second
	c.RetryAttempts = 0
	c.LogFile = "mindkeeper.log"
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
