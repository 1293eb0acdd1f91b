package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/mindkeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-u string   remote data API base URL (empty: local-only)
//	-k string   data API key
//	-d string   local store file (empty: in memory)
//	-s string   passphrase for payload encryption ("prompt" to ask)
//	-m string   sync preference for a new profile (local, daily, weekly)
//	-i int      online check interval in seconds
//	-t int      request timeout in seconds
//	-r int      retry attempts for failed requests
//	-l string   log file
//
// os.Args is filtered with flagx.FilterArgs so the JSON loader's -c/-config
// flags do not interfere.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-u", "-k", "-d", "-s", "-m", "-i", "-t", "-r", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DataAPIURL, "u", cfg.DataAPIURL, "remote data API base URL")
	fs.StringVar(&cfg.APIKey, "k", cfg.APIKey, "data API key")
	fs.StringVar(&cfg.StorePath, "d", cfg.StorePath, "local store file")
	fs.StringVar(&cfg.Passphrase, "s", cfg.Passphrase, "passphrase for payload encryption")
	fs.StringVar(&cfg.SyncPreference, "m", cfg.SyncPreference, "sync preference for a new profile")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.IntVar(&cfg.RetryAttempts, "r", cfg.RetryAttempts, "retry attempts for failed requests")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "log file")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
