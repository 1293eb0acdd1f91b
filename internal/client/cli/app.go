package cli

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/mindkeeper/internal/client/client"
	"github.com/dmitrijs2005/mindkeeper/internal/client/config"
	"github.com/dmitrijs2005/mindkeeper/internal/client/models"
	"github.com/dmitrijs2005/mindkeeper/internal/client/realm"
	"github.com/dmitrijs2005/mindkeeper/internal/client/services"
	"github.com/dmitrijs2005/mindkeeper/internal/client/storage"
	"github.com/dmitrijs2005/mindkeeper/internal/client/syncer"
	"github.com/dmitrijs2005/mindkeeper/internal/codec"
	"github.com/dmitrijs2005/mindkeeper/internal/common"
	"github.com/dmitrijs2005/mindkeeper/internal/filex"
	"github.com/dmitrijs2005/mindkeeper/internal/logging"
)

// saltKey lives outside the store prefix so ClearAll keeps it.
const (
	saltKey  = "mindkeeper_salt"
	saltSize = 16
)

type App struct {
	config  *config.Config
	journal services.JournalService
	sync    *syncer.Orchestrator
	watcher *syncer.Watcher
	db      *realm.Realm
	kv      storage.KV
	logger  logging.Logger
	now     func() time.Time
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	if err := filex.EnsureParentDir(c.StorePath); err != nil {
		return nil, err
	}

	kv, err := storage.Open(ctx, c.StorePath, c.StorageQuota)
	if err != nil {
		logger.Error(ctx, "error opening storage", "path", c.StorePath, "error", err)
		return nil, err
	}

	cd, err := newCodec(ctx, kv, c.Passphrase, os.Stdout)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	db, err := realm.Open(ctx, kv, realm.WithPrefix(c.StorePrefix), realm.WithLogger(logger))
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	var (
		remote  client.Client
		watcher *syncer.Watcher
	)
	if c.DataAPIURL != "" {
		dc := client.NewDataAPIClient(client.Config{
			BaseURL:       c.DataAPIURL,
			APIKey:        c.APIKey,
			JWTToken:      c.JWTToken,
			DataSource:    c.DataSource,
			Database:      c.Database,
			Timeout:       c.RequestTimeout,
			RetryAttempts: c.RetryAttempts,
		}, cd, logger)
		remote = dc
	}

	orch := syncer.New(db, remote, syncer.WithLogger(logger))
	orch.Initialize(ctx)
	if remote != nil {
		watcher = syncer.NewWatcher(remote, orch, c.OnlineCheckInterval, logger)
	}

	pref, err := models.ParseSyncPreference(c.SyncPreference)
	if err != nil {
		logger.Warn(ctx, "falling back to local sync preference", "value", c.SyncPreference)
		pref = models.SyncLocal
	}

	js := services.NewJournalService(db, cd, orch,
		services.WithLogger(logger),
		services.WithDefaultPreference(pref),
	)
	if err := js.Bootstrap(ctx); err != nil {
		orch.Cleanup(ctx)
		_ = db.Close()
		_ = kv.Close()
		return nil, err
	}

	return &App{
		config:  c,
		journal: js,
		sync:    orch,
		watcher: watcher,
		db:      db,
		kv:      kv,
		logger:  logger,
		now:     time.Now,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}, nil
}

// newCodec derives the envelope key from passphrase and a per-store salt.
// An empty passphrase yields an unkeyed codec.
func newCodec(ctx context.Context, kv storage.KV, passphrase string, w io.Writer) (*codec.Codec, error) {
	var pass []byte
	switch passphrase {
	case "":
		return codec.New(nil), nil
	case config.PassphrasePrompt:
		p, err := GetPassphrase(w)
		if err != nil {
			return nil, err
		}
		pass = p
	default:
		pass = []byte(passphrase)
	}
	defer common.WipeByteArray(pass)

	salt, err := loadSalt(ctx, kv)
	if err != nil {
		return nil, err
	}
	return codec.NewWithPassphrase(pass, salt), nil
}

func loadSalt(ctx context.Context, kv storage.KV) ([]byte, error) {
	v, ok, err := kv.Get(ctx, saltKey)
	if err != nil {
		return nil, err
	}
	if ok {
		salt, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("corrupted salt: %w", err)
		}
		return salt, nil
	}

	v, err = common.MakeRandHexString(saltSize)
	if err != nil {
		return nil, err
	}
	if err := kv.Set(ctx, saltKey, v); err != nil {
		return nil, err
	}
	return hex.DecodeString(v)
}

// Run blocks in the REPL and releases every resource on return.
func (a *App) Run(ctx context.Context) {
	defer a.Close(context.Background())
	a.Root(ctx)
}

func (a *App) Close(ctx context.Context) {
	if a.sync != nil {
		a.sync.Cleanup(ctx)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error(ctx, "error closing store", "error", err)
		}
	}
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			a.logger.Error(ctx, "error closing storage", "error", err)
		}
	}
}

// StartOnlineStatusWatcher probes the remote until ctx is done.
// Local-only apps have nothing to watch.
func (a *App) StartOnlineStatusWatcher(ctx context.Context) {
	if a.watcher == nil {
		return
	}
	a.watcher.Run(ctx)
}
