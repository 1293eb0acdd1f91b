package cli

import (
	"bytes"
	"context"
	"encoding/hex"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/mindkeeper/internal/client/config"
	"github.com/dmitrijs2005/mindkeeper/internal/client/models"
	"github.com/dmitrijs2005/mindkeeper/internal/client/storage"
	"github.com/dmitrijs2005/mindkeeper/internal/logging"
	"github.com/stretchr/testify/require"
)

func TestLoadSalt_PersistsAcrossCalls(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV(0)

	s1, err := loadSalt(ctx, kv)
	require.NoError(t, err)
	require.Len(t, s1, saltSize)

	s2, err := loadSalt(ctx, kv)
	require.NoError(t, err)
	require.Equal(t, s1, s2)

	raw, ok, err := kv.Get(ctx, saltKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, hex.EncodeToString(s1), raw)
}

func TestLoadSalt_Corrupted(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV(0)
	require.NoError(t, kv.Set(ctx, saltKey, "not-hex"))

	_, err := loadSalt(ctx, kv)
	require.Error(t, err)
}

func TestNewCodec(t *testing.T) {
	ctx := context.Background()

	t.Run("empty passphrase is unkeyed", func(t *testing.T) {
		kv := storage.NewMemoryKV(0)
		cd, err := newCodec(ctx, kv, "", &bytes.Buffer{})
		require.NoError(t, err)
		require.False(t, cd.Keyed())

		_, ok, err := kv.Get(ctx, saltKey)
		require.NoError(t, err)
		require.False(t, ok, "no salt is needed without a key")
	})

	t.Run("literal passphrase", func(t *testing.T) {
		kv := storage.NewMemoryKV(0)
		cd, err := newCodec(ctx, kv, "correct horse", &bytes.Buffer{})
		require.NoError(t, err)
		require.True(t, cd.Keyed())

		sealed, err := cd.Encode(map[string]string{"a": "b"})
		require.NoError(t, err)

		again, err := newCodec(ctx, kv, "correct horse", &bytes.Buffer{})
		require.NoError(t, err)
		var got map[string]string
		require.NoError(t, again.DecodeInto(sealed, &got))
		require.Equal(t, "b", got["a"])
	})

	t.Run("prompted passphrase", func(t *testing.T) {
		old := readPassword
		t.Cleanup(func() { readPassword = old })
		readPassword = func(int) ([]byte, error) { return []byte("typed"), nil }

		var out bytes.Buffer
		cd, err := newCodec(ctx, storage.NewMemoryKV(0), config.PassphrasePrompt, &out)
		require.NoError(t, err)
		require.True(t, cd.Keyed())
		require.Contains(t, out.String(), "Enter passphrase")
	})
}

func TestNewApp_LocalOnly(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.StorePath = filepath.Join(t.TempDir(), "data", "mk.db")
	cfg.SyncPreference = "bogus"

	a, err := NewApp(ctx, cfg, logging.Nop())
	require.NoError(t, err)
	require.Nil(t, a.watcher)

	var out bytes.Buffer
	a.out = &out
	require.NoError(t, a.Mood(ctx, []string{"3"}))

	u, err := a.journal.CurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, models.SyncLocal, u.SyncPreference)
	require.False(t, a.journal.GetSyncStatus(ctx).IsOnline)

	a.Close(ctx)

	again, err := NewApp(ctx, cfg, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { again.Close(ctx) })

	entries, err := again.journal.ReadRecords(ctx, models.CategoryMood)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestNewApp_WithRemoteHasWatcher(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.StorePath = ""
	cfg.DataAPIURL = "http://127.0.0.1:1"
	cfg.RequestTimeout = 1

	a, err := NewApp(ctx, cfg, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(ctx) })
	require.NotNil(t, a.watcher)
}
