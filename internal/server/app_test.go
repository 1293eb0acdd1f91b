package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/mindkeeper/internal/server/archive"
	"github.com/dmitrijs2005/mindkeeper/internal/server/config"
	"github.com/dmitrijs2005/mindkeeper/internal/server/repositories/documents"
	"github.com/stretchr/testify/require"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func testConfig(t *testing.T) *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddrHTTP = freeAddr(t)
	c.EndpointAddrGRPC = freeAddr(t)
	c.APIKey = "k1"
	c.SecretKey = ""
	c.ShutdownTimeout = time.Second
	return c
}

func TestNewApp_InMemoryByDefault(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t), nil)
	require.NoError(t, err)
	require.IsType(t, &documents.InMemoryRepository{}, app.repo)
	require.IsType(t, archive.Nop{}, app.archiver)
	require.True(t, app.authn.Enabled())
}

func TestNewApp_PostgresError(t *testing.T) {
	orig := openPostgres
	t.Cleanup(func() { openPostgres = orig })
	openPostgres = func(context.Context, string) (documents.Repository, error) {
		return nil, errors.New("refused")
	}

	c := testConfig(t)
	c.DatabaseDSN = "postgres://nowhere"
	_, err := NewApp(context.Background(), c, nil)
	require.ErrorContains(t, err, "db init error")
}

func TestNewApp_UsesPostgresWhenConfigured(t *testing.T) {
	orig := openPostgres
	t.Cleanup(func() { openPostgres = orig })
	mem := documents.NewInMemoryRepository()
	var gotDSN string
	openPostgres = func(_ context.Context, dsn string) (documents.Repository, error) {
		gotDSN = dsn
		return mem, nil
	}

	c := testConfig(t)
	c.DatabaseDSN = "postgres://db"
	app, err := NewApp(context.Background(), c, nil)
	require.NoError(t, err)
	require.Equal(t, "postgres://db", gotDSN)
	require.Same(t, mem, app.repo)
}

func TestRun_ServesAndStops(t *testing.T) {
	c := testConfig(t)
	app, err := NewApp(context.Background(), c, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	body, _ := json.Marshal(map[string]any{
		"dataSource": "Cluster0",
		"database":   "mindkeeper",
		"collection": "userData",
		"filter":     map[string]string{"_id": "u1"},
	})

	require.Eventually(t, func() bool {
		req, _ := http.NewRequest(http.MethodPost, "http://"+c.EndpointAddrHTTP+"/action/findOne", bytes.NewReader(body))
		req.Header.Set("api-key", "k1")
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
