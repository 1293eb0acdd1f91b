package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value TEXT NOT NULL)`)
	require.NoError(t, err)
	return db
}

func keys(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM kv`).Scan(&n))
	return n
}

func TestWithTx_Commit(t *testing.T) {
	db := openDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO kv(key, value) VALUES ('mindkeeper_UserData', '[]')`)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 1, keys(t, db))
}

func TestWithTx_RollbackOnError(t *testing.T) {
	db := openDB(t)
	quota := errors.New("quota exceeded")

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO kv(key, value) VALUES ('a', 'b')`)
		require.NoError(t, e)
		return quota
	})
	require.ErrorIs(t, err, quota)
	require.Equal(t, 0, keys(t, db))
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := openDB(t)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic to propagate")
		}
		require.Equal(t, 0, keys(t, db))
	}()

	_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO kv(key, value) VALUES ('a', 'b')`)
		require.NoError(t, e)
		panic("kaput")
	})
}

func TestWithTx_BeginError(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.Close())

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		t.Fatal("fn must not run")
		return nil
	})
	require.ErrorContains(t, err, "begin tx")
}

func TestWithTxValue(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	n, err := WithTxValue(ctx, db, nil, func(ctx context.Context, tx DBTX) (int64, error) {
		return ExecAffected(ctx, tx, `INSERT INTO kv(key, value) VALUES ('a', '1'), ('b', '2')`)
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	n, err = WithTxValue(ctx, db, nil, func(ctx context.Context, tx DBTX) (int64, error) {
		if _, err := ExecAffected(ctx, tx, `DELETE FROM kv`); err != nil {
			return 0, err
		}
		return 7, errors.New("abort")
	})
	require.Error(t, err)
	require.Zero(t, n, "a rolled back transaction yields the zero value")
	require.Equal(t, 2, keys(t, db))
}

func TestExecAffected(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	n, err := ExecAffected(ctx, db, `UPDATE kv SET value = 'x' WHERE key = 'missing'`)
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = ExecAffected(ctx, db, `UPDATE nosuchtable SET value = 'x'`)
	require.ErrorContains(t, err, "db error")
}
