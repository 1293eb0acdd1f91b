package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mindkeeper/internal/common"
	"github.com/dmitrijs2005/mindkeeper/internal/dbx"
	"github.com/dmitrijs2005/mindkeeper/internal/server/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepository keeps documents as JSONB rows in the documents table.
type PostgresRepository struct {
	db *sql.DB
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// OpenPostgres connects with the pgx driver, verifies the connection and
// migrates the schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return NewPostgresRepository(db), nil
}

func (r *PostgresRepository) FindOne(ctx context.Context, ns Namespace, id string) (json.RawMessage, error) {
	query := `SELECT body FROM documents WHERE database_name=$1 AND collection=$2 AND id=$3`

	var body []byte
	err := r.db.QueryRowContext(ctx, query, ns.Database, ns.Collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select document: %w", err)
	}
	return json.RawMessage(body), nil
}

func (r *PostgresRepository) InsertMany(ctx context.Context, ns Namespace, docs []json.RawMessage) ([]string, error) {
	ids := make([]string, len(docs))
	bodies := make([]json.RawMessage, len(docs))
	for i, d := range docs {
		id, doc, err := normalize(d, "")
		if err != nil {
			return nil, err
		}
		ids[i], bodies[i] = id, doc
	}

	query := `
		INSERT INTO documents (database_name, collection, id, body)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (database_name, collection, id) DO NOTHING`

	inserted := make([]string, 0, len(docs))
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for i := range ids {
			n, err := dbx.ExecAffected(ctx, tx, query, ns.Database, ns.Collection, ids[i], string(bodies[i]))
			if err != nil {
				return err
			}
			if n == 1 {
				inserted = append(inserted, ids[i])
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

func (r *PostgresRepository) ReplaceOne(ctx context.Context, ns Namespace, id string, doc json.RawMessage, upsert bool) (ReplaceResult, error) {
	_, body, err := normalize(doc, id)
	if err != nil {
		return ReplaceResult{}, err
	}

	update := `
		UPDATE documents SET body=$4, updated_at=now()
		WHERE database_name=$1 AND collection=$2 AND id=$3`
	insert := `
		INSERT INTO documents (database_name, collection, id, body)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (database_name, collection, id)
		DO UPDATE SET body = EXCLUDED.body, updated_at = now()`

	return dbx.WithTxValue(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) (ReplaceResult, error) {
		n, err := dbx.ExecAffected(ctx, tx, update, ns.Database, ns.Collection, id, string(body))
		if err != nil {
			return ReplaceResult{}, err
		}
		if n > 0 {
			return ReplaceResult{MatchedCount: n, ModifiedCount: n}, nil
		}
		if !upsert {
			return ReplaceResult{}, nil
		}
		if _, err := tx.ExecContext(ctx, insert, ns.Database, ns.Collection, id, string(body)); err != nil {
			return ReplaceResult{}, fmt.Errorf("db error: %w", err)
		}
		return ReplaceResult{UpsertedID: id}, nil
	})
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
