// Package documents stores Data API documents keyed by database, collection
// and _id. Two implementations are provided: an in-memory map for
// development and tests, and PostgreSQL for deployments.
package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/mindkeeper/internal/common"
	"github.com/dmitrijs2005/mindkeeper/internal/dataapi"
)

// Namespace identifies a collection within a logical database.
type Namespace struct {
	Database   string
	Collection string
}

type ReplaceResult struct {
	MatchedCount  int64
	ModifiedCount int64
	UpsertedID    string
}

type Repository interface {
	// FindOne returns the stored document or common.ErrorNotFound.
	FindOne(ctx context.Context, ns Namespace, id string) (json.RawMessage, error)
	// InsertMany stores docs and returns the ids actually inserted.
	// Documents whose _id already exists are skipped.
	InsertMany(ctx context.Context, ns Namespace, docs []json.RawMessage) ([]string, error)
	// ReplaceOne overwrites the document with the given id. With upsert a
	// missing document is created.
	ReplaceOne(ctx context.Context, ns Namespace, id string, doc json.RawMessage, upsert bool) (ReplaceResult, error)
	Ping(ctx context.Context) error
	Close() error
}

// normalize checks doc is a JSON object and makes its _id equal to id.
// An empty id takes the document's own _id.
func normalize(doc json.RawMessage, id string) (string, json.RawMessage, error) {
	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil || m == nil {
		return "", nil, fmt.Errorf("%w: document must be a JSON object", common.ErrorBadRequest)
	}

	own, hasOwn := m[dataapi.IDField].(string)
	switch {
	case id == "" && (!hasOwn || own == ""):
		return "", nil, fmt.Errorf("%w: document has no string _id", common.ErrorBadRequest)
	case id == "":
		id = own
	case hasOwn && own != id:
		return "", nil, fmt.Errorf("%w: _id %q does not match filter %q", common.ErrorBadRequest, own, id)
	}
	m[dataapi.IDField] = id

	out, err := json.Marshal(m)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", common.ErrorBadRequest, err)
	}
	return id, out, nil
}
