package realm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/mindkeeper/internal/client/docstore"
)

// Repository is a typed view of one collection. T must round-trip through
// encoding/json and carry its id in a `json:"_id"` field.
type Repository[T any] struct {
	realm      *Realm
	collection string
}

func NewRepository[T any](r *Realm, collection string) *Repository[T] {
	return &Repository[T]{realm: r, collection: collection}
}

func (rp *Repository[T]) Collection() string { return rp.collection }

func (rp *Repository[T]) decode(doc docstore.Document) (*T, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode %s document: %w", rp.collection, err)
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("decode %s document: %w", rp.collection, err)
	}
	return &v, nil
}

func (rp *Repository[T]) decodeAll(ctx context.Context, docs []docstore.Document) []T {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := rp.decode(d)
		if err != nil {
			rp.realm.logger.Warn(ctx, "skipping undecodable document", "collection", rp.collection, "id", d.ID(), "error", err)
			continue
		}
		out = append(out, *v)
	}
	return out
}

// Create stores v and returns the stored form, id included.
func (rp *Repository[T]) Create(ctx context.Context, v *T) (*T, error) {
	doc, err := rp.realm.Create(ctx, rp.collection, v)
	if err != nil {
		return nil, err
	}
	return rp.decode(doc)
}

func (rp *Repository[T]) All(ctx context.Context) ([]T, error) {
	return rp.Find(ctx, nil)
}

func (rp *Repository[T]) Find(ctx context.Context, q docstore.Query) ([]T, error) {
	docs, err := rp.realm.Find(ctx, rp.collection, q)
	if err != nil {
		return nil, err
	}
	return rp.decodeAll(ctx, docs), nil
}

// FindOne returns nil, nil when nothing matches.
func (rp *Repository[T]) FindOne(ctx context.Context, q docstore.Query) (*T, error) {
	items, err := rp.Find(ctx, q)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[0], nil
}

// FindByID returns nil, nil when id is unknown.
func (rp *Repository[T]) FindByID(ctx context.Context, id string) (*T, error) {
	doc, err := rp.realm.ObjectForPrimaryKey(ctx, rp.collection, id)
	if err != nil || doc == nil {
		return nil, err
	}
	return rp.decode(doc)
}

// Update merges partial (a struct or map) into the document with id.
// It returns nil, nil when id is unknown.
func (rp *Repository[T]) Update(ctx context.Context, id string, partial any) (*T, error) {
	doc, err := rp.realm.Update(ctx, rp.collection, id, partial)
	if err != nil || doc == nil {
		return nil, err
	}
	return rp.decode(doc)
}

func (rp *Repository[T]) Delete(ctx context.Context, id string) (bool, error) {
	return rp.realm.Delete(ctx, rp.collection, id)
}
