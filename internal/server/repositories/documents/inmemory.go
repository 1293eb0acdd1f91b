package documents

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dmitrijs2005/mindkeeper/internal/common"
)

type InMemoryRepository struct {
	mu   sync.RWMutex
	data map[Namespace]map[string]json.RawMessage
}

var _ Repository = (*InMemoryRepository)(nil)

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{data: make(map[Namespace]map[string]json.RawMessage)}
}

func (r *InMemoryRepository) FindOne(ctx context.Context, ns Namespace, id string) (json.RawMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.data[ns][id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return append(json.RawMessage(nil), doc...), nil
}

func (r *InMemoryRepository) InsertMany(ctx context.Context, ns Namespace, docs []json.RawMessage) ([]string, error) {
	type item struct {
		id  string
		doc json.RawMessage
	}
	items := make([]item, 0, len(docs))
	for _, d := range docs {
		id, doc, err := normalize(d, "")
		if err != nil {
			return nil, err
		}
		items = append(items, item{id, doc})
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	coll := r.collection(ns)
	inserted := make([]string, 0, len(items))
	for _, it := range items {
		if _, exists := coll[it.id]; exists {
			continue
		}
		coll[it.id] = it.doc
		inserted = append(inserted, it.id)
	}
	return inserted, nil
}

func (r *InMemoryRepository) ReplaceOne(ctx context.Context, ns Namespace, id string, doc json.RawMessage, upsert bool) (ReplaceResult, error) {
	_, doc, err := normalize(doc, id)
	if err != nil {
		return ReplaceResult{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	coll := r.collection(ns)
	if _, exists := coll[id]; exists {
		coll[id] = doc
		return ReplaceResult{MatchedCount: 1, ModifiedCount: 1}, nil
	}
	if !upsert {
		return ReplaceResult{}, nil
	}
	coll[id] = doc
	return ReplaceResult{UpsertedID: id}, nil
}

func (r *InMemoryRepository) Ping(ctx context.Context) error { return nil }

func (r *InMemoryRepository) Close() error { return nil }

// collection must be called with the write lock held.
func (r *InMemoryRepository) collection(ns Namespace) map[string]json.RawMessage {
	coll, ok := r.data[ns]
	if !ok {
		coll = make(map[string]json.RawMessage)
		r.data[ns] = coll
	}
	return coll
}
