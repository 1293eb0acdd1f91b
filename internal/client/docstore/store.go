package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/dmitrijs2005/mindkeeper/internal/client/storage"
	"github.com/dmitrijs2005/mindkeeper/internal/logging"
	"github.com/google/uuid"
)

// IDField is the primary-key field of every document.
const IDField = "_id"

// DefaultPrefix namespaces collection keys.
const DefaultPrefix = "mental_health"

// Document is a decoded JSON object.
type Document map[string]any

// ID returns the document's string id, or "" when absent.
func (d Document) ID() string {
	id, _ := d[IDField].(string)
	return id
}

// Query selects documents whose fields equal every supplied value.
type Query map[string]any

// Stats describes substrate usage for the store's prefix.
type Stats struct {
	Used        int64            `json:"used"`
	Total       int64            `json:"total"`
	Collections map[string]int64 `json:"collections"`
}

var errCorrupted = errors.New("collection is not a JSON array of objects")

type Store struct {
	mu     sync.Mutex
	kv     storage.KV
	prefix string
	logger logging.Logger
	newID  func() string
}

type Option func(*Store)

func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		prefix: DefaultPrefix,
		logger: logging.Nop(),
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With("module", "docstore")
	return s
}

// Key returns the substrate key holding collection.
func (s *Store) Key(collection string) string {
	return s.prefix + "_" + collection
}

func (s *Store) load(ctx context.Context, collection string) ([]Document, error) {
	raw, ok, err := s.kv.Get(ctx, s.Key(collection))
	if err != nil {
		return nil, &StorageError{Collection: collection, Op: "read", Err: err}
	}
	if !ok || raw == "" {
		return []Document{}, nil
	}

	var docs []Document
	if err := json.Unmarshal([]byte(raw), &docs); err != nil || docs == nil {
		return nil, &StorageError{Collection: collection, Op: "read", Err: errCorrupted}
	}
	for _, d := range docs {
		if d == nil {
			return nil, &StorageError{Collection: collection, Op: "read", Err: errCorrupted}
		}
	}
	return docs, nil
}

func (s *Store) persist(ctx context.Context, collection string, docs []Document) error {
	b, err := json.Marshal(docs)
	if err != nil {
		return &StorageError{Collection: collection, Op: "write", Err: err}
	}
	if err := s.kv.Set(ctx, s.Key(collection), string(b)); err != nil {
		return &StorageError{Collection: collection, Op: "write", Err: err}
	}
	return nil
}

// toDocument normalises any JSON-serialisable object into a Document.
func toDocument(collection string, v any) (Document, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, &ValidationError{Collection: collection, Reason: "not serializable: " + err.Error()}
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	var doc Document
	if err := dec.Decode(&doc); err != nil || doc == nil {
		return nil, &ValidationError{Collection: collection, Reason: "document must be a JSON object"}
	}
	return doc, nil
}

func normalize(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}

// Create stores doc, generating an id when it has none, and returns the
// stored form.
func (s *Store) Create(ctx context.Context, collection string, doc any) (Document, error) {
	newDoc, err := toDocument(collection, doc)
	if err != nil {
		s.logger.Error(ctx, "create rejected", "collection", collection, "error", err)
		return nil, err
	}

	switch id := newDoc[IDField].(type) {
	case nil:
		newDoc[IDField] = s.newID()
	case string:
		if id == "" {
			newDoc[IDField] = s.newID()
		}
	default:
		err := &ValidationError{Collection: collection, Reason: "_id must be a string"}
		s.logger.Error(ctx, "create rejected", "collection", collection, "error", err)
		return nil, err
	}
	if newDoc.ID() == "" {
		return nil, &ValidationError{Collection: collection, Reason: "document must have an _id"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.load(ctx, collection)
	if err != nil {
		s.logger.Error(ctx, "create failed", "collection", collection, "error", err)
		return nil, err
	}
	docs = append(docs, newDoc)
	if err := s.persist(ctx, collection, docs); err != nil {
		s.logger.Error(ctx, "create failed", "collection", collection, "error", err)
		return nil, err
	}

	s.logger.Debug(ctx, "document created", "collection", collection, "id", newDoc.ID())
	return newDoc, nil
}

// Find returns the documents matching query (all of them for a nil query).
// It never fails; read errors are logged and produce an empty slice.
func (s *Store) Find(ctx context.Context, collection string, query Query) []Document {
	s.mu.Lock()
	docs, err := s.load(ctx, collection)
	s.mu.Unlock()

	if err != nil {
		s.logger.Error(ctx, "find failed", "collection", collection, "error", err)
		return []Document{}
	}
	if len(query) == 0 {
		return docs
	}

	want := make(map[string]any, len(query))
	for k, v := range query {
		want[k] = normalize(v)
	}

	result := make([]Document, 0)
	for _, d := range docs {
		if matches(d, want) {
			result = append(result, d)
		}
	}
	return result
}

func matches(d Document, want map[string]any) bool {
	for k, v := range want {
		got, ok := d[k]
		if !ok && v != nil {
			return false
		}
		if !reflect.DeepEqual(got, v) {
			return false
		}
	}
	return true
}

// FindOne returns the first match or nil.
func (s *Store) FindOne(ctx context.Context, collection string, query Query) Document {
	docs := s.Find(ctx, collection, query)
	if len(docs) == 0 {
		return nil
	}
	return docs[0]
}

// FindByID returns the document with id, or nil. An empty id returns nil
// without touching storage.
func (s *Store) FindByID(ctx context.Context, collection, id string) Document {
	if id == "" {
		s.logger.Warn(ctx, "FindByID called with empty id", "collection", collection)
		return nil
	}
	return s.FindOne(ctx, collection, Query{IDField: id})
}

// Objects returns every document of collection.
func (s *Store) Objects(ctx context.Context, collection string) []Document {
	return s.Find(ctx, collection, nil)
}

// Update merges the top-level fields of partial into the document with id.
// It returns nil, nil when no such document exists. The id itself cannot be
// changed.
func (s *Store) Update(ctx context.Context, collection, id string, partial any) (Document, error) {
	updates, err := toDocument(collection, partial)
	if err != nil {
		return nil, err
	}
	delete(updates, IDField)

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.load(ctx, collection)
	if err != nil {
		s.logger.Error(ctx, "update failed", "collection", collection, "id", id, "error", err)
		return nil, err
	}

	idx := indexOf(docs, id)
	if idx < 0 {
		s.logger.Warn(ctx, "document not found", "collection", collection, "id", id)
		return nil, nil
	}

	for k, v := range updates {
		docs[idx][k] = v
	}
	if err := s.persist(ctx, collection, docs); err != nil {
		s.logger.Error(ctx, "update failed", "collection", collection, "id", id, "error", err)
		return nil, err
	}

	s.logger.Debug(ctx, "document updated", "collection", collection, "id", id)
	return docs[idx], nil
}

// Delete removes the document with id and reports whether it existed.
func (s *Store) Delete(ctx context.Context, collection, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.load(ctx, collection)
	if err != nil {
		s.logger.Error(ctx, "delete failed", "collection", collection, "id", id, "error", err)
		return false, err
	}

	idx := indexOf(docs, id)
	if idx < 0 {
		s.logger.Warn(ctx, "document not found", "collection", collection, "id", id)
		return false, nil
	}

	docs = append(docs[:idx], docs[idx+1:]...)
	if err := s.persist(ctx, collection, docs); err != nil {
		s.logger.Error(ctx, "delete failed", "collection", collection, "id", id, "error", err)
		return false, err
	}

	s.logger.Debug(ctx, "document deleted", "collection", collection, "id", id)
	return true, nil
}

func indexOf(docs []Document, id string) int {
	for i, d := range docs {
		if d.ID() == id {
			return i
		}
	}
	return -1
}

// Write runs fn. Mutations already performed inside fn stay in place when it
// fails: this is a readability boundary, not a transaction.
func (s *Store) Write(ctx context.Context, fn func() error) error {
	if err := fn(); err != nil {
		s.logger.Error(ctx, "error in write block", "error", err)
		return err
	}
	return nil
}

// Stats reports bytes used per prefixed key and the substrate quota.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{Total: s.kv.Quota(), Collections: map[string]int64{}}

	keys, err := s.kv.Keys(ctx)
	if err != nil {
		return st, &StorageError{Collection: "*", Op: "stats", Err: err}
	}
	for _, k := range keys {
		if !strings.HasPrefix(k, s.prefix+"_") {
			continue
		}
		v, _, err := s.kv.Get(ctx, k)
		if err != nil {
			return st, &StorageError{Collection: k, Op: "stats", Err: err}
		}
		st.Collections[k] = int64(len(v))
		st.Used += int64(len(v))
	}
	return st, nil
}

// ClearAll removes every collection under the store's prefix.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.kv.Keys(ctx)
	if err != nil {
		return &StorageError{Collection: "*", Op: "clear", Err: err}
	}
	for _, k := range keys {
		if !strings.HasPrefix(k, s.prefix+"_") {
			continue
		}
		if err := s.kv.Remove(ctx, k); err != nil {
			return &StorageError{Collection: k, Op: "clear", Err: err}
		}
	}
	s.logger.Info(ctx, "cleared all collections", "prefix", s.prefix)
	return nil
}
