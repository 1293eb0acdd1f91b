package realm

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/mindkeeper/internal/client/docstore"
	"github.com/dmitrijs2005/mindkeeper/internal/client/models"
	"github.com/dmitrijs2005/mindkeeper/internal/client/storage"
	"github.com/dmitrijs2005/mindkeeper/internal/logging"
)

var ErrNotOpen = errors.New("database is not open")

// warnRatio is the share of the quota above which health degrades.
const warnRatio = 0.8

type Realm struct {
	mu     sync.RWMutex
	open   bool
	store  *docstore.Store
	kv     storage.KV
	ownsKV bool
	logger logging.Logger
	now    func() time.Time
}

type options struct {
	storeOpts []docstore.Option
	logger    logging.Logger
	now       func() time.Time
}

type Option func(*options)

func WithPrefix(prefix string) Option {
	return func(o *options) { o.storeOpts = append(o.storeOpts, docstore.WithPrefix(prefix)) }
}

func WithIDGenerator(gen func() string) Option {
	return func(o *options) { o.storeOpts = append(o.storeOpts, docstore.WithIDGenerator(gen)) }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Open wraps kv. The caller keeps ownership of kv.
func Open(ctx context.Context, kv storage.KV, opts ...Option) (*Realm, error) {
	o := options{logger: logging.Nop(), now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}

	r := &Realm{
		kv:     kv,
		logger: o.logger.With("module", "realm"),
		now:    o.now,
	}
	r.store = docstore.New(kv, append([]docstore.Option{docstore.WithLogger(o.logger)}, o.storeOpts...)...)

	stats, err := r.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range []string{models.CollectionUserData, models.CollectionEncryptedData, models.CollectionDataLogHub} {
		if len(r.store.Objects(ctx, c)) == 0 {
			r.logger.Debug(ctx, "collection is empty", "collection", c)
		}
	}

	r.open = true
	r.logger.Info(ctx, "local database opened", "used", stats.Used, "total", stats.Total)
	return r, nil
}

// OpenPath opens a substrate at path (in memory when empty) and owns it:
// Close also closes the substrate.
func OpenPath(ctx context.Context, path string, quota int64, opts ...Option) (*Realm, error) {
	kv, err := storage.Open(ctx, path, quota)
	if err != nil {
		return nil, err
	}
	r, err := Open(ctx, kv, opts...)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	r.ownsKV = true
	return r, nil
}

// Close is idempotent.
func (r *Realm) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.open {
		return nil
	}
	r.open = false
	r.logger.Info(context.Background(), "local database closed")

	if r.ownsKV {
		return r.kv.Close()
	}
	return nil
}

func (r *Realm) IsOpen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.open
}

func (r *Realm) checkOpen() error {
	if !r.IsOpen() {
		return ErrNotOpen
	}
	return nil
}

func (r *Realm) Objects(ctx context.Context, collection string) ([]docstore.Document, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return r.store.Objects(ctx, collection), nil
}

func (r *Realm) Find(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return r.store.Find(ctx, collection, q), nil
}

func (r *Realm) ObjectForPrimaryKey(ctx context.Context, collection, id string) (docstore.Document, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return r.store.FindByID(ctx, collection, id), nil
}

func (r *Realm) Create(ctx context.Context, collection string, doc any) (docstore.Document, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return r.store.Create(ctx, collection, doc)
}

func (r *Realm) Update(ctx context.Context, collection, id string, partial any) (docstore.Document, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return r.store.Update(ctx, collection, id, partial)
}

func (r *Realm) Delete(ctx context.Context, collection, id string) (bool, error) {
	if err := r.checkOpen(); err != nil {
		return false, err
	}
	return r.store.Delete(ctx, collection, id)
}

func (r *Realm) Write(ctx context.Context, fn func() error) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	return r.store.Write(ctx, fn)
}

func (r *Realm) Stats(ctx context.Context) (docstore.Stats, error) {
	if err := r.checkOpen(); err != nil {
		return docstore.Stats{}, err
	}
	return r.store.Stats(ctx)
}

// ClearAll drops every collection.
func (r *Realm) ClearAll(ctx context.Context) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	return r.store.ClearAll(ctx)
}

func (r *Realm) Users() *Repository[models.UserData] {
	return NewRepository[models.UserData](r, models.CollectionUserData)
}

func (r *Realm) Records() *Repository[models.EncryptedData] {
	return NewRepository[models.EncryptedData](r, models.CollectionEncryptedData)
}

func (r *Realm) Hubs() *Repository[models.DataLogHub] {
	return NewRepository[models.DataLogHub](r, models.CollectionDataLogHub)
}
