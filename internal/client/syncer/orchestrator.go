package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/mindkeeper/internal/client/client"
	"github.com/dmitrijs2005/mindkeeper/internal/client/docstore"
	"github.com/dmitrijs2005/mindkeeper/internal/client/models"
	"github.com/dmitrijs2005/mindkeeper/internal/client/realm"
	"github.com/dmitrijs2005/mindkeeper/internal/logging"
)

// ErrSyncInProgress marks a trigger that was dropped because a sync is running.
var ErrSyncInProgress = errors.New("sync already in progress")

type Orchestrator struct {
	db     *realm.Realm
	sched  Scheduler
	logger logging.Logger
	now    func() time.Time

	// jobCtx bounds the work of periodic jobs; cancelled by Cleanup.
	jobCtx    context.Context
	jobCancel context.CancelFunc

	mu      sync.Mutex
	remote  client.Client
	timers  map[string]Cancel
	online  bool
	syncing bool
}

type Option func(*Orchestrator)

func WithScheduler(s Scheduler) Option {
	return func(o *Orchestrator) { o.sched = s }
}

func WithLogger(l logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithOnline sets the initial connectivity flag.
func WithOnline(v bool) Option {
	return func(o *Orchestrator) { o.online = v }
}

// New builds an orchestrator. remote may be nil for local-only operation.
func New(db *realm.Realm, remote client.Client, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		db:     db,
		remote: remote,
		sched:  TickerScheduler{},
		logger: logging.Nop(),
		now:    time.Now,
		timers: make(map[string]Cancel),
		online: true,
	}
	for _, fn := range opts {
		fn(o)
	}
	o.logger = o.logger.With("module", "syncer")
	o.jobCtx, o.jobCancel = context.WithCancel(context.Background())
	return o
}

func (o *Orchestrator) getRemote() client.Client {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.remote
}

// Initialize performs a trial connection and reports whether the remote is
// reachable. Local-only mode reports false.
func (o *Orchestrator) Initialize(ctx context.Context) bool {
	remote := o.getRemote()
	if remote == nil {
		o.logger.Info(ctx, "sync service initialized in local-only mode")
		return false
	}

	if remote.Connect(ctx) {
		o.SetOnline(true)
		o.logger.Info(ctx, "sync service initialized with remote")
		return true
	}

	o.logger.Info(ctx, "remote unreachable, sync service initialized in local-only mode")
	return false
}

func (o *Orchestrator) SetOnline(v bool) {
	o.mu.Lock()
	changed := o.online != v
	o.online = v
	o.mu.Unlock()

	if changed {
		state := "offline"
		if v {
			state = "online"
		}
		o.logger.Info(context.Background(), "connectivity changed", "state", state)
	}
}

func (o *Orchestrator) IsOnline() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.online && o.remote != nil
}

func (o *Orchestrator) SyncInProgress() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.syncing
}

// begin claims the in-flight slot.
func (o *Orchestrator) begin() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.syncing {
		return false
	}
	o.syncing = true
	return true
}

func (o *Orchestrator) end() {
	o.mu.Lock()
	o.syncing = false
	o.mu.Unlock()
}

func (o *Orchestrator) currentUser(ctx context.Context) (*models.UserData, error) {
	return o.db.Users().FindOne(ctx, nil)
}

// SyncUserData pushes u and stamps its lastSyncedAt locally on success.
// Local-only users and a missing remote are skipped and report true.
func (o *Orchestrator) SyncUserData(ctx context.Context, u *models.UserData) bool {
	remote := o.getRemote()
	if remote == nil || u == nil || u.SyncPreference == models.SyncLocal {
		o.logger.Debug(ctx, "skipping user data sync, local-only mode")
		return true
	}

	if !remote.PushUserData(ctx, u) {
		return false
	}

	now := o.now()
	if _, err := o.db.Users().Update(ctx, u.ID, map[string]any{"lastSyncedAt": now}); err != nil {
		o.logger.Error(ctx, "failed to stamp user sync time", "error", err)
	}
	return true
}

// SyncCategory pushes the records of c created after the category hub was
// last synced. It returns false without pushing while another sync runs.
func (o *Orchestrator) SyncCategory(ctx context.Context, c models.Category) bool {
	if !o.begin() {
		o.logger.Debug(ctx, "category sync skipped", "category", c, "reason", ErrSyncInProgress)
		return false
	}
	defer o.end()
	return o.syncCategory(ctx, c)
}

// syncCategory stamps the hub with the newest pushed timestamp, so records
// created while the batch is in flight stay pending.
func (o *Orchestrator) syncCategory(ctx context.Context, c models.Category) bool {
	remote := o.getRemote()
	if remote == nil {
		o.logger.Debug(ctx, "skipping encrypted data sync, local-only mode", "category", c)
		return true
	}

	records, err := o.db.Records().Find(ctx, docstore.Query{"category": c})
	if err != nil {
		o.logger.Error(ctx, "failed to load records", "category", c, "error", err)
		return false
	}

	var hub *models.DataLogHub
	if u, err := o.currentUser(ctx); err == nil && u != nil {
		if id := u.HubID(c); id != "" {
			hub, _ = o.db.Hubs().FindByID(ctx, id)
		}
	}

	var since *time.Time
	if hub != nil {
		since = hub.LastSyncedAt
	}
	pending := make([]models.EncryptedData, 0, len(records))
	var newest time.Time
	for _, r := range records {
		if r.PendingSince(since) {
			pending = append(pending, r)
			if r.Timestamp.After(newest) {
				newest = r.Timestamp
			}
		}
	}
	if len(pending) == 0 {
		return true
	}

	if !remote.PushEncryptedBatch(ctx, pending) {
		return false
	}

	if hub != nil {
		if _, err := o.db.Hubs().Update(ctx, hub.ID, map[string]any{"lastSyncedAt": newest}); err != nil {
			o.logger.Error(ctx, "failed to stamp hub sync time", "hub", hub.ID, "error", err)
		}
	}
	o.logger.Info(ctx, "category synced", "category", c, "count", len(pending))
	return true
}

// syncAll runs the full push sequence; every step is attempted.
func (o *Orchestrator) syncAll(ctx context.Context, u *models.UserData) bool {
	ok := o.SyncUserData(ctx, u)
	for _, c := range models.Categories {
		if !o.syncCategory(ctx, c) {
			ok = false
		}
	}
	return ok
}

// syncCurrent runs a full sync for the current user unless one is already in
// flight, in which case it returns false with ErrSyncInProgress.
func (o *Orchestrator) syncCurrent(ctx context.Context) (bool, error) {
	if !o.begin() {
		return false, ErrSyncInProgress
	}
	defer o.end()

	u, err := o.currentUser(ctx)
	if err != nil {
		return false, err
	}
	if u == nil {
		return true, nil
	}
	return o.syncAll(ctx, u), nil
}

// TriggerManualSync returns true straight away for local-only users and when
// there is no profile yet. Overlapping triggers return false.
func (o *Orchestrator) TriggerManualSync(ctx context.Context) bool {
	u, err := o.currentUser(ctx)
	if err != nil {
		o.logger.Error(ctx, "manual sync failed", "error", err)
		return false
	}
	if u == nil || u.SyncPreference == models.SyncLocal {
		return true
	}

	if !o.begin() {
		o.logger.Info(ctx, "manual sync ignored", "reason", ErrSyncInProgress)
		return false
	}
	defer o.end()

	ok := o.syncAll(ctx, u)
	o.logger.Info(ctx, "manual sync finished", "success", ok)
	return ok
}

// StartPeriodicSync replaces any job for u.ID with one matching its policy.
// Local-only users and a missing remote get no job.
func (o *Orchestrator) StartPeriodicSync(u *models.UserData) {
	if u == nil || u.ID == "" {
		return
	}
	userID := u.ID

	o.mu.Lock()
	stopped := o.stopLocked(userID)
	period := u.SyncPreference.Period()
	if period == 0 || o.remote == nil {
		o.mu.Unlock()
		if stopped {
			o.logger.Info(context.Background(), "periodic sync stopped", "user", userID)
		}
		return
	}
	o.timers[userID] = o.sched.Every(period, func() { o.runPeriodic(userID) })
	o.mu.Unlock()

	o.logger.Info(context.Background(), "periodic sync started", "user", userID, "preference", u.SyncPreference)
}

func (o *Orchestrator) runPeriodic(userID string) {
	ctx := o.jobCtx
	if ctx.Err() != nil {
		return
	}
	if !o.begin() {
		o.logger.Debug(ctx, "periodic sync skipped", "reason", ErrSyncInProgress)
		return
	}
	defer o.end()

	u, err := o.db.Users().FindByID(ctx, userID)
	if err != nil || u == nil {
		o.logger.Warn(ctx, "periodic sync: user not found", "user", userID, "error", err)
		return
	}
	if u.SyncPreference == models.SyncLocal {
		return
	}

	o.logger.Info(ctx, "starting periodic sync", "user", userID)
	ok := o.syncAll(ctx, u)
	o.logger.Info(ctx, "periodic sync finished", "user", userID, "success", ok)
}

func (o *Orchestrator) StopPeriodicSync(userID string) {
	o.mu.Lock()
	ok := o.stopLocked(userID)
	o.mu.Unlock()

	if ok {
		o.logger.Info(context.Background(), "periodic sync stopped", "user", userID)
	}
}

// stopLocked cancels the job for userID. o.mu must be held; Cancel funcs
// never block.
func (o *Orchestrator) stopLocked(userID string) bool {
	cancel, ok := o.timers[userID]
	if !ok {
		return false
	}
	delete(o.timers, userID)
	cancel()
	return true
}

// HasPeriodicSync reports whether a job is armed for userID.
func (o *Orchestrator) HasPeriodicSync(userID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.timers[userID]
	return ok
}

// GetSyncStatus never fails; storage problems yield zero values.
func (o *Orchestrator) GetSyncStatus(ctx context.Context) models.SyncStatus {
	st := models.SyncStatus{
		IsOnline:       o.IsOnline(),
		SyncInProgress: o.SyncInProgress(),
	}

	u, err := o.currentUser(ctx)
	if err != nil {
		return st
	}
	if u != nil {
		st.LastSyncAt = u.LastSyncedAt
	}

	records, err := o.db.Records().All(ctx)
	if err != nil {
		return st
	}
	st.PendingOperationsCount = models.CountPending(records, st.LastSyncAt)
	return st
}

// Cleanup stops every job and releases the remote. It is idempotent.
func (o *Orchestrator) Cleanup(ctx context.Context) {
	o.jobCancel()

	o.mu.Lock()
	timers := o.timers
	o.timers = make(map[string]Cancel)
	remote := o.remote
	o.remote = nil
	o.mu.Unlock()

	for _, cancel := range timers {
		cancel()
	}
	if remote != nil {
		remote.Disconnect(ctx)
	}
	o.logger.Info(ctx, "sync service cleaned up")
}
