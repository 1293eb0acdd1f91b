package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/mindkeeper/internal/client/docstore"
	"github.com/dmitrijs2005/mindkeeper/internal/client/models"
	"github.com/dmitrijs2005/mindkeeper/internal/client/realm"
	"github.com/dmitrijs2005/mindkeeper/internal/codec"
	"github.com/dmitrijs2005/mindkeeper/internal/logging"
	"github.com/google/uuid"
)

var ErrHubMissing = errors.New("hub referenced by user data does not exist")

// Syncer is the part of the sync orchestrator the journal depends on.
type Syncer interface {
	SyncCategory(ctx context.Context, c models.Category) bool
	StartPeriodicSync(u *models.UserData)
	GetSyncStatus(ctx context.Context) models.SyncStatus
	TriggerManualSync(ctx context.Context) bool
}

// JournalEntry is a decoded record for display.
type JournalEntry struct {
	ID        string
	Category  models.Category
	Timestamp time.Time
	Payload   any
}

type JournalService interface {
	// Bootstrap arms periodic sync for an existing profile.
	Bootstrap(ctx context.Context) error
	SaveEncryptedRecord(ctx context.Context, payload any, category models.Category) error
	GetDoctorAdvices(ctx context.Context) []models.DoctorAdvice
	AddDoctorAdvice(ctx context.Context, doctorID, advice, category string) error
	SetSyncPreference(ctx context.Context, pref models.SyncPreference) error
	GetSyncStatus(ctx context.Context) models.SyncStatus
	TriggerManualSync(ctx context.Context) bool
	ReadRecords(ctx context.Context, category models.Category) ([]JournalEntry, error)
	CurrentUser(ctx context.Context) (*models.UserData, error)
	Health(ctx context.Context) realm.Health
}

type journalService struct {
	db     *realm.Realm
	codec  *codec.Codec
	syncer Syncer
	logger logging.Logger
	now    func() time.Time
	newID  func() string
	pref   models.SyncPreference

	// mu serialises multi-step writes against each other.
	mu sync.Mutex
}

type Option func(*journalService)

func WithLogger(l logging.Logger) Option {
	return func(s *journalService) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *journalService) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *journalService) { s.newID = gen }
}

// WithDefaultPreference sets the policy stamped on a lazily created profile.
func WithDefaultPreference(p models.SyncPreference) Option {
	return func(s *journalService) { s.pref = p }
}

func NewJournalService(db *realm.Realm, cd *codec.Codec, syncer Syncer, opts ...Option) JournalService {
	s := &journalService{
		db:     db,
		codec:  cd,
		syncer: syncer,
		logger: logging.Nop(),
		now:    time.Now,
		newID:  uuid.NewString,
		pref:   models.SyncLocal,
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With("module", "journal")
	return s
}

func (s *journalService) CurrentUser(ctx context.Context) (*models.UserData, error) {
	return s.db.Users().FindOne(ctx, nil)
}

// ensureUser returns the singleton profile, creating it on first use.
func (s *journalService) ensureUser(ctx context.Context, pref models.SyncPreference) (*models.UserData, error) {
	u, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}

	u, err = s.db.Users().Create(ctx, models.NewUserData(pref, s.now()))
	if err != nil {
		return nil, fmt.Errorf("create user data: %w", err)
	}
	s.logger.Info(ctx, "user data created", "id", u.ID)
	return u, nil
}

// ensureHub returns the hub bound to c on u, creating and binding one when
// absent. The binding is written to storage immediately.
func (s *journalService) ensureHub(ctx context.Context, u *models.UserData, c models.Category) (*models.DataLogHub, error) {
	if id := u.HubID(c); id != "" {
		hub, err := s.db.Hubs().FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if hub == nil {
			return nil, fmt.Errorf("%w: %s", ErrHubMissing, id)
		}
		return hub, nil
	}

	hub, err := s.db.Hubs().Create(ctx, &models.DataLogHub{Entries: []models.HubEntry{}})
	if err != nil {
		return nil, fmt.Errorf("create hub: %w", err)
	}
	if _, err := s.db.Users().Update(ctx, u.ID, map[string]any{models.HubField(c): hub.ID}); err != nil {
		return nil, fmt.Errorf("bind hub: %w", err)
	}
	u.SetHubID(c, hub.ID)
	return hub, nil
}

func (s *journalService) Bootstrap(ctx context.Context) error {
	u, err := s.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if u != nil {
		s.syncer.StartPeriodicSync(u)
	}
	return nil
}

// SaveEncryptedRecord stores payload as a new record, links it from the
// category hub and, unless the profile is local-only, pushes the category.
// A failure after the record is created leaves earlier steps in place; sync
// failures are only logged.
func (s *journalService) SaveEncryptedRecord(ctx context.Context, payload any, category models.Category) error {
	if !category.Valid() {
		return models.ErrUnknownCategory
	}

	opaque, err := s.codec.EncodeCategory(payload, string(category))
	if err != nil {
		return err
	}

	s.mu.Lock()
	var user *models.UserData
	err = s.db.Write(ctx, func() error {
		now := s.now()

		rec, err := s.db.Records().Create(ctx, &models.EncryptedData{
			EncryptedPayload: opaque,
			SchemaVersion:    models.SchemaVersion,
			Timestamp:        now,
			Category:         category,
		})
		if err != nil {
			return fmt.Errorf("create record: %w", err)
		}

		user, err = s.ensureUser(ctx, s.pref)
		if err != nil {
			return err
		}

		hub, err := s.ensureHub(ctx, user, category)
		if err != nil {
			return err
		}

		hub.Append(rec.ID, now)
		if _, err := s.db.Hubs().Update(ctx, hub.ID, map[string]any{"entries": hub.Entries}); err != nil {
			return fmt.Errorf("append hub entry: %w", err)
		}

		if _, err := s.db.Users().Update(ctx, user.ID, map[string]any{"updatedAt": now}); err != nil {
			return fmt.Errorf("touch user data: %w", err)
		}
		return nil
	})
	s.mu.Unlock()

	if err != nil {
		s.logger.Error(ctx, "error saving encrypted data", "category", category, "error", err)
		return err
	}

	if user.SyncPreference != models.SyncLocal {
		if !s.syncer.SyncCategory(ctx, category) {
			s.logger.Warn(ctx, "sync after save failed", "category", category)
		}
	}

	s.logger.Info(ctx, "saved encrypted data", "category", category)
	return nil
}

// GetDoctorAdvices returns an empty slice when nothing can be read.
func (s *journalService) GetDoctorAdvices(ctx context.Context) []models.DoctorAdvice {
	u, err := s.CurrentUser(ctx)
	if err != nil {
		s.logger.Error(ctx, "error getting doctor advices", "error", err)
		return []models.DoctorAdvice{}
	}
	if u == nil || u.DoctorAdvices == nil {
		return []models.DoctorAdvice{}
	}
	return u.DoctorAdvices
}

func (s *journalService) AddDoctorAdvice(ctx context.Context, doctorID, advice, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Write(ctx, func() error {
		u, err := s.ensureUser(ctx, s.pref)
		if err != nil {
			return err
		}

		now := s.now()
		advices := append(u.DoctorAdvices, models.DoctorAdvice{
			ID:        s.newID(),
			DoctorID:  doctorID,
			Advice:    advice,
			Timestamp: now,
			Category:  category,
		})

		if _, err := s.db.Users().Update(ctx, u.ID, map[string]any{
			"doctorAdvices": advices,
			"updatedAt":     now,
		}); err != nil {
			return fmt.Errorf("add doctor advice: %w", err)
		}
		s.logger.Info(ctx, "added doctor advice", "doctor", doctorID)
		return nil
	})
}

// SetSyncPreference stores pref and re-arms the periodic job for it.
func (s *journalService) SetSyncPreference(ctx context.Context, pref models.SyncPreference) error {
	if !pref.Valid() {
		return models.ErrUnknownSyncPreference
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var updated *models.UserData
	err := s.db.Write(ctx, func() error {
		u, err := s.ensureUser(ctx, pref)
		if err != nil {
			return err
		}
		updated, err = s.db.Users().Update(ctx, u.ID, map[string]any{
			"syncPreference": pref,
			"updatedAt":      s.now(),
		})
		if err != nil {
			return fmt.Errorf("update sync preference: %w", err)
		}
		if updated == nil {
			return fmt.Errorf("update sync preference: %w", docstore.ErrStorage)
		}
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "error updating sync preference", "error", err)
		return err
	}
	s.pref = pref

	s.syncer.StartPeriodicSync(updated)
	return nil
}

func (s *journalService) GetSyncStatus(ctx context.Context) models.SyncStatus {
	return s.syncer.GetSyncStatus(ctx)
}

func (s *journalService) TriggerManualSync(ctx context.Context) bool {
	return s.syncer.TriggerManualSync(ctx)
}

// ReadRecords decodes every record of category in creation order. A record
// that fails to decode aborts the read.
func (s *journalService) ReadRecords(ctx context.Context, category models.Category) ([]JournalEntry, error) {
	if !category.Valid() {
		return nil, models.ErrUnknownCategory
	}

	records, err := s.db.Records().Find(ctx, docstore.Query{"category": category})
	if err != nil {
		return nil, err
	}

	out := make([]JournalEntry, 0, len(records))
	for _, r := range records {
		env, err := s.codec.Decode(r.EncryptedPayload)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", r.ID, err)
		}
		payload, err := models.DecodePayload(category, env.Data)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", r.ID, err)
		}
		out = append(out, JournalEntry{ID: r.ID, Category: r.Category, Timestamp: r.Timestamp, Payload: payload})
	}
	return out, nil
}

func (s *journalService) Health(ctx context.Context) realm.Health {
	return s.db.CheckHealth(ctx)
}
