package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/mindkeeper/internal/client/models"
	"github.com/dmitrijs2005/mindkeeper/internal/codec"
	"github.com/dmitrijs2005/mindkeeper/internal/common"
	"github.com/dmitrijs2005/mindkeeper/internal/dataapi"
	"github.com/dmitrijs2005/mindkeeper/internal/logging"
	"github.com/dmitrijs2005/mindkeeper/internal/netx"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultDataSource = "Cluster0"
	DefaultDatabase   = "mental_health_app"
	DefaultTimeout    = 15 * time.Second
	defaultRetryBase  = 200 * time.Millisecond
)

// probeID is looked up to check reachability; it never exists.
const probeID = "test"

type Config struct {
	BaseURL       string
	APIKey        string
	JWTToken      string
	DataSource    string
	Database      string
	Timeout       time.Duration
	RetryAttempts int
	RetryBase     time.Duration
}

type DataAPIClient struct {
	cfg    Config
	http   *http.Client
	codec  *codec.Codec
	logger logging.Logger
	now    func() time.Time

	mu        sync.Mutex
	connected bool
}

var _ Client = (*DataAPIClient)(nil)

type Option func(*DataAPIClient)

func WithHTTPClient(c *http.Client) Option {
	return func(d *DataAPIClient) { d.http = c }
}

func WithClock(now func() time.Time) Option {
	return func(d *DataAPIClient) { d.now = now }
}

func NewDataAPIClient(cfg Config, cd *codec.Codec, logger logging.Logger, opts ...Option) *DataAPIClient {
	if cfg.DataSource == "" {
		cfg.DataSource = DefaultDataSource
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = defaultRetryBase
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cd == nil {
		cd = codec.New(nil)
	}
	if logger == nil {
		logger = logging.Nop()
	}

	d := &DataAPIClient{
		cfg:    cfg,
		http:   &http.Client{},
		codec:  cd,
		logger: logger.With("module", "dataapi-client"),
		now:    time.Now,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func (d *DataAPIClient) headers() map[string]string {
	return map[string]string{
		common.APIKeyHeaderName:   d.cfg.APIKey,
		common.JWTTokenHeaderName: d.cfg.JWTToken,
	}
}

func (d *DataAPIClient) call(ctx context.Context, action string, req dataapi.Request) (*dataapi.Response, error) {
	req.DataSource = d.cfg.DataSource
	req.Database = d.cfg.Database
	url := d.cfg.BaseURL + "/action/" + action

	attempt := func(ctx context.Context) (*dataapi.Response, error) {
		ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()

		var resp dataapi.Response
		if err := netx.PostJSON(ctx, d.http, url, d.headers(), req, &resp); err != nil {
			return nil, d.mapError(err)
		}
		return &resp, nil
	}

	if d.cfg.RetryAttempts <= 0 {
		return attempt(ctx)
	}

	var resp *dataapi.Response
	b := retry.WithMaxRetries(uint64(d.cfg.RetryAttempts), retry.NewExponential(d.cfg.RetryBase))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		r, err := attempt(ctx)
		if err != nil {
			if errors.Is(err, ErrUnavailable) {
				d.logger.Debug(ctx, "retrying request", "action", action, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		resp = r
		return nil
	})
	return resp, err
}

// mapError classifies transport and status failures.
func (d *DataAPIClient) mapError(err error) error {
	var se *netx.StatusError
	if errors.As(err, &se) {
		switch {
		case se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrUnauthorized, se.Body)
		case se.Code == http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, se.Body)
		case se.Code >= 500:
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		default:
			return err
		}
	}
	if errors.Is(err, netx.ErrEncodeRequest) || errors.Is(err, netx.ErrDecodeResponse) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// Ping performs a trial read.
func (d *DataAPIClient) Ping(ctx context.Context) error {
	_, err := d.call(ctx, dataapi.ActionFindOne, dataapi.Request{
		Collection: dataapi.CollectionUserData,
		Filter:     dataapi.Filter{dataapi.IDField: probeID},
		Limit:      1,
	})
	return err
}

func (d *DataAPIClient) Connect(ctx context.Context) bool {
	if d.IsConnected() {
		return true
	}

	if err := d.Ping(ctx); err != nil {
		d.logger.Warn(ctx, "failed to connect to data api", "error", err)
		d.setConnected(false)
		return false
	}

	d.setConnected(true)
	d.logger.Info(ctx, "connected to data api", "url", d.cfg.BaseURL)
	return true
}

func (d *DataAPIClient) Disconnect(ctx context.Context) {
	d.setConnected(false)
	d.logger.Info(ctx, "disconnected from data api")
}

func (d *DataAPIClient) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

func (d *DataAPIClient) setConnected(v bool) {
	d.mu.Lock()
	d.connected = v
	d.mu.Unlock()
}

func (d *DataAPIClient) ensureConnected(ctx context.Context) {
	if !d.IsConnected() {
		d.Connect(ctx)
	}
}

// PushUserData upserts a copy of u with advice text sealed and lastSyncedAt
// set to now. u itself is not modified.
func (d *DataAPIClient) PushUserData(ctx context.Context, u *models.UserData) bool {
	if u == nil || u.ID == "" {
		d.logger.Warn(ctx, "refusing to push user data without id")
		return false
	}
	d.ensureConnected(ctx)

	out := *u
	out.DoctorAdvices = make([]models.DoctorAdvice, len(u.DoctorAdvices))
	for i, a := range u.DoctorAdvices {
		sealed, err := d.codec.Encode(a.Advice)
		if err != nil {
			d.logger.Error(ctx, "failed to encrypt advice", "id", a.ID, "error", err)
			return false
		}
		a.Advice = sealed
		out.DoctorAdvices[i] = a
	}
	now := d.now()
	out.LastSyncedAt = &now

	replacement, err := json.Marshal(out)
	if err != nil {
		d.logger.Error(ctx, "failed to marshal user data", "error", err)
		return false
	}

	_, err = d.call(ctx, dataapi.ActionReplaceOne, dataapi.Request{
		Collection:  dataapi.CollectionUserData,
		Filter:      dataapi.Filter{dataapi.IDField: u.ID},
		Replacement: replacement,
		Upsert:      true,
	})
	if err != nil {
		d.logger.Error(ctx, "failed to sync user data", "error", err)
		return false
	}

	d.logger.Info(ctx, "user data synced")
	return true
}

type remoteRecord struct {
	models.EncryptedData
	LastSyncedAt time.Time `json:"lastSyncedAt"`
}

// PushEncryptedBatch inserts records; an empty batch succeeds without a call.
func (d *DataAPIClient) PushEncryptedBatch(ctx context.Context, records []models.EncryptedData) bool {
	d.ensureConnected(ctx)

	if len(records) == 0 {
		return true
	}

	now := d.now()
	docs := make([]json.RawMessage, 0, len(records))
	for _, r := range records {
		b, err := json.Marshal(remoteRecord{EncryptedData: r, LastSyncedAt: now})
		if err != nil {
			d.logger.Error(ctx, "failed to marshal record", "id", r.ID, "error", err)
			return false
		}
		docs = append(docs, b)
	}

	_, err := d.call(ctx, dataapi.ActionInsertMany, dataapi.Request{
		Collection: dataapi.CollectionEncryptedData,
		Documents:  docs,
	})
	if err != nil {
		d.logger.Error(ctx, "failed to sync encrypted data", "error", err)
		return false
	}

	d.logger.Info(ctx, "encrypted data synced", "count", len(records))
	return true
}

func (d *DataAPIClient) fetchUserData(ctx context.Context, id string) (*models.UserData, error) {
	resp, err := d.call(ctx, dataapi.ActionFindOne, dataapi.Request{
		Collection: dataapi.CollectionUserData,
		Filter:     dataapi.Filter{dataapi.IDField: id},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Document) == 0 || string(resp.Document) == "null" {
		return nil, ErrNotFound
	}

	var u models.UserData
	if err := json.Unmarshal(resp.Document, &u); err != nil {
		return nil, fmt.Errorf("decode user data: %w", err)
	}
	for i := range u.DoctorAdvices {
		var plain string
		if err := d.codec.DecodeInto(u.DoctorAdvices[i].Advice, &plain); err != nil {
			return nil, err
		}
		u.DoctorAdvices[i].Advice = plain
	}
	return &u, nil
}

// PullUserData returns nil when the document is missing or cannot be read.
func (d *DataAPIClient) PullUserData(ctx context.Context, id string) *models.UserData {
	d.ensureConnected(ctx)

	u, err := d.fetchUserData(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			d.logger.Error(ctx, "failed to fetch user data", "id", id, "error", err)
		}
		return nil
	}
	return u
}
