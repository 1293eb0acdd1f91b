// Package api serves the Data API subset the MindKeeper client speaks:
// POST /action/findOne, /action/insertMany and /action/replaceOne with JSON
// request and response bodies.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/mindkeeper/internal/common"
	"github.com/dmitrijs2005/mindkeeper/internal/dataapi"
	"github.com/dmitrijs2005/mindkeeper/internal/logging"
	"github.com/dmitrijs2005/mindkeeper/internal/server/archive"
	"github.com/dmitrijs2005/mindkeeper/internal/server/auth"
	"github.com/dmitrijs2005/mindkeeper/internal/server/repositories/documents"
)

const maxBodyBytes = 10 << 20

type ctxKey string

const clientIDKey ctxKey = "clientID"

var errUnknownAction = errors.New("unknown action")

type Handler struct {
	repo     documents.Repository
	archiver archive.Archiver
	auth     *auth.Authenticator
	logger   logging.Logger
	now      func() time.Time
}

func NewHandler(repo documents.Repository, archiver archive.Archiver, authn *auth.Authenticator, logger logging.Logger) *Handler {
	if archiver == nil {
		archiver = archive.Nop{}
	}
	if authn == nil {
		authn = auth.NewAuthenticator("", "")
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Handler{
		repo:     repo,
		archiver: archiver,
		auth:     authn,
		logger:   logger.With("module", "data_api"),
		now:      time.Now,
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /action/{action}", h.authenticate(http.HandlerFunc(h.action)))
	return mux
}

func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := h.auth.Authenticate(r.Header)
		if err != nil {
			h.logger.Warn(r.Context(), "rejected request", "path", r.URL.Path, "error", err)
			h.writeError(w, http.StatusUnauthorized, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientIDKey, id)))
	})
}

func (h *Handler) action(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	action := r.PathValue("action")

	var req dataapi.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", common.ErrorBadRequest, err))
		return
	}
	if req.Database == "" || req.Collection == "" {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: database and collection are required", common.ErrorBadRequest))
		return
	}
	ns := documents.Namespace{Database: req.Database, Collection: req.Collection}

	h.logger.Debug(ctx, "action", "action", action, "collection", req.Collection, "client", ctx.Value(clientIDKey))

	var (
		resp   dataapi.Response
		status = http.StatusOK
		err    error
	)
	switch action {
	case dataapi.ActionFindOne:
		resp, err = h.findOne(ctx, ns, req)
	case dataapi.ActionInsertMany:
		resp, err = h.insertMany(ctx, ns, req)
		status = http.StatusCreated
	case dataapi.ActionReplaceOne:
		resp, err = h.replaceOne(ctx, ns, req)
	default:
		h.writeError(w, http.StatusNotFound, fmt.Errorf("%w: %s", errUnknownAction, action))
		return
	}

	if err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, status, resp)
}

func (h *Handler) findOne(ctx context.Context, ns documents.Namespace, req dataapi.Request) (dataapi.Response, error) {
	id, err := req.Filter.ID()
	if err != nil {
		return dataapi.Response{}, fmt.Errorf("%w: %v", common.ErrorBadRequest, err)
	}

	doc, err := h.repo.FindOne(ctx, ns, id)
	if errors.Is(err, common.ErrorNotFound) {
		return dataapi.Response{}, nil
	}
	if err != nil {
		return dataapi.Response{}, err
	}
	return dataapi.Response{Document: doc}, nil
}

func (h *Handler) insertMany(ctx context.Context, ns documents.Namespace, req dataapi.Request) (dataapi.Response, error) {
	if len(req.Documents) == 0 {
		return dataapi.Response{}, fmt.Errorf("%w: documents must not be empty", common.ErrorBadRequest)
	}

	ids, err := h.repo.InsertMany(ctx, ns, req.Documents)
	if err != nil {
		return dataapi.Response{}, err
	}

	if ns.Collection == dataapi.CollectionEncryptedData {
		h.archiveInserted(ctx, ns, ids, req.Documents)
	}

	return dataapi.Response{InsertedIDs: ids}, nil
}

// archiveInserted copies freshly inserted documents to object storage.
// Failures are logged; the insert itself already succeeded.
func (h *Handler) archiveInserted(ctx context.Context, ns documents.Namespace, ids []string, docs []json.RawMessage) {
	byID := make(map[string]json.RawMessage, len(docs))
	for _, d := range docs {
		if id, err := dataapi.DocumentID(d); err == nil {
			byID[id] = d
		}
	}

	now := h.now()
	for _, id := range ids {
		key := archive.ObjectKey(ns.Database, ns.Collection, id, now)
		if err := h.archiver.Archive(ctx, key, byID[id]); err != nil {
			h.logger.Error(ctx, "archive failed", "key", key, "error", err)
		}
	}
}

func (h *Handler) replaceOne(ctx context.Context, ns documents.Namespace, req dataapi.Request) (dataapi.Response, error) {
	id, err := req.Filter.ID()
	if err != nil {
		return dataapi.Response{}, fmt.Errorf("%w: %v", common.ErrorBadRequest, err)
	}
	if len(req.Replacement) == 0 {
		return dataapi.Response{}, fmt.Errorf("%w: replacement is required", common.ErrorBadRequest)
	}

	res, err := h.repo.ReplaceOne(ctx, ns, id, req.Replacement, req.Upsert)
	if err != nil {
		return dataapi.Response{}, err
	}
	return dataapi.Response{
		MatchedCount:  &res.MatchedCount,
		ModifiedCount: &res.ModifiedCount,
		UpsertedID:    res.UpsertedID,
	}, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error(context.Background(), "request failed", "error", err)
		msg = common.ErrorInternal.Error()
	}
	writeJSON(w, status, dataapi.ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
