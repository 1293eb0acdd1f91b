package client

import (
	"context"

	"github.com/dmitrijs2005/mindkeeper/internal/client/models"
)

// Client is the remote side of synchronisation. Implementations never return
// transport failures from the push/pull calls: they report false or nil so
// callers can stay offline indefinitely.
type Client interface {
	Connect(ctx context.Context) bool
	Disconnect(ctx context.Context)
	IsConnected() bool
	Ping(ctx context.Context) error
	PushUserData(ctx context.Context, u *models.UserData) bool
	PushEncryptedBatch(ctx context.Context, records []models.EncryptedData) bool
	PullUserData(ctx context.Context, id string) *models.UserData
}
