package documents

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dmitrijs2005/mindkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nsRecords = Namespace{Database: "mental_health_app", Collection: "encryptedData"}

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func TestInMemory_FindOneMissing(t *testing.T) {
	r := NewInMemoryRepository()
	_, err := r.FindOne(context.Background(), nsRecords, "test")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestInMemory_InsertManySkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	r := NewInMemoryRepository()

	ids, err := r.InsertMany(ctx, nsRecords, []json.RawMessage{raw(`{"_id":"r1","n":1}`), raw(`{"_id":"r2"}`)})
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, ids)

	ids, err = r.InsertMany(ctx, nsRecords, []json.RawMessage{raw(`{"_id":"r1","n":2}`), raw(`{"_id":"r3"}`)})
	require.NoError(t, err)
	assert.Equal(t, []string{"r3"}, ids)

	doc, err := r.FindOne(ctx, nsRecords, "r1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"r1","n":1}`, string(doc))
}

func TestInMemory_InsertManyValidatesBeforeWriting(t *testing.T) {
	ctx := context.Background()
	r := NewInMemoryRepository()

	_, err := r.InsertMany(ctx, nsRecords, []json.RawMessage{raw(`{"_id":"ok"}`), raw(`{"x":1}`)})
	assert.ErrorIs(t, err, common.ErrorBadRequest)

	_, err = r.FindOne(ctx, nsRecords, "ok")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestInMemory_ReplaceOne(t *testing.T) {
	ctx := context.Background()
	r := NewInMemoryRepository()
	ns := Namespace{Database: "db", Collection: "userData"}

	res, err := r.ReplaceOne(ctx, ns, "u1", raw(`{"rephraseKey":"k"}`), false)
	require.NoError(t, err)
	assert.Equal(t, ReplaceResult{}, res)
	_, err = r.FindOne(ctx, ns, "u1")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	res, err = r.ReplaceOne(ctx, ns, "u1", raw(`{"rephraseKey":"k"}`), true)
	require.NoError(t, err)
	assert.Equal(t, ReplaceResult{UpsertedID: "u1"}, res)

	res, err = r.ReplaceOne(ctx, ns, "u1", raw(`{"_id":"u1","rephraseKey":"k2","big":12345678901234567}`), true)
	require.NoError(t, err)
	assert.Equal(t, ReplaceResult{MatchedCount: 1, ModifiedCount: 1}, res)

	doc, err := r.FindOne(ctx, ns, "u1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"u1","rephraseKey":"k2","big":12345678901234567}`, string(doc))

	_, err = r.ReplaceOne(ctx, ns, "u1", raw(`{"_id":"other"}`), true)
	assert.ErrorIs(t, err, common.ErrorBadRequest)
	_, err = r.ReplaceOne(ctx, ns, "u1", raw(`[1,2]`), true)
	assert.ErrorIs(t, err, common.ErrorBadRequest)
}

func TestInMemory_NamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	r := NewInMemoryRepository()

	_, err := r.InsertMany(ctx, Namespace{"a", "c"}, []json.RawMessage{raw(`{"_id":"x"}`)})
	require.NoError(t, err)

	_, err = r.FindOne(ctx, Namespace{"b", "c"}, "x")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, r.Ping(ctx))
	require.NoError(t, r.Close())
}
