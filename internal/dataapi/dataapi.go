// Package dataapi holds the JSON wire types of the remote document API
// spoken between the MindKeeper client and server.
//
// Every call is a POST to <base>/action/<verb> with a Request body. The
// response carries only the fields relevant to the verb.
package dataapi

import (
	"encoding/json"
	"errors"
)

const (
	ActionFindOne    = "findOne"
	ActionInsertMany = "insertMany"
	ActionReplaceOne = "replaceOne"
)

// Remote collection names.
const (
	CollectionUserData      = "userData"
	CollectionEncryptedData = "encryptedData"
)

// IDField is the primary key of every remote document.
const IDField = "_id"

var ErrUnsupportedFilter = errors.New("only {\"_id\": <string>} filters are supported")

// Filter selects documents. Only equality on _id is understood by the server.
type Filter map[string]any

// ID extracts the _id equality value.
func (f Filter) ID() (string, error) {
	if len(f) != 1 {
		return "", ErrUnsupportedFilter
	}
	id, ok := f[IDField].(string)
	if !ok {
		return "", ErrUnsupportedFilter
	}
	return id, nil
}

type Request struct {
	DataSource  string            `json:"dataSource"`
	Database    string            `json:"database"`
	Collection  string            `json:"collection"`
	Filter      Filter            `json:"filter,omitempty"`
	Limit       int               `json:"limit,omitempty"`
	Documents   []json.RawMessage `json:"documents,omitempty"`
	Replacement json.RawMessage   `json:"replacement,omitempty"`
	Upsert      bool              `json:"upsert,omitempty"`
}

type Response struct {
	Document      json.RawMessage   `json:"document,omitempty"`
	Documents     []json.RawMessage `json:"documents,omitempty"`
	InsertedID    string            `json:"insertedId,omitempty"`
	InsertedIDs   []string          `json:"insertedIds,omitempty"`
	MatchedCount  *int64            `json:"matchedCount,omitempty"`
	ModifiedCount *int64            `json:"modifiedCount,omitempty"`
	UpsertedID    string            `json:"upsertedId,omitempty"`
}

// ErrorResponse is returned with any non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DocumentID reads the _id of a raw JSON object.
func DocumentID(doc json.RawMessage) (string, error) {
	var head struct {
		ID *string `json:"_id"`
	}
	if err := json.Unmarshal(doc, &head); err != nil {
		return "", err
	}
	if head.ID == nil || *head.ID == "" {
		return "", errors.New("document has no string _id")
	}
	return *head.ID, nil
}
