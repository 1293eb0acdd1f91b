// Package models defines the persisted client-side shapes of MindKeeper:
// the singleton UserData profile, opaque EncryptedData records and the
// per-category DataLogHub indexes that link the two.
package models
