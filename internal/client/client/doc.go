// Package client talks to the remote document API used for MindKeeper sync.
//
// # Overview
//
// Client is the transport-agnostic contract the sync orchestrator depends on.
// DataAPIClient implements it over JSON/HTTP: every call is a POST to
// <base>/action/<verb> (findOne, insertMany, replaceOne) carrying the data
// source, database and collection, authenticated with a static api-key header
// or a jwtTokenString bearer.
//
// # Sensitive fields
//
// Doctor advice text is sealed with the codec before UserData leaves the
// device and opened again on pull. EncryptedData records are already opaque
// and are sent as is.
//
// # Failure model
//
// Push and pull never return errors: any transport, status or decoding problem
// is logged and reported as false or nil. Ping is the one call that exposes
// the cause, mapped onto ErrUnavailable and ErrUnauthorized.
//
// Requests honour a per-call timeout. With RetryAttempts > 0, transport errors
// and 5xx responses are retried with exponential backoff.
package client
