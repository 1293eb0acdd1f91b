// Package codec turns arbitrary JSON-serialisable payloads into opaque,
// reversible strings and back.
//
// Every payload is wrapped in an Envelope carrying a version tag and the
// encoding time. Without a key the envelope is only base64-armoured; with a
// key it is sealed with AES-GCM (see internal/cryptox) and prefixed with
// "v2." so both forms can be told apart on decode.
//
// Round-trip law: for every serialisable x, Decode(Encode(x)).Data is the
// JSON encoding of x.
package codec

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/mindkeeper/internal/cryptox"
)

// Version is the envelope schema version written by this package.
const Version = 1

const sealedPrefix = "v2."

var errKeyRequired = errors.New("sealed payload requires a key")

// Envelope is the structure hidden inside every opaque string.
type Envelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	Version   int             `json:"version"`
	Category  string          `json:"category,omitempty"`
}

// Codec encodes and decodes envelopes. The zero value is not usable; use New.
type Codec struct {
	key []byte
	now func() time.Time
}

type Option func(*Codec)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// New returns a Codec. A nil or empty key selects the unkeyed base64 form.
func New(key []byte, opts ...Option) *Codec {
	c := &Codec{key: key, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewWithPassphrase derives the sealing key from passphrase and salt.
func NewWithPassphrase(passphrase, salt []byte, opts ...Option) *Codec {
	return New(cryptox.DeriveKey(passphrase, salt), opts...)
}

// Keyed reports whether payloads are sealed.
func (c *Codec) Keyed() bool { return len(c.key) > 0 }

// Encode wraps payload and returns its opaque form.
func (c *Codec) Encode(payload any) (string, error) {
	return c.encode(payload, "")
}

// EncodeCategory is Encode with the record category recorded in the envelope.
func (c *Codec) EncodeCategory(payload any, category string) (string, error) {
	return c.encode(payload, category)
}

func (c *Codec) encode(payload any, category string) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", &EncodingError{Err: err}
	}

	env := Envelope{
		Data:      data,
		Timestamp: c.now().UTC(),
		Version:   Version,
		Category:  category,
	}

	plain, err := json.Marshal(env)
	if err != nil {
		return "", &EncodingError{Err: err}
	}

	if !c.Keyed() {
		return base64.StdEncoding.EncodeToString(plain), nil
	}

	sealed, err := cryptox.Seal(plain, c.key)
	if err != nil {
		return "", &EncodingError{Err: err}
	}
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decode reverses Encode. On any failure it returns a *DecodingError and a
// nil envelope.
func (c *Codec) Decode(opaque string) (*Envelope, error) {
	var plain []byte

	if rest, ok := strings.CutPrefix(opaque, sealedPrefix); ok {
		if !c.Keyed() {
			return nil, &DecodingError{Err: errKeyRequired}
		}
		sealed, err := base64.StdEncoding.DecodeString(rest)
		if err != nil {
			return nil, &DecodingError{Err: err}
		}
		plain, err = cryptox.Open(sealed, c.key)
		if err != nil {
			return nil, &DecodingError{Err: err}
		}
	} else {
		var err error
		plain, err = base64.StdEncoding.DecodeString(opaque)
		if err != nil {
			return nil, &DecodingError{Err: err}
		}
	}

	var env Envelope
	if err := json.Unmarshal(plain, &env); err != nil {
		return nil, &DecodingError{Err: err}
	}
	if env.Version < 1 || len(env.Data) == 0 {
		return nil, &DecodingError{Err: errors.New("missing envelope data or version")}
	}
	return &env, nil
}

// DecodeInto decodes opaque and unmarshals the wrapped data into v.
func (c *Codec) DecodeInto(opaque string, v any) error {
	env, err := c.Decode(opaque)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return &DecodingError{Err: err}
	}
	return nil
}
