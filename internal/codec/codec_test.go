package codec

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func codecs() map[string]*Codec {
	return map[string]*Codec{
		"unkeyed": New(nil, WithClock(fixedClock)),
		"keyed":   NewWithPassphrase([]byte("passphrase"), []byte("device-salt"), WithClock(fixedClock)),
	}
}

func TestRoundTrip(t *testing.T) {
	payloads := []any{
		map[string]any{"mood": float64(4)},
		map[string]any{"text": "hello", "tags": []any{"a", "b"}, "nested": map[string]any{"ok": true}},
		"plain string",
		float64(42),
		[]any{float64(1), "two", nil},
	}

	for name, c := range codecs() {
		t.Run(name, func(t *testing.T) {
			for _, p := range payloads {
				opaque, err := c.Encode(p)
				require.NoError(t, err)

				var got any
				require.NoError(t, c.DecodeInto(opaque, &got))
				assert.Equal(t, p, got)
			}
		})
	}
}

func TestEncode_EnvelopeFields(t *testing.T) {
	c := New(nil, WithClock(fixedClock))

	opaque, err := c.EncodeCategory(map[string]int{"mood": 4}, "mood")
	require.NoError(t, err)

	env, err := c.Decode(opaque)
	require.NoError(t, err)
	assert.Equal(t, Version, env.Version)
	assert.Equal(t, fixedClock(), env.Timestamp)
	assert.Equal(t, "mood", env.Category)
	assert.JSONEq(t, `{"mood":4}`, string(env.Data))
}

func TestEncode_OpaqueHidesStructure(t *testing.T) {
	for name, c := range codecs() {
		t.Run(name, func(t *testing.T) {
			opaque, err := c.Encode(map[string]string{"secret": "value"})
			require.NoError(t, err)
			assert.NotContains(t, opaque, "secret")
		})
	}

	keyed := codecs()["keyed"]
	opaque, err := keyed.Encode("x")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(opaque, "v2."))
}

func TestEncode_NotSerializable(t *testing.T) {
	c := New(nil)

	_, err := c.Encode(make(chan int))
	require.ErrorIs(t, err, ErrEncoding)

	_, err = c.Encode(math.NaN())
	require.ErrorIs(t, err, ErrEncoding)

	var encErr *EncodingError
	_, err = c.Encode(func() {})
	require.ErrorAs(t, err, &encErr)
}

func TestDecode_Malformed(t *testing.T) {
	c := New(nil)
	keyed := codecs()["keyed"]

	notEnvelope := base64.StdEncoding.EncodeToString([]byte(`{"foo":1}`))
	notJSON := base64.StdEncoding.EncodeToString([]byte(`not json`))

	sealed, err := keyed.Encode("x")
	require.NoError(t, err)

	tests := []struct {
		name  string
		codec *Codec
		in    string
	}{
		{"not base64", c, "%%%"},
		{"not json", c, notJSON},
		{"missing envelope fields", c, notEnvelope},
		{"sealed without key", c, sealed},
		{"sealed bad base64", keyed, "v2.%%%"},
		{"sealed wrong key", NewWithPassphrase([]byte("other"), []byte("device-salt")), sealed},
		{"empty", c, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := tt.codec.Decode(tt.in)
			require.ErrorIs(t, err, ErrDecoding)
			assert.Nil(t, env)
		})
	}
}

func TestDecodeInto_TypeMismatch(t *testing.T) {
	c := New(nil)
	opaque, err := c.Encode("a string")
	require.NoError(t, err)

	var v struct{ Mood int }
	err = c.DecodeInto(opaque, &v)
	require.ErrorIs(t, err, ErrDecoding)
}

func TestDecode_KeyedCodecReadsUnkeyed(t *testing.T) {
	opaque, err := New(nil).Encode(map[string]int{"a": 1})
	require.NoError(t, err)

	env, err := codecs()["keyed"].Decode(opaque)
	require.NoError(t, err)

	var got map[string]int
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, map[string]int{"a": 1}, got)
}
