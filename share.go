package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// codeAlphabet omits glyphs that read ambiguously when spoken or copied
// by hand (0/O, 1/I/L).
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

// randomCode generates a crypto-random session code.
func randomCode() string {
	out := make([]byte, codeLength)
	for i := range out {
		out[i] = codeAlphabet[uniformIndex(len(codeAlphabet))]
	}
	return string(out)
}

// newSessionCode draws codes until one is free in the store. Collisions
// over a 32^6 space are rare; the loop is bounded anyway so a broken
// backend can't spin us forever.
func newSessionCode(ctx context.Context, store SessionStore) (string, error) {
	for attempt := 0; attempt < 16; attempt++ {
		code := randomCode()

		_, err := store.Read(ctx, code)
		switch {
		case errors.Is(err, ErrSessionNotFound):
			return code, nil
		case err != nil:
			return "", err
		}
	}
	return "", fmt.Errorf("%w: could not find a free session code", ErrStoreUnavailable)
}

// dateKey derives a session key from a calendar date plus the creation
// instant, the original date-addressed variant's format.
func dateKey(date string, t time.Time) string {
	return date + "-" + strconv.FormatInt(t.UnixMilli(), 10)
}

// Share payloads: the whole envelope encoded into a URL-safe string, for
// handing a session to the peer without a shared backend. The payload is
// its own key; decoding it is the read.

func encodeSharePayload(sess *Session) (string, error) {
	data, err := marshalSession(sess)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func decodeSharePayload(payload string) (*Session, error) {
	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable share payload: %v", ErrValidation, err)
	}
	return unmarshalSession(data)
}

// payloadStore is the degenerate read-only store adapter over share
// payloads. It satisfies SessionStore so the engine's read path works
// unchanged on a shared link; mutations have nowhere to go and say so.
type payloadStore struct{}

func (payloadStore) Create(_ context.Context, _ *Session) error {
	return fmt.Errorf("%w: share payloads are read-only", ErrStoreUnavailable)
}

func (payloadStore) Read(_ context.Context, key string) (*Session, error) {
	return decodeSharePayload(key)
}

func (payloadStore) Write(_ context.Context, _ string, _ *Session) error {
	return fmt.Errorf("%w: share payloads are read-only", ErrStoreUnavailable)
}

func (payloadStore) Delete(_ context.Context, _ string) error {
	return fmt.Errorf("%w: share payloads are read-only", ErrStoreUnavailable)
}

func (payloadStore) Close() error {
	return nil
}
