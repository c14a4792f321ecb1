package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Store is the interface used by the handlers.
// Implemented by the memory store (dev) and the Redis store (prod).
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Entry is a stored response: body plus the headers it was served with.
type Entry struct {
	Header map[string]string `json:"header"`
	Body   []byte            `json:"body"`
}

// Marshal encodes e for a Store.
func (e Entry) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalEntry decodes a value previously produced by Entry.Marshal.
func UnmarshalEntry(b []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry{}, err
	}
	return e, nil
}
