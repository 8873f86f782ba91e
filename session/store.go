// Package session implements server-side cookie sessions for the admin API.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

// Data is what a session remembers between requests.
type Data struct {
	AdminID uint `json:"admin_id,omitempty"`
}

// Store persists session data by id. Every write refreshes the TTL.
type Store interface {
	Load(ctx context.Context, id string) (Data, bool, error)
	Save(ctx context.Context, id string, data Data) error
	Touch(ctx context.Context, id string) error
	Destroy(ctx context.Context, id string) error
}

// newID returns a 256-bit random session id.
func newID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
