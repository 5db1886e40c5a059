// Package token issues cancellation tokens. A token is the sole
// credential for self-service cancellation, so it must be unguessable and
// unique across all rooms, not just one table.
package token

import "github.com/google/uuid"

// Issuer produces opaque cancellation tokens.
type Issuer interface {
	Issue() string
}

// UUIDIssuer issues random UUIDv4 tokens.
type UUIDIssuer struct{}

func NewUUIDIssuer() *UUIDIssuer {
	return &UUIDIssuer{}
}

func (UUIDIssuer) Issue() string {
	return uuid.NewString()
}
