package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	donorIDPrefix    = "DON"
	donationIDPrefix = "DONATION"
	requestIDPrefix  = "REQ"

	maxIDAttempts = 5
)

// IDGenerator produces candidate public identifiers. Candidates are checked
// against the store before use, so implementations need not be collision free.
type IDGenerator interface {
	DonorID() string
	DonationID() string
	RequestID() string
}

// UUIDGenerator suffixes each prefix with 8 hex characters of a random UUID.
type UUIDGenerator struct{}

func (UUIDGenerator) DonorID() string    { return donorIDPrefix + shortUUID() }
func (UUIDGenerator) DonationID() string { return donationIDPrefix + shortUUID() }
func (UUIDGenerator) RequestID() string  { return requestIDPrefix + shortUUID() }

func shortUUID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// uniqueID draws candidates from next until exists reports a free one.
func uniqueID(ctx context.Context, kind string, next func() string, exists func(context.Context, string) (bool, error)) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		candidate := next()
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", unavailable("check "+kind+" id", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no free %s id after %d attempts", ErrConflict, kind, maxIDAttempts)
}
