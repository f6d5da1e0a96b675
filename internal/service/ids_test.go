package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDGeneratorFormat(t *testing.T) {
	gen := UUIDGenerator{}
	assert.Regexp(t, `^DON[0-9A-F]{8}$`, gen.DonorID())
	assert.Regexp(t, `^DONATION[0-9A-F]{8}$`, gen.DonationID())
	assert.Regexp(t, `^REQ[0-9A-F]{8}$`, gen.RequestID())
}

func TestUniqueID(t *testing.T) {
	taken := map[string]bool{"A": true, "B": true}
	candidates := []string{"A", "B", "C"}
	i := 0
	next := func() string {
		v := candidates[i]
		i++
		return v
	}
	exists := func(_ context.Context, id string) (bool, error) { return taken[id], nil }

	id, err := uniqueID(context.Background(), "donor", next, exists)
	require.NoError(t, err)
	assert.Equal(t, "C", id)

	_, err = uniqueID(context.Background(), "donor", func() string { return "A" }, exists)
	assert.ErrorIs(t, err, ErrConflict)
}
