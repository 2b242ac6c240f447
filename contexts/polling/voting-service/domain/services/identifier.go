package services

import (
	"crypto/sha256"

	"github.com/mr-tron/base58"
)

const (
	externalKeyOwnerPrefix = "owner="
	externalKeyPollPrefix  = "&voting="
)

// GeneratePollID digests the supplied randomness and encodes it with the
// bitcoin base58 alphabet. It is a pure function: callers must pass fresh
// randomness per poll to avoid collisions.
func GeneratePollID(randomness []byte) string {
	sum := sha256.Sum256(randomness)
	return base58.Encode(sum[:])
}

// ExternalKey is the caller-facing poll address. The format is part of the
// public contract and must not change.
func ExternalKey(ownerID string, pollID string) string {
	return externalKeyOwnerPrefix + ownerID + externalKeyPollPrefix + pollID
}
