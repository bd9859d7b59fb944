// Package cid provides content identifiers, a blob store contract, and the
// document successor chain service (spec §3 CID/CidChain/DocumentSuccessor,
// §4.3 build/verify/repair). Content hashing follows the teacher engine's
// own convention for content-addressed replay hashes: canonical JSON,
// SHA-256, rendered as "sha256:<hex>".
package cid

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// CID is an opaque, self-describing content hash. Two CIDs are equal iff
// their underlying content is equal (spec §3).
type CID string

// Compute canonicalizes v (via encoding/json, which serializes struct
// fields in declaration order and map keys in sorted order, satisfying the
// "stable key order" canonicalization rule of spec §6) and returns its
// content identifier.
func Compute(v interface{}) (CID, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("cid: marshal: %w", err)
	}
	return ComputeBytes(b), nil
}

// ComputeBytes hashes raw bytes directly, for content that is already a
// canonical byte sequence (e.g. a blob payload).
func ComputeBytes(b []byte) CID {
	sum := sha256.Sum256(b)
	return CID("sha256:" + hex.EncodeToString(sum[:]))
}

// Algorithm returns the hash algorithm name encoded in the CID, or "" if
// the CID does not carry one.
func (c CID) Algorithm() string {
	for i, r := range string(c) {
		if r == ':' {
			return string(c)[:i]
		}
	}
	return ""
}

func (c CID) String() string { return string(c) }

// IsZero reports whether the CID is the empty value.
func (c CID) IsZero() bool { return c == "" }
