// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"sync"
)

// hasherPool is a package-level pool of reusable HMAC-SHA256 hash instances.
// Must be initialized via InitHasherPool before use.
var hasherPool sync.Pool

// InitHasherPool initializes the pool of HMAC-SHA256 hashers used by Hash.
// Calling it again replaces the key for subsequent hashes.
func InitHasherPool(hashKey string) {
	hasherPool = sync.Pool{
		New: func() any {
			return hmac.New(sha256.New, []byte(hashKey))
		},
	}
}

// Hash computes an HMAC-SHA256 signature over data with a pooled hasher.
func Hash(data []byte) []byte {
	h := hasherPool.Get().(hash.Hash)
	h.Reset()

	h.Write(data)
	sum := h.Sum(nil)

	h.Reset()
	hasherPool.Put(h)

	return sum
}

// HashString computes a hex HMAC-SHA256 of data with an explicit key,
// bypassing the pool.
func HashString(data string, hashKey string) string {
	hasher := hmac.New(sha256.New, []byte(hashKey))
	hasher.Write([]byte(data))
	return hex.EncodeToString(hasher.Sum(nil))
}

// HashJSON returns the hex HMAC-SHA256 of the JSON encoding of v with an
// explicit key. The client signs push items with it and the server recomputes
// it over the decoded items, so field order follows the Go struct on both
// ends.
func HashJSON(v any, hashKey string) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("error marshaling value for hashing: %w", err)
	}
	hasher := hmac.New(sha256.New, []byte(hashKey))
	hasher.Write(raw)
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// EqualHex compares two hex digests in constant time.
func EqualHex(a, b string) bool {
	ra, errA := hex.DecodeString(a)
	rb, errB := hex.DecodeString(b)
	if errA != nil || errB != nil {
		return false
	}
	return hmac.Equal(ra, rb)
}
