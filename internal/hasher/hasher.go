// Package hasher provides one-way hashing of passwords and session secrets
// using argon2id, with constant-time verification.
package hasher

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// AlgorithmArgon2id is the only recognized hashing algorithm label.
const AlgorithmArgon2id = "argon2id"

const (
	defaultTime    = 2
	defaultMemory  = 19 * 1024
	defaultThreads = 1
	defaultKeyLen  = 32
	saltLen        = 16
)

// Hasher hashes and verifies secrets. Hashes are self-describing: the
// encoded output carries the algorithm parameters and salt, so Verify needs
// no external configuration.
type Hasher struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
}

// New constructs a Hasher for the given algorithm label. Only
// AlgorithmArgon2id is supported; anything else is a startup error.
func New(algorithm string) (*Hasher, error) {
	if algorithm != AlgorithmArgon2id {
		return nil, fmt.Errorf("hasher: unsupported algorithm %q", algorithm)
	}
	return &Hasher{
		time:    defaultTime,
		memory:  defaultMemory,
		threads: defaultThreads,
		keyLen:  defaultKeyLen,
	}, nil
}

// Hash derives an argon2id digest of secret under a fresh random salt and
// returns it in the standard encoded form
// $argon2id$v=19$m=...,t=...,p=...$<salt>$<digest>. Two calls on the same
// input produce different outputs because the salt is unique per call.
func (h *Hasher) Hash(secret string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("hasher: read random source: %w", err)
	}

	digest := argon2.IDKey([]byte(secret), salt, h.time, h.memory, h.threads, h.keyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.memory,
		h.time,
		h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	)
	return encoded, nil
}

// Verify recomputes the digest of secret using the parameters embedded in
// encoded and compares in constant time. A malformed encoded hash verifies
// false rather than returning an error, so callers treat "invalid"
// uniformly.
func (h *Hasher) Verify(secret, encoded string) bool {
	params, salt, digest, ok := decode(encoded)
	if !ok {
		return false
	}

	computed := argon2.IDKey([]byte(secret), salt, params.time, params.memory, params.threads, uint32(len(digest)))
	return subtle.ConstantTimeCompare(computed, digest) == 1
}

type params struct {
	time    uint32
	memory  uint32
	threads uint8
}

func decode(encoded string) (params, []byte, []byte, bool) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != AlgorithmArgon2id {
		return params{}, nil, nil, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return params{}, nil, nil, false
	}

	var p params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return params{}, nil, nil, false
	}
	if p.memory == 0 || p.time == 0 || p.threads == 0 {
		return params{}, nil, nil, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return params{}, nil, nil, false
	}
	digest, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(digest) == 0 {
		return params{}, nil, nil, false
	}

	return p, salt, digest, true
}
