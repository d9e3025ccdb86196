package security

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// KeyHasher hashes tenant API keys for storage and verifies presented
// keys against the stored hash.
type KeyHasher interface {
	Hash(key string) (string, error)
	Compare(hash, key string) error
}

type bcryptKeyHasher struct {
	cost int
}

func NewBcryptKeyHasher(cost int) KeyHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptKeyHasher{cost: cost}
}

func (h *bcryptKeyHasher) Hash(key string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (h *bcryptKeyHasher) Compare(hash, key string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key))
}

// GenerateAPIKey returns a random hex key of 2n characters. The
// plaintext is shown to the tenant once at registration; only the hash
// is stored.
func GenerateAPIKey(n int) (string, error) {
	if n <= 0 {
		n = 24
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
