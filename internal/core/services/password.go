package services

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher stores bcrypt(sha256hex(password+salt)). The sha256 step keeps the
// bcrypt input below its 72 byte limit and lets accounts that still carry a bare
// sha256 hash log in.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

func saltedDigest(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}

func (h *PasswordHasher) Hash(password, salt string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(saltedDigest(password, salt)), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(out), nil
}

// Verify reports whether password matches the stored hash.
func (h *PasswordHasher) Verify(hash, password, salt string) (bool, error) {
	digest := saltedDigest(password, salt)

	if isLegacyDigest(hash) {
		return subtle.ConstantTimeCompare([]byte(hash), []byte(digest)) == 1, nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(digest)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func isLegacyDigest(hash string) bool {
	if len(hash) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}
