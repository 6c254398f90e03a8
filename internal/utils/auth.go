package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	HashBcrypt     = "bcrypt"
	HashHMACSHA256 = "hmac-sha256"
)

// PasswordHasher derives stored password hashes and checks candidates
// against them.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Check(password, hashedPassword string) bool
}

// NewPasswordHasher returns the hasher for scheme. secret keys the
// hmac-sha256 scheme and is ignored by bcrypt.
func NewPasswordHasher(scheme, secret string) (PasswordHasher, error) {
	switch scheme {
	case HashBcrypt, "":
		return BcryptHasher{Cost: bcrypt.DefaultCost}, nil
	case HashHMACSHA256:
		if secret == "" {
			return nil, fmt.Errorf("hmac-sha256 hashing needs a secret")
		}
		return HMACHasher{Secret: []byte(secret)}, nil
	default:
		return nil, fmt.Errorf("unknown password hash scheme %q", scheme)
	}
}

// BcryptHasher hashes with a per-password random salt.
type BcryptHasher struct {
	Cost int
}

// Hash generates a bcrypt hash of the password.
func (h BcryptHasher) Hash(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// Check compares a bcrypt hashed password with its possible plaintext equivalent.
func (h BcryptHasher) Check(password, hashedPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// HMACHasher is the unsalted keyed hash used by older deployments: the hex
// encoded HMAC-SHA256 of the password under Secret. Equal passwords give
// equal hashes, so only use it to stay compatible with existing records.
type HMACHasher struct {
	Secret []byte
}

func (h HMACHasher) Hash(password string) (string, error) {
	mac := hmac.New(sha256.New, h.Secret)
	mac.Write([]byte(password))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

func (h HMACHasher) Check(password, hashedPassword string) bool {
	want, err := hex.DecodeString(hashedPassword)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, h.Secret)
	mac.Write([]byte(password))
	return hmac.Equal(mac.Sum(nil), want)
}
