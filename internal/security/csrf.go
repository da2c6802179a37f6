package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidToken = errors.New("invalid CSRF token")

const (
	nonceSize  = 16
	secretSize = 32
)

// TokenManager issues CSRF tokens bound to a browser profile.
// A token is "<nonce>.<hmac(profile, nonce)>" in hex, so verification needs no server-side state.
type TokenManager struct {
	secret []byte
}

// NewTokenManager creates a manager keyed by secret. An empty secret gets a random
// one, which invalidates outstanding tokens on restart.
func NewTokenManager(secret []byte) (*TokenManager, error) {
	if len(secret) == 0 {
		secret = make([]byte, secretSize)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate csrf secret: %w", err)
		}
	}
	return &TokenManager{secret: secret}, nil
}

// Generate creates a fresh token for profileID.
func (tm *TokenManager) Generate(profileID string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	return hex.EncodeToString(nonce) + "." + hex.EncodeToString(tm.sign(profileID, nonce)), nil
}

// Verify checks that token was issued for profileID.
func (tm *TokenManager) Verify(profileID, token string) error {
	nonceHex, macHex, ok := strings.Cut(token, ".")
	if !ok || profileID == "" {
		return ErrInvalidToken
	}
	nonce, err := hex.DecodeString(nonceHex)
	if err != nil || len(nonce) != nonceSize {
		return ErrInvalidToken
	}
	mac, err := hex.DecodeString(macHex)
	if err != nil {
		return ErrInvalidToken
	}
	if !hmac.Equal(mac, tm.sign(profileID, nonce)) {
		return ErrInvalidToken
	}
	return nil
}

func (tm *TokenManager) sign(profileID string, nonce []byte) []byte {
	h := hmac.New(sha256.New, tm.secret)
	h.Write([]byte(profileID))
	h.Write([]byte{0})
	h.Write(nonce)
	return h.Sum(nil)
}
