package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var ErrBadSignature = errors.New("session token signature mismatch")

// Signer binds opaque session ids to the configured secret so a cookie value
// cannot be forged without it. The id alone carries no claims; the session
// row is still looked up on every request.
type Signer struct {
	secret []byte
}

func NewSigner(secret []byte) *Signer {
	return &Signer{secret: append([]byte(nil), secret...)}
}

// Sign renders token as "<uuid>.<base64url mac>".
func (s *Signer) Sign(token uuid.UUID) string {
	id := token.String()
	return id + "." + base64.RawURLEncoding.EncodeToString(s.mac(id))
}

// Verify checks the mac and returns the embedded token.
func (s *Signer) Verify(value string) (uuid.UUID, error) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok {
		return uuid.Nil, ErrBadSignature
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return uuid.Nil, ErrBadSignature
	}
	if !hmac.Equal(got, s.mac(id)) {
		return uuid.Nil, ErrBadSignature
	}
	token, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, ErrBadSignature
	}
	return token, nil
}

func (s *Signer) mac(id string) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(id))
	return h.Sum(nil)
}
