// Package cryptoutil signs and verifies short messages with a symmetric key.
// It is a thin layer over golang.org/x/crypto/nacl/auth.
package cryptoutil

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/nacl/auth"
)

const KeySize = 32

var (
	ErrMissingKey       = errors.New("secret key is required")
	ErrInvalidSignature = errors.New("invalid signature")
)

// SignSymmetric returns the message prefixed with its authenticator.
func SignSymmetric(msg []byte, secretKey *[KeySize]byte) ([]byte, error) {
	if secretKey == nil {
		return nil, ErrMissingKey
	}
	digest := auth.Sum(msg, secretKey)
	signedMsg := make([]byte, auth.Size+len(msg))
	copy(signedMsg, digest[:])
	copy(signedMsg[auth.Size:], msg)
	return signedMsg, nil
}

// VerifyAndReadSymmetric checks a message produced by SignSymmetric and
// returns the original message.
func VerifyAndReadSymmetric(signedMsg []byte, secretKey *[KeySize]byte) ([]byte, error) {
	if secretKey == nil {
		return nil, ErrMissingKey
	}
	if len(signedMsg) < auth.Size {
		return nil, ErrInvalidSignature
	}
	msg := signedMsg[auth.Size:]
	if !auth.Verify(signedMsg[:auth.Size], msg, secretKey) {
		return nil, ErrInvalidSignature
	}
	return msg, nil
}

// VerifyAndReadWithAnyKey tries each key in order and reports the index of
// the one that verified. Keys are expected latest-first, so an index above
// zero means the message was signed with a rotated-out key.
func VerifyAndReadWithAnyKey(signedMsg []byte, keys [][KeySize]byte) ([]byte, int, error) {
	for i := range keys {
		if msg, err := VerifyAndReadSymmetric(signedMsg, &keys[i]); err == nil {
			return msg, i, nil
		}
	}
	return nil, -1, ErrInvalidSignature
}

func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
