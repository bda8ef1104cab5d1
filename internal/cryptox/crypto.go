// Package cryptox seals the locally persisted session so the refresh token
// never sits in the metadata store in clear text.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"io"

	"github.com/dmitrijs2005/profilesync/internal/common"
	"golang.org/x/crypto/hkdf"
)

// KeySize is the AES-256 key length used for sealing.
const KeySize = 32

const sessionKeyInfo = "profilesync-session-v1"

var ErrShortKey = errors.New("device key too short")

// DeriveSessionKey derives the AES key protecting the persisted session from
// the per-device key and a per-install salt using HKDF-SHA256.
func DeriveSessionKey(deviceKey, salt []byte) ([]byte, error) {
	if len(deviceKey) < KeySize {
		return nil, ErrShortKey
	}
	h := hkdf.New(sha256.New, deviceKey, salt, []byte(sessionKeyInfo))
	out := make([]byte, KeySize)
	if _, err := io.ReadFull(h, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SealJSON serializes v to JSON and encrypts it with AES-GCM under key.
// A fresh random nonce is generated for each call and returned separately.
func SealJSON(v any, key []byte) (ciphertext, nonce []byte, err error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}
	defer common.WipeByteArray(plaintext)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = common.GenerateRandByteArray(aesgcm.NonceSize())
	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)

	return ciphertext, nonce, nil
}

// OpenJSON reverses SealJSON, unmarshalling the plaintext into v.
func OpenJSON(ciphertext, nonce, key []byte, v any) error {
	aesgcm, err := newGCM(key)
	if err != nil {
		return err
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(plaintext)

	return json.Unmarshal(plaintext, v)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
