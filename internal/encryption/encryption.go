// Package encryption implements the field-level encryption used for sensitive
// trade columns: AES-256-CBC with PKCS#7 padding and a random IV per value,
// serialized as "hex(iv):hex(ciphertext)".
package encryption

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the required key length in bytes.
const KeySize = 32

// ErrMalformed is returned when a stored value is not "hex(iv):hex(ciphertext)"
// or does not decrypt to correctly padded plaintext.
var ErrMalformed = errors.New("malformed ciphertext")

// ConfigError reports an unusable encryption key. It is fatal at startup.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "encryption config: " + e.Reason }

// Cipher encrypts and decrypts individual field values. Safe for concurrent use.
type Cipher struct {
	block    cipher.Block
	indexKey []byte
	rand     io.Reader
}

// New builds a Cipher from a raw 32-byte key.
//
// The blind-index key is derived from the same secret with HKDF-SHA256 so the
// lookup hash never reuses the AES key directly.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, &ConfigError{Reason: fmt.Sprintf("key must be exactly %d bytes, got %d", KeySize, len(key))}
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}

	indexKey := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, key, nil, []byte("tradejournal blind index")), indexKey); err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("derive index key: %v", err)}
	}

	return &Cipher{block: block, indexKey: indexKey, rand: rand.Reader}, nil
}

// Encrypt returns "hex(iv):hex(ciphertext)" for plaintext. Two calls with the
// same plaintext produce different outputs.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(c.rand, iv); err != nil {
		return "", fmt.Errorf("iv generation failed: %w", err)
	}

	padded := pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(out), nil
}

// Decrypt reverses Encrypt.
func (c *Cipher) Decrypt(value string) (string, error) {
	ivHex, ctHex, ok := strings.Cut(value, ":")
	if !ok {
		return "", fmt.Errorf("%w: missing iv separator", ErrMalformed)
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return "", fmt.Errorf("%w: bad iv", ErrMalformed)
	}
	ct, err := hex.DecodeString(ctHex)
	if err != nil || len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: bad ciphertext length", ErrMalformed)
	}

	out := make([]byte, len(ct))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(out, ct)

	plain, err := unpad(out, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// BlindIndex returns a keyed, deterministic hash of value (hex HMAC-SHA256)
// used to look rows up by an encrypted column.
func (c *Cipher) BlindIndex(value string) string {
	mac := hmac.New(sha256.New, c.indexKey)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}

func pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, fmt.Errorf("%w: bad padding", ErrMalformed)
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, fmt.Errorf("%w: bad padding", ErrMalformed)
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, fmt.Errorf("%w: bad padding", ErrMalformed)
		}
	}
	return b[:len(b)-n], nil
}
