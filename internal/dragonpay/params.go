package dragonpay

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// ParamCodec protects the merchant params (param1/param2) that travel
// through the gateway and come back on the callback.
type ParamCodec interface {
	Encrypt(plain string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

var (
	errShortCiphertext = errors.New("ciphertext too short")
	errNoCodec         = errors.New("param encryption enabled without a codec")
)

const paramKeyInfo = "dragonpay-params-v1"

// AEADCodec seals params with XChaCha20-Poly1305. Output is
// base64url(nonce || sealed) so it survives a query string.
type AEADCodec struct {
	aead cipher.AEAD
}

// NewAEADCodec derives the cipher key from secret with HKDF-SHA256.
func NewAEADCodec(secret string) (*AEADCodec, error) {
	if secret == "" {
		return nil, errors.New("param codec: empty secret")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(paramKeyInfo)), key); err != nil {
		return nil, fmt.Errorf("param codec: derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("param codec: %w", err)
	}
	return &AEADCodec{aead: aead}, nil
}

func (c *AEADCodec) Encrypt(plain string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plain)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (c *AEADCodec) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", err
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns+c.aead.Overhead() {
		return "", errShortCiphertext
	}
	plain, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
