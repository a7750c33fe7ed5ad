package dragonpay

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// DigestLen is the length of a hex encoded digest.
const DigestLen = 40

type DigestMode string

const (
	// DigestSHA1 is the gateway's construction: SHA1 over the colon-joined
	// fields with the secret appended as the last field.
	DigestSHA1 DigestMode = "sha1"
	// DigestHMAC keys HMAC-SHA1 with the secret over the colon-joined fields.
	DigestHMAC DigestMode = "hmac"
)

// ComputeDigest hashes the fields in the given order with the secret key.
func ComputeDigest(secretKey string, fields ...string) string {
	h := sha1.New()
	h.Write([]byte(strings.Join(fields, ":") + ":" + secretKey))
	return hex.EncodeToString(h.Sum(nil))
}

func ComputeHMACDigest(secretKey string, fields ...string) string {
	m := hmac.New(sha1.New, []byte(secretKey))
	m.Write([]byte(strings.Join(fields, ":")))
	return hex.EncodeToString(m.Sum(nil))
}

// VerifyDigest compares two hex digests in constant time, ignoring case.
func VerifyDigest(received, computed string) bool {
	r := []byte(strings.ToLower(received))
	c := []byte(strings.ToLower(computed))
	return subtle.ConstantTimeCompare(r, c) == 1
}

// Digester binds a secret key and mode.
type Digester struct {
	key  string
	mode DigestMode
}

func NewDigester(secretKey string, mode DigestMode) Digester {
	if mode != DigestHMAC {
		mode = DigestSHA1
	}
	return Digester{key: secretKey, mode: mode}
}

func (d Digester) Compute(fields ...string) string {
	if d.mode == DigestHMAC {
		return ComputeHMACDigest(d.key, fields...)
	}
	return ComputeDigest(d.key, fields...)
}

func (d Digester) Verify(received string, fields ...string) bool {
	return VerifyDigest(received, d.Compute(fields...))
}
