package dragonpay

import (
	"encoding/hex"
	"log/slog"
	"net/url"
	"unicode/utf8"
)

// Field limits of the callback name-value pairs.
const (
	maxTxnID   = 128
	maxRefNo   = 32
	maxMessage = 128
)

// MaxParamLen is the longest param1/param2 value, as sent on the wire, the
// gateway echoes back.
const MaxParamLen = 128

// Callback is the raw name-value payload Dragonpay sends to the postback
// and return URLs.
type Callback struct {
	TxnID   string
	RefNo   string
	Status  string
	Message string
	Digest  string
	Param1  string
	Param2  string
}

// CallbackFromValues reads a callback from query or form values.
func CallbackFromValues(v url.Values) Callback {
	return Callback{
		TxnID:   v.Get("txnid"),
		RefNo:   v.Get("refno"),
		Status:  v.Get("status"),
		Message: v.Get("message"),
		Digest:  v.Get("digest"),
		Param1:  v.Get("param1"),
		Param2:  v.Get("param2"),
	}
}

// AuthenticatedCallback is a callback whose digest matched. Params are
// plaintext when encryption is enabled.
type AuthenticatedCallback struct {
	TxnID   string
	RefNo   string
	Status  Status
	Message string
	Param1  string
	Param2  string
}

type Validator struct {
	digester Digester
	codec    ParamCodec
	decrypt  bool
	log      *slog.Logger
}

// NewValidator builds a callback validator. codec may be nil when decrypt is false.
func NewValidator(d Digester, codec ParamCodec, decrypt bool, log *slog.Logger) *Validator {
	if log == nil {
		log = slog.Default()
	}
	return &Validator{digester: d, codec: codec, decrypt: decrypt, log: log}
}

// Validate checks structure, then the digest, then decrypts params. Nothing
// is returned unless all three pass.
func (v *Validator) Validate(cb Callback) (AuthenticatedCallback, error) {
	if err := checkStructure(cb); err != nil {
		return AuthenticatedCallback{}, err
	}

	computed := v.digester.Compute(cb.TxnID, cb.RefNo, cb.Status, cb.Message)
	if !VerifyDigest(cb.Digest, computed) {
		v.log.Error("callback digest mismatch",
			"txnid", cb.TxnID, "received", cb.Digest, "computed", computed)
		return AuthenticatedCallback{}, &AuthenticationError{TxnID: cb.TxnID}
	}

	out := AuthenticatedCallback{
		TxnID:   cb.TxnID,
		RefNo:   cb.RefNo,
		Status:  Status(cb.Status),
		Message: cb.Message,
		Param1:  cb.Param1,
		Param2:  cb.Param2,
	}
	if !v.decrypt {
		return out, nil
	}

	var err error
	if out.Param1, err = v.decryptParam("param1", cb.TxnID, cb.Param1); err != nil {
		return AuthenticatedCallback{}, err
	}
	if out.Param2, err = v.decryptParam("param2", cb.TxnID, cb.Param2); err != nil {
		return AuthenticatedCallback{}, err
	}
	return out, nil
}

func (v *Validator) decryptParam(field, txnID, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if v.codec == nil {
		return "", &DecodeError{Field: field, Err: errNoCodec}
	}
	plain, err := v.codec.Decrypt(value)
	if err != nil {
		v.log.Warn("callback param decrypt failed", "txnid", txnID, "field", field, "err", err)
		return "", &DecodeError{Field: field, Err: err}
	}
	v.log.Debug("callback param decrypted",
		"txnid", txnID, "field", field, "cipher_len", len(value), "plain_len", len(plain))
	return plain, nil
}

func checkStructure(cb Callback) error {
	ve := &ValidationError{}
	checkLen(ve, "txnid", cb.TxnID, 1, maxTxnID)
	checkLen(ve, "refno", cb.RefNo, 1, maxRefNo)
	checkLen(ve, "message", cb.Message, 1, maxMessage)
	checkLen(ve, "param1", cb.Param1, 0, MaxParamLen)
	checkLen(ve, "param2", cb.Param2, 0, MaxParamLen)

	switch {
	case cb.Status == "":
		ve.Add("status", "required")
	case utf8.RuneCountInString(cb.Status) != 1:
		ve.Add("status", "must be exactly 1 character")
	case !Status(cb.Status).IsTransactionStatus():
		ve.Add("status", "unknown status code")
	}

	switch {
	case cb.Digest == "":
		ve.Add("digest", "required")
	case len(cb.Digest) != DigestLen:
		ve.Add("digest", "must be 40 hex characters")
	default:
		if _, err := hex.DecodeString(cb.Digest); err != nil {
			ve.Add("digest", "must be 40 hex characters")
		}
	}
	return ve.Err()
}

func checkLen(ve *ValidationError, field, value string, min, max int) {
	n := utf8.RuneCountInString(value)
	switch {
	case n == 0 && min > 0:
		ve.Add(field, "required")
	case n > max:
		ve.Add(field, "too long")
	}
}
