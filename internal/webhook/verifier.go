package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Verifier authenticates inbound platform notifications. The platform signs
// each delivery with an HMAC-SHA256 over the request body, base64-encoded in
// a header; anything that fails verification is treated as hostile and must
// not trigger side effects.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier bound to the shared webhook secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Sign computes the base64-encoded HMAC-SHA256 of body.
func (v *Verifier) Sign(body []byte) string {
	h := hmac.New(sha256.New, v.secret)
	h.Write(body)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// Verify checks the signature header against the exact raw bytes received.
// The body must not be re-serialized from a parsed form before verification;
// re-serialization can reorder keys or change whitespace and break the
// signature for a legitimate sender. Comparison is constant time.
func (v *Verifier) Verify(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	return hmac.Equal([]byte(v.Sign(body)), []byte(signature))
}
