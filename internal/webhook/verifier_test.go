package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifier_RoundTrip(t *testing.T) {
	v := NewVerifier("shared-secret")
	body := []byte(`{"id":123,"note_attributes":[{"name":"lpo_file","value":"https://x/y.pdf"}]}`)

	assert.True(t, v.Verify(body, v.Sign(body)))
}

func TestVerifier_RejectsOneByteMutation(t *testing.T) {
	v := NewVerifier("shared-secret")
	body := []byte(`{"id":123,"customer":{"id":456}}`)
	signature := v.Sign(body)

	for i := range body {
		mutated := make([]byte, len(body))
		copy(mutated, body)
		mutated[i] ^= 0x01

		assert.False(t, v.Verify(mutated, signature), "mutation at byte %d accepted", i)
	}
}

func TestVerifier_RejectsWrongSecret(t *testing.T) {
	body := []byte(`{"id":123}`)
	signature := NewVerifier("their-secret").Sign(body)

	assert.False(t, NewVerifier("our-secret").Verify(body, signature))
}

func TestVerifier_RejectsEmptySignature(t *testing.T) {
	v := NewVerifier("shared-secret")
	assert.False(t, v.Verify([]byte(`{"id":123}`), ""))
}

func TestVerifier_RejectsGarbageSignature(t *testing.T) {
	v := NewVerifier("shared-secret")
	assert.False(t, v.Verify([]byte(`{"id":123}`), "not-base64-at-all!"))
}

func TestVerifier_SignatureDependsOnExactBytes(t *testing.T) {
	v := NewVerifier("shared-secret")

	// Semantically identical JSON with different serialization must not
	// verify; the signature covers the exact bytes received.
	a := []byte(`{"id":123,"customer":{"id":456}}`)
	b := []byte(`{"customer":{"id":456},"id":123}`)

	assert.False(t, v.Verify(b, v.Sign(a)))
}
