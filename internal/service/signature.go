package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// signBody computes the hex-encoded HMAC-SHA256 of a raw webhook body.
func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// verifySignature compares the gateway-supplied signature against the one
// computed from the raw body. Constant-time to keep timing out of the picture.
func verifySignature(secret string, body []byte, signature string) bool {
	expected := signBody(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
