package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// clientSignaturePayload builds the canonical string the gateway signs for
// browser checkout confirmations.
func clientSignaturePayload(orderID, paymentID string) []byte {
	return []byte(orderID + "|" + paymentID)
}

// verifySignature compares the hex HMAC-SHA-256 of payload keyed by secret
// against the caller-supplied signature. Length mismatch fails immediately;
// the value comparison is constant-time.
func verifySignature(secret string, payload []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if len(signature) != len(expected) {
		return false
	}
	return hmac.Equal([]byte(signature), []byte(expected))
}

// VerifyClientSignature authenticates a client-submitted confirmation signed
// over "orderId|paymentId" with the gateway key secret.
func VerifyClientSignature(keySecret, orderID, paymentID, signature string) bool {
	return verifySignature(keySecret, clientSignaturePayload(orderID, paymentID), signature)
}

// VerifyWebhookSignature authenticates a gateway-pushed event signed over the
// exact raw request body with the webhook secret. An empty secret refuses
// everything; a deployment without webhooks must never accept one.
func VerifyWebhookSignature(webhookSecret string, body []byte, signature string) bool {
	if webhookSecret == "" {
		return false
	}
	return verifySignature(webhookSecret, body, signature)
}
