package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Two distinct signature schemes authenticate two different parties:
//
//   - the browser checkout callback signs the derived string
//     "<order_id>|<gateway_payment_id>" with the API key secret;
//   - webhook deliveries sign the entire raw request body with the
//     separately-provisioned webhook secret.
//
// They must not be unified — the payloads and key material differ.

// CheckoutSignature computes the hex HMAC-SHA256 over orderID|paymentID with
// the API key secret. Exposed for tests and seed tooling.
func CheckoutSignature(orderID, gatewayPaymentID, keySecret string) string {
	mac := hmac.New(sha256.New, []byte(keySecret))
	mac.Write([]byte(orderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCheckoutSignature checks a client-supplied checkout signature.
func VerifyCheckoutSignature(orderID, gatewayPaymentID, signature, keySecret string) bool {
	expected := CheckoutSignature(orderID, gatewayPaymentID, keySecret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// WebhookSignature computes the hex HMAC-SHA256 over the raw request body
// with the webhook secret.
func WebhookSignature(body []byte, webhookSecret string) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks the x-razorpay-signature header value against
// the raw body.
func VerifyWebhookSignature(body []byte, signature, webhookSecret string) bool {
	expected := WebhookSignature(body, webhookSecret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
