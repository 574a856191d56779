package utils

import "testing"

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"productIds":[1,2,3]}`)
	secret := "ingest-secret"

	sig := GenerateSignature(payload, secret)
	if !VerifySignature(payload, sig, secret) {
		t.Fatal("valid signature must verify")
	}
	if VerifySignature(payload, sig, "other-secret") {
		t.Fatal("signature must not verify under a different secret")
	}
	if VerifySignature([]byte(`{"productIds":[4]}`), sig, secret) {
		t.Fatal("signature must not verify for a different payload")
	}
	if VerifySignature(payload, "deadbeef", secret) {
		t.Fatal("garbage signature must not verify")
	}
}
