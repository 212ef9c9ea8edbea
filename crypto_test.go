package marketd

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
)

func TestSignAndRecoverFingerprint(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("keygen failed: %v", err)
	}
	privHex := hex.EncodeToString(crypto.FromECDSA(key))

	sig, err := SignBytes([]byte("hello marketd"), privHex)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	got, err := RecoverFingerprint([]byte("hello marketd"), sig)
	if err != nil {
		t.Fatalf("recover failed: %v", err)
	}

	want, err := PubkeyToFingerprint(crypto.CompressPubkey(&key.PublicKey))
	if err != nil {
		t.Fatalf("fingerprint derivation failed: %v", err)
	}
	if got != want {
		t.Fatalf("expected fingerprint %s got %s", want, got)
	}
	if !IsFingerprint(got) {
		t.Fatalf("expected %s to parse as a fingerprint", got)
	}
}

func TestRecoverFingerprintTamperedMessage(t *testing.T) {
	key, _ := crypto.GenerateKey()
	privHex := hex.EncodeToString(crypto.FromECDSA(key))

	sig, err := SignBytes([]byte("original"), privHex)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	want, _ := PubkeyToFingerprint(crypto.CompressPubkey(&key.PublicKey))

	got, err := RecoverFingerprint([]byte("tampered"), sig)
	if err == nil && got == want {
		t.Fatalf("tampered message must not recover the signer's fingerprint")
	}
}

func TestVerifyMessage(t *testing.T) {
	key, _ := crypto.GenerateKey()
	privHex := hex.EncodeToString(crypto.FromECDSA(key))

	sig, err := SignBytes([]byte("prove it"), privHex)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	sm := SignedMessage{
		Message: "prove it",
		Proof:   Proof{Type: ProofTypeSecp256k1, Signature: hex.EncodeToString(sig)},
	}

	got, err := VerifyMessage(sm)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	want, _ := PubkeyToFingerprint(crypto.CompressPubkey(&key.PublicKey))
	if got != want {
		t.Fatalf("expected %s got %s", want, got)
	}

	sm.Proof.Type = "rsa-pss"
	if _, err := VerifyMessage(sm); err == nil {
		t.Fatalf("unsupported proof type must fail")
	}
}

func TestImportPublicKey(t *testing.T) {
	key, _ := crypto.GenerateKey()
	compressed := crypto.CompressPubkey(&key.PublicKey)
	material := hex.EncodeToString(compressed)

	want, _ := PubkeyToFingerprint(compressed)

	got, err := ImportPublicKey(material)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if got != want {
		t.Fatalf("expected %s got %s", want, got)
	}

	// whitespace in pasted key material is tolerated
	wrapped := material[:20] + "\n" + material[20:40] + "\n  " + material[40:]
	got, err = ImportPublicKey(wrapped)
	if err != nil || got != want {
		t.Fatalf("wrapped material should import: %v", err)
	}

	if _, err := ImportPublicKey(""); err == nil {
		t.Fatalf("empty material must fail")
	}
	if _, err := ImportPublicKey("   \n\t"); err == nil {
		t.Fatalf("blank material must fail")
	}
	if _, err := ImportPublicKey("not-hex!"); err == nil {
		t.Fatalf("malformed material must fail")
	}
	if _, err := ImportPublicKey(strings.Repeat("00", 33)); err == nil {
		t.Fatalf("off-curve material must fail")
	}
}

func TestIsValidUsername(t *testing.T) {
	for _, ok := range []string{"bob", "alice.b", "x@y", "a_b-c+d"} {
		if !IsValidUsername(ok) {
			t.Errorf("expected %q to be valid", ok)
		}
	}
	for _, bad := range []string{"", "white space", "éclair", strings.Repeat("a", 31)} {
		if IsValidUsername(bad) {
			t.Errorf("expected %q to be invalid", bad)
		}
	}
}
