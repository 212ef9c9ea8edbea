package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/fdwmarket/marketd"
	"github.com/fdwmarket/marketd/internal/usecase"
)

func signedEnvelope(t *testing.T, privHex, message string) string {
	t.Helper()
	sig, err := marketd.SignBytes([]byte(message), privHex)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	body, err := json.Marshal(marketd.SignedMessage{
		Message: message,
		Proof:   marketd.Proof{Type: marketd.ProofTypeSecp256k1, Signature: hex.EncodeToString(sig)},
	})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	return string(body)
}

// End to end over the real crypto backend: the elevation engine grants
// exactly when the message is signed with the key on file.
func TestElevationOverRealBackend(t *testing.T) {
	owner, _ := crypto.GenerateKey()
	ownerPriv := hex.EncodeToString(crypto.FromECDSA(owner))
	ownerPub := hex.EncodeToString(crypto.CompressPubkey(&owner.PublicKey))

	intruder, _ := crypto.GenerateKey()
	intruderPriv := hex.EncodeToString(crypto.FromECDSA(intruder))

	uc := usecase.NewElevationUsecase(NewSignatureService())
	ctx := context.Background()

	result := uc.Elevate(ctx, ownerPub, signedEnvelope(t, ownerPriv, "verify me"))
	if !result.Granted {
		t.Fatalf("expected grant, got %+v", result)
	}

	result = uc.Elevate(ctx, ownerPub, signedEnvelope(t, intruderPriv, "verify me"))
	if result.Granted {
		t.Fatalf("message signed by another key must not grant: %+v", result)
	}

	result = uc.Elevate(ctx, "", signedEnvelope(t, ownerPriv, "verify me"))
	if result.Granted || result.Reason == "" {
		t.Fatalf("empty key material must reject: %+v", result)
	}

	result = uc.Elevate(ctx, ownerPub, "not even json")
	if result.Granted {
		t.Fatalf("unsigned message must not grant: %+v", result)
	}
}

func TestVerifyDetachedRejectsUnsigned(t *testing.T) {
	svc := NewSignatureService()
	ctx := context.Background()

	for _, bad := range []string{"", "{}", `{"message":"x"}`, `{"message":"x","proof":{"type":"ecdsa-secp256k1","signature":"zz"}}`} {
		if _, valid := svc.VerifyDetached(ctx, bad); valid {
			t.Errorf("expected %q to be invalid", bad)
		}
	}
}
