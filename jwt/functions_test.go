package jwt

import (
	"encoding/hex"
	"strconv"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/fdwmarket/marketd"
)

func testKey(t *testing.T) (privHex, fingerprint string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("keygen failed: %v", err)
	}
	privHex = hex.EncodeToString(crypto.FromECDSA(key))
	fingerprint, err = marketd.PubkeyToFingerprint(crypto.CompressPubkey(&key.PublicKey))
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}
	return privHex, fingerprint
}

func TestCreateValidateRoundtrip(t *testing.T) {
	priv, fp := testKey(t)

	token, err := Create(Claims{
		Issuer:         fp,
		Subject:        "marketd-session",
		Audience:       "market.example.com",
		Principal:      "bob",
		ExpirationTime: strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10),
	}, priv)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, claims, err := Validate(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.Principal != "bob" {
		t.Fatalf("expected principal bob got %s", claims.Principal)
	}
}

func TestValidateExpired(t *testing.T) {
	priv, fp := testKey(t)

	token, err := Create(Claims{
		Issuer:         fp,
		ExpirationTime: strconv.FormatInt(time.Now().Add(-time.Minute).Unix(), 10),
	}, priv)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, _, err := Validate(token); err == nil {
		t.Fatalf("expired token must not validate")
	}
}

func TestValidateWrongIssuer(t *testing.T) {
	priv, _ := testKey(t)
	_, otherFp := testKey(t)

	// claims name a different signer than the actual key
	token, err := Create(Claims{Issuer: otherFp}, priv)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, _, err := Validate(token); err == nil {
		t.Fatalf("token with mismatched issuer must not validate")
	}
}

func TestValidateGarbage(t *testing.T) {
	if _, _, err := Validate("not-a-jwt"); err == nil {
		t.Fatalf("garbage must not validate")
	}
}
