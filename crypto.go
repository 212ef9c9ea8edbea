package marketd

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cosmos/cosmos-sdk/types/bech32"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/ripemd160"
)

const (
	// ProofTypeSecp256k1 is the only proof type accepted on signed messages.
	ProofTypeSecp256k1 = "ecdsa-secp256k1"

	// FingerprintHRP is the bech32 prefix of key fingerprints.
	FingerprintHRP = "mkt"
)

// SignBytes signs data with a hex-encoded secp256k1 private key and returns
// the 65-byte recoverable signature.
func SignBytes(data []byte, privkeyHex string) ([]byte, error) {
	key, err := crypto.HexToECDSA(privkeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %v", err)
	}
	digest := crypto.Keccak256(data)
	return crypto.Sign(digest, key)
}

// RecoverFingerprint recovers the signer's public key from a recoverable
// signature over data and returns its fingerprint.
func RecoverFingerprint(data []byte, signature []byte) (string, error) {
	if len(signature) != 65 {
		return "", fmt.Errorf("invalid signature length: %d", len(signature))
	}
	digest := crypto.Keccak256(data)
	pubkey, err := crypto.SigToPub(digest, signature)
	if err != nil {
		return "", fmt.Errorf("signature recovery failed: %v", err)
	}
	return PubkeyToFingerprint(crypto.CompressPubkey(pubkey))
}

// VerifyMessage checks the detached signature on a signed message and returns
// the signer's fingerprint. An error means the signature is not valid.
func VerifyMessage(sm SignedMessage) (string, error) {
	if sm.Proof.Type != ProofTypeSecp256k1 {
		return "", fmt.Errorf("unsupported proof type: %s", sm.Proof.Type)
	}
	sig, err := hex.DecodeString(sm.Proof.Signature)
	if err != nil {
		return "", fmt.Errorf("invalid signature encoding")
	}
	return RecoverFingerprint([]byte(sm.Message), sig)
}

// ImportPublicKey parses on-file public key material (a hex-encoded
// compressed secp256k1 point, whitespace tolerated) and returns its
// fingerprint. Empty or malformed material is an error.
func ImportPublicKey(material string) (string, error) {
	compact := strings.Join(strings.Fields(material), "")
	if compact == "" {
		return "", fmt.Errorf("empty key material")
	}
	compact = strings.TrimPrefix(compact, "0x")

	raw, err := hex.DecodeString(compact)
	if err != nil {
		return "", fmt.Errorf("invalid key encoding")
	}

	// DecompressPubkey rejects points not on the curve.
	pubkey, err := crypto.DecompressPubkey(raw)
	if err != nil {
		return "", fmt.Errorf("invalid public key: %v", err)
	}

	return PubkeyToFingerprint(crypto.CompressPubkey(pubkey))
}

// PubkeyToFingerprint derives the bech32 fingerprint of a compressed public
// key: bech32(mkt, ripemd160(sha256(pubkey))).
func PubkeyToFingerprint(compressed []byte) (string, error) {
	sha := sha256.Sum256(compressed)
	ripemd := ripemd160.New()
	ripemd.Write(sha[:])
	return bech32.ConvertAndEncode(FingerprintHRP, ripemd.Sum(nil))
}

// PrivKeyToFingerprint derives the fingerprint of the public key belonging to
// a hex-encoded private key.
func PrivKeyToFingerprint(privkeyHex string) (string, error) {
	key, err := crypto.HexToECDSA(privkeyHex)
	if err != nil {
		return "", fmt.Errorf("invalid private key: %v", err)
	}
	return PubkeyToFingerprint(crypto.CompressPubkey(&key.PublicKey))
}
