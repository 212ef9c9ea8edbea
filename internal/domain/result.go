package domain

// RejectReason tags a verification rejection.
type RejectReason string

const (
	RejectIdentityMismatch    RejectReason = "identity-mismatch"
	RejectCredentialMismatch  RejectReason = "credential-mismatch"
	RejectBannedIdentity      RejectReason = "banned-identity"
	RejectMalformedCredential RejectReason = "malformed-credential"
)

// VerificationResult is the outcome of one identity verification run:
// either confirmed with the remote numeric id, or rejected with a reason.
// Infrastructure failures are errors, never results.
type VerificationResult struct {
	Confirmed bool
	RemoteID  uint
	Reason    RejectReason
}

func Confirmed(remoteID uint) VerificationResult {
	return VerificationResult{Confirmed: true, RemoteID: remoteID}
}

func Rejected(reason RejectReason) VerificationResult {
	return VerificationResult{Reason: reason}
}

// PublicMessage renders the rejection for the end user. Identity and
// credential mismatches share one message so that the response does not
// reveal which of the two checks failed; the distinct Reason stays available
// for logs and tests.
func (r VerificationResult) PublicMessage() string {
	switch r.Reason {
	case RejectIdentityMismatch, RejectCredentialMismatch:
		return "cannot verify your FDW identity; if you think you have provided the correct credentials, please contact a modo or an admin"
	case RejectBannedIdentity:
		return "your FDW identity is linked to a banned user, you are not welcome"
	case RejectMalformedCredential:
		return "FDW identity and FDW password fields can not be empty"
	default:
		return ""
	}
}

// ElevationReason tags a trust elevation rejection.
type ElevationReason string

const (
	ElevationSignatureInvalid    ElevationReason = "signature-invalid"
	ElevationKeyInvalid          ElevationReason = "key-invalid"
	ElevationFingerprintMismatch ElevationReason = "fingerprint-mismatch"
)

// ElevationResult is the outcome of one vendor elevation attempt.
type ElevationResult struct {
	Granted bool
	Reason  ElevationReason
}

func Granted() ElevationResult {
	return ElevationResult{Granted: true}
}

func ElevationRejected(reason ElevationReason) ElevationResult {
	return ElevationResult{Reason: reason}
}

func (r ElevationResult) PublicMessage() string {
	switch r.Reason {
	case ElevationSignatureInvalid:
		return "signature could not be verified"
	case ElevationKeyInvalid:
		return "your public key is not valid"
	case ElevationFingerprintMismatch:
		return "signature does not match your account public key"
	default:
		return ""
	}
}
