package domain

// FDWRecord is the authoritative identity record fetched from the remote
// source per verification attempt. It is never persisted locally.
// The zero value ("", "", 0) is the not-found sentinel, distinct from a
// fetch error.
type FDWRecord struct {
	Identity       string
	CredentialHash string
	ID             uint
}
