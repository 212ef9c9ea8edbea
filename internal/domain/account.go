package domain

import "time"

// Absence mode choices.
const (
	AbsenceDisponible   = "disponible"
	AbsenceAbsent       = "absent"
	AbsenceIndisponible = "indisponible"
	AbsenceRupture      = "en rupture de stock"
	AbsenceVacances     = "en vacances"
)

// Staff alert levels.
const (
	AlertSuccess = "success"
	AlertInfo    = "info"
	AlertWarning = "warning"
	AlertDanger  = "danger"
)

func IsAbsenceMode(s string) bool {
	switch s {
	case AbsenceDisponible, AbsenceAbsent, AbsenceIndisponible, AbsenceRupture, AbsenceVacances:
		return true
	}
	return false
}

// Account is one platform identity. A non-empty FDWIdentity means the account
// went through a successful identity verification at signup; FDWID zero means
// unverified/unlinked.
type Account struct {
	ID           uint      `json:"-"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FDWIdentity  string    `json:"fdwIdentity"`
	FDWID        uint      `json:"fdwId"`
	Email        string    `json:"email,omitempty"`
	JID          string    `json:"jid"`
	Pubkey       string    `json:"pubkey,omitempty"`
	BTC          string    `json:"btc,omitempty"`
	IRC          string    `json:"irc,omitempty"`
	Ricochet     string    `json:"ricochet,omitempty"`
	Bitmessage   string    `json:"bitmessage,omitempty"`
	Description  string    `json:"description,omitempty"`
	Absence      string    `json:"absence"`
	AdminMsg     string    `json:"adminMsg,omitempty"`
	Alert        string    `json:"alert,omitempty"`
	EscrowMsg    string    `json:"escrowMsg,omitempty"`
	Banned       bool      `json:"-"`
	Inactive     bool      `json:"-"`
	Roles        []string  `json:"roles,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ProfileUpdate carries the fields an account owner may change.
type ProfileUpdate struct {
	Email       *string `json:"email,omitempty"`
	JID         *string `json:"jid,omitempty"`
	Pubkey      *string `json:"pubkey,omitempty"`
	BTC         *string `json:"btc,omitempty"`
	IRC         *string `json:"irc,omitempty"`
	Ricochet    *string `json:"ricochet,omitempty"`
	Bitmessage  *string `json:"bitmessage,omitempty"`
	Description *string `json:"description,omitempty"`
	Absence     *string `json:"absence,omitempty"`
	EscrowMsg   *string `json:"escrowMsg,omitempty"`
}
