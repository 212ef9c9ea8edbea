package marketd

import (
	"time"
)

const (
	RoleVendor = "vendor"
	RoleEscrow = "escrow"
)

// Proof carries the detached signature over a message.
type Proof struct {
	Type      string `json:"type"`
	Signature string `json:"signature"`
}

// SignedMessage is the envelope users submit to prove key ownership.
// The signature is detached: it covers the raw Message bytes only.
type SignedMessage struct {
	Message string `json:"message"`
	Proof   Proof  `json:"proof"`
}

// Event is published on redis pubsub and relayed to realtime subscribers.
type Event struct {
	Type      string    `json:"type"`
	Owner     string    `json:"owner"`
	Payload   string    `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	EventAccountRegistered = "account.registered"
	EventVendorGranted     = "vendor.granted"
	EventProfileUpdated    = "profile.updated"
)

type MarketEndpoint struct {
	Template string `json:"template"`
	Method   string `json:"method"`
}

type WellKnownMarket struct {
	Version      string                    `json:"version"`
	Domain       string                    `json:"domain"`
	Fingerprint  string                    `json:"fingerprint"`
	Registration string                    `json:"registration"`
	Endpoints    map[string]MarketEndpoint `json:"endpoints"`
}
