package jwt

type Header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
	KeyID     string `json:"kid,omitempty"`
}

type Claims struct {
	Issuer         string `json:"iss,omitempty"` // fingerprint of the signer
	Subject        string `json:"sub,omitempty"`
	Audience       string `json:"aud,omitempty"`
	Principal      string `json:"prn,omitempty"` // account username
	ExpirationTime string `json:"exp,omitempty"`
	IssuedAt       string `json:"iat,omitempty"`
	JWTID          string `json:"jti,omitempty"`
}
