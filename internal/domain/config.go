package domain

type Config struct {
	FQDN         string `yaml:"fqdn"`
	PrivateKey   string `yaml:"privatekey"`
	Registration string `yaml:"registration"` // open, close
	JIDSuffix    string `yaml:"jidSuffix"`
	Fingerprint  string `yaml:"fingerprint"`
}
