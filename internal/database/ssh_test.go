package database

import (
	"crypto/ed25519"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
)

func TestSSHConfigEndpoint(t *testing.T) {
	tests := []struct {
		name string
		cfg  *SSHConfig
		want string
	}{
		{
			name: "default port",
			cfg:  &SSHConfig{Host: "bastion.example.com"},
			want: "bastion.example.com:22",
		},
		{
			name: "explicit port",
			cfg:  &SSHConfig{Host: "10.0.0.1", Port: 2222},
			want: "10.0.0.1:2222",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Endpoint(); got != tt.want {
				t.Errorf("want %s, got %s", tt.want, got)
			}
		})
	}
}

func TestMatchAgentKey(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	pub, err := ssh.NewPublicKey(ed25519.NewKeyFromSeed(seed).Public())
	if err != nil {
		t.Fatalf("cannot create public key, %s", err)
	}
	sha := ssh.FingerprintSHA256(pub)

	tests := []struct {
		name     string
		selector string
		comment  string
		want     bool
	}{
		{name: "empty selector", selector: "", comment: "ops@laptop", want: true},
		{name: "exact comment", selector: "ops@laptop", comment: "ops@laptop", want: true},
		{name: "comment substring", selector: "laptop", comment: "ops@laptop", want: true},
		{name: "sha256 fingerprint", selector: sha, comment: "", want: true},
		{name: "bare sha256 fingerprint", selector: strings.TrimPrefix(sha, "SHA256:"), comment: "", want: true},
		{name: "md5 fingerprint", selector: ssh.FingerprintLegacyMD5(pub), comment: "", want: true},
		{name: "no match", selector: "deploy", comment: "ops@laptop", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchAgentKey(tt.selector, tt.comment, pub); got != tt.want {
				t.Errorf("want %v, got %v", tt.want, got)
			}
		})
	}
}
