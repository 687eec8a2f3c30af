package database

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

const agentScheme = "agent://"

var errNoAgent = errors.New("SSH_AUTH_SOCK is not set (ssh-agent is not available)")

func (s *SSHConfig) Endpoint() string {
	port := s.Port
	if port == 0 {
		port = 22
	}
	return fmt.Sprintf("%s:%d", s.Host, port)
}

func (s *SSHConfig) ClientConfig() (*ssh.ClientConfig, error) {
	var (
		auth ssh.AuthMethod
		err  error
	)
	if strings.HasPrefix(s.PrivateKey, agentScheme) {
		auth, err = agentAuthMethod(strings.TrimPrefix(s.PrivateKey, agentScheme))
	} else {
		auth, err = keyFileAuthMethod(s.PrivateKey, s.PassPhrase)
	}
	if err != nil {
		return nil, err
	}
	return &ssh.ClientConfig{
		User:            s.User,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}, nil
}

// dialSSH opens the tunnel every SSH capable driver dials through.
func dialSSH(s *SSHConfig) (*ssh.Client, error) {
	cfg, err := s.ClientConfig()
	if err != nil {
		return nil, err
	}
	client, err := ssh.Dial("tcp", s.Endpoint(), cfg)
	if err != nil {
		return nil, fmt.Errorf("cannot ssh dial, %w", err)
	}
	return client, nil
}

func keyFileAuthMethod(path, passPhrase string) (ssh.AuthMethod, error) {
	buffer, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read SSH private key file, PrivateKey=%s, %w", path, err)
	}
	var key ssh.Signer
	if passPhrase != "" {
		key, err = ssh.ParsePrivateKeyWithPassphrase(buffer, []byte(passPhrase))
		if err != nil {
			return nil, fmt.Errorf("cannot parse SSH private key file with passphrase, PrivateKey=%s, %w", path, err)
		}
	} else {
		key, err = ssh.ParsePrivateKey(buffer)
		if err != nil {
			return nil, fmt.Errorf("cannot parse SSH private key file, PrivateKey=%s, %w", path, err)
		}
	}
	return ssh.PublicKeys(key), nil
}

// agentAuthMethod signs with the ssh-agent keys matching selector. An
// empty selector matches every key; otherwise it matches a key comment
// or a SHA256/MD5 fingerprint.
func agentAuthMethod(selector string) (ssh.AuthMethod, error) {
	if os.Getenv("SSH_AUTH_SOCK") == "" {
		return nil, errNoAgent
	}
	selector = strings.TrimPrefix(strings.TrimSpace(selector), "/")

	return ssh.PublicKeysCallback(func() ([]ssh.Signer, error) {
		ag, conn, err := dialSSHAgent()
		if err != nil {
			return nil, err
		}
		keys, err := ag.List()
		_ = conn.Close()
		if err != nil {
			return nil, fmt.Errorf("cannot list SSH agent keys, %w", err)
		}
		if len(keys) == 0 {
			return nil, errors.New("no keys available in SSH agent")
		}

		var matched []ssh.Signer
		for _, k := range keys {
			pk, err := ssh.ParsePublicKey(k.Blob)
			if err != nil {
				continue
			}
			if matchAgentKey(selector, k.Comment, pk) {
				matched = append(matched, &agentSigner{pub: pk})
			}
		}
		if len(matched) == 0 {
			return nil, fmt.Errorf("no matching SSH agent key for selector %q", selector)
		}
		return matched, nil
	}), nil
}

func matchAgentKey(selector, comment string, pk ssh.PublicKey) bool {
	if selector == "" || comment == selector {
		return true
	}
	if comment != "" && strings.Contains(comment, selector) {
		return true
	}
	sha := ssh.FingerprintSHA256(pk)
	return selector == sha ||
		selector == strings.TrimPrefix(sha, "SHA256:") ||
		selector == ssh.FingerprintLegacyMD5(pk)
}

// agentSigner dials the agent for every signature so that no agent
// connection outlives the handshake.
type agentSigner struct {
	pub ssh.PublicKey
}

var _ ssh.AlgorithmSigner = (*agentSigner)(nil)

func (s *agentSigner) PublicKey() ssh.PublicKey { return s.pub }

func (s *agentSigner) Sign(rand io.Reader, data []byte) (*ssh.Signature, error) {
	return s.SignWithAlgorithm(rand, data, "")
}

func (s *agentSigner) SignWithAlgorithm(_ io.Reader, data []byte, algorithm string) (*ssh.Signature, error) {
	ag, conn, err := dialSSHAgent()
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	switch algorithm {
	case ssh.KeyAlgoRSASHA256:
		return ag.SignWithFlags(s.pub, data, agent.SignatureFlagRsaSha256)
	case ssh.KeyAlgoRSASHA512:
		return ag.SignWithFlags(s.pub, data, agent.SignatureFlagRsaSha512)
	default:
		return ag.Sign(s.pub, data)
	}
}

func dialSSHAgent() (agent.ExtendedAgent, net.Conn, error) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, nil, errNoAgent
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot connect to SSH agent, SSH_AUTH_SOCK=%s, %w", sock, err)
	}
	return agent.NewClient(conn), conn, nil
}
