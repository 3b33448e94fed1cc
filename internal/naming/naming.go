package naming

// Package naming centralizes session token handling and derivation of the
// cloud resource names seeded by a token. Keeping the rules here allows
// future changes (prefix/length) without touching call sites.

import (
	"crypto/rand"
	"fmt"
)

const (
	// TokenLength is the fixed length of a session token.
	TokenLength = 5

	// namePrefix seeds every derived resource name.
	namePrefix = "aks-sample"

	tokenLetters   = "abcdefghijklmnopqrstuvwxyz"
	tokenAlphabet  = "abcdefghijklmnopqrstuvwxyz0123456789"
	clusterSuffix  = "-aks"
	appNamespace   = "sample-app"
	meshNamespace  = "istio-system"
	certNamespace  = "cert-manager"
	authzNamespace = "opa"
)

// Names groups the deterministic resource names derived from one session token.
type Names struct {
	Token          string
	ResourceGroup  string
	Cluster        string
	DNSLabel       string
	AppNamespace   string
	MeshNamespace  string
	CertNamespace  string
	AuthzNamespace string
}

// ValidateToken checks the session token rules: exactly 5 characters, all
// lowercase alphanumeric, first character a letter (Azure DNS label rules).
func ValidateToken(token string) error {
	if len(token) != TokenLength {
		return fmt.Errorf("token %q must be exactly %d characters", token, TokenLength)
	}
	for i, c := range token {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return fmt.Errorf("token %q must start with a letter", token)
			}
		default:
			return fmt.Errorf("token %q must contain only lowercase letters and digits", token)
		}
	}
	return nil
}

// NewToken returns a random session token satisfying ValidateToken.
func NewToken() (string, error) {
	buf := make([]byte, TokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	out := make([]byte, TokenLength)
	out[0] = tokenLetters[int(buf[0])%len(tokenLetters)]
	for i := 1; i < TokenLength; i++ {
		out[i] = tokenAlphabet[int(buf[i])%len(tokenAlphabet)]
	}
	return string(out), nil
}

// NewNames derives all resource names from a validated token. Derivation is
// pure: the same token always yields the same names.
func NewNames(token string) Names {
	rg := fmt.Sprintf("%s-%s", namePrefix, token)
	return Names{
		Token:          token,
		ResourceGroup:  rg,
		Cluster:        rg + clusterSuffix,
		DNSLabel:       token,
		AppNamespace:   appNamespace,
		MeshNamespace:  meshNamespace,
		CertNamespace:  certNamespace,
		AuthzNamespace: authzNamespace,
	}
}
