package model

import (
	"github.com/yaegashi/aksmesh/internal/naming"
)

// IssuerClass selects the Let's Encrypt endpoint used by the ClusterIssuer.
type IssuerClass string

const (
	IssuerStaging    IssuerClass = "staging"
	IssuerProduction IssuerClass = "production"
)

// ACMEServer returns the directory URL of the certificate authority for
// this issuer class.
func (c IssuerClass) ACMEServer() string {
	if c == IssuerStaging {
		return "https://acme-staging-v02.api.letsencrypt.org/directory"
	}
	return "https://acme-v02.api.letsencrypt.org/directory"
}

// Valid reports whether the issuer class is one of the known values.
func (c IssuerClass) Valid() bool {
	return c == IssuerStaging || c == IssuerProduction
}

// Pinned component versions and cluster shape for one deployment. These
// mirror the published Istio/cert-manager/Gateway API releases the manifests
// are written against.
const (
	KubernetesVersion  = "1.31.6"
	IstioVersion       = "1.24.4"
	CertManagerVersion = "v1.17.0"
	GatewayAPIVersion  = "v1.2.1"
	OPAImage           = "openpolicyagent/opa:0.61.0-envoy"
	NodeCount          = 1
	NodeVMSize         = "Standard_DS2_v2"
	NodeMaxPods        = 50
	DefaultLocation    = "eastus"
)

// Session identifies one deployment run. It is constructed once at startup
// and immutable for the session lifetime; every cloud and cluster resource
// name derives deterministically from Token.
type Session struct {
	naming.Names
	Location    string
	IssuerClass IssuerClass
}

// NewSession validates the token and issuer class and derives all resource
// names. An empty token yields a freshly generated one; an empty location
// falls back to DefaultLocation.
func NewSession(token, location string, issuer IssuerClass) (*Session, error) {
	if token == "" {
		t, err := naming.NewToken()
		if err != nil {
			return nil, err
		}
		token = t
	} else if err := naming.ValidateToken(token); err != nil {
		return nil, &ValidationError{Field: "id", Reason: err.Error()}
	}
	if location == "" {
		location = DefaultLocation
	}
	if issuer == "" {
		issuer = IssuerProduction
	}
	if !issuer.Valid() {
		return nil, &ValidationError{Field: "issuer", Reason: "must be 'staging' or 'production'"}
	}
	return &Session{
		Names:       naming.NewNames(token),
		Location:    location,
		IssuerClass: issuer,
	}, nil
}
