package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSessionDerivedNames(t *testing.T) {
	s, err := NewSession("a1b2c", "eastus", IssuerStaging)
	require.NoError(t, err)
	require.Equal(t, "aks-sample-a1b2c", s.ResourceGroup)
	require.Equal(t, "aks-sample-a1b2c-aks", s.Cluster)
	require.Equal(t, "a1b2c", s.DNSLabel)
	require.Equal(t, "eastus", s.Location)
	require.Equal(t, "https://acme-staging-v02.api.letsencrypt.org/directory", s.IssuerClass.ACMEServer())
}

func TestNewSessionDefaults(t *testing.T) {
	s, err := NewSession("", "", "")
	require.NoError(t, err)
	require.Equal(t, DefaultLocation, s.Location)
	require.Equal(t, IssuerProduction, s.IssuerClass)
	require.Len(t, s.Token, 5)
}

func TestNewSessionInvalidToken(t *testing.T) {
	for _, tok := range []string{"1abcd", "ABCDE", "abcd", "abcdef", "ab_cd"} {
		_, err := NewSession(tok, "", IssuerProduction)
		require.Error(t, err, "token %q", tok)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, "id", verr.Field)
	}
}

func TestNewSessionInvalidIssuer(t *testing.T) {
	_, err := NewSession("a1b2c", "", IssuerClass("sandbox"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "issuer", verr.Field)
}

func TestACMEServerByClass(t *testing.T) {
	require.Equal(t, "https://acme-v02.api.letsencrypt.org/directory", IssuerProduction.ACMEServer())
	require.Equal(t, "https://acme-staging-v02.api.letsencrypt.org/directory", IssuerStaging.ACMEServer())
}
