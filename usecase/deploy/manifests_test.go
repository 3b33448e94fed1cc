package deploy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// renderAll parses every document of a rendered manifest to catch template
// or indentation mistakes.
func renderAll(t *testing.T, u *UseCase, name string) []map[string]any {
	t.Helper()
	data, err := u.renderManifest(name)
	require.NoError(t, err)

	var docs []map[string]any
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	for {
		var doc map[string]any
		err := dec.Decode(&doc)
		if err != nil {
			break
		}
		if doc != nil {
			docs = append(docs, doc)
		}
	}
	require.NotEmpty(t, docs)
	return docs
}

func kinds(docs []map[string]any) []string {
	var out []string
	for _, d := range docs {
		out = append(out, d["kind"].(string))
	}
	return out
}

func TestOPAManifest(t *testing.T) {
	u, _, _ := newTestUseCase(t)
	docs := renderAll(t, u, opaManifest)
	assert.Equal(t, []string{"Namespace", "Deployment", "ConfigMap", "Service", "ConfigMap"}, kinds(docs))

	raw, err := u.renderManifest(opaManifest)
	require.NoError(t, err)
	manifest := string(raw)
	assert.Contains(t, manifest, "openpolicyagent/opa:0.61.0-envoy")
	assert.Contains(t, manifest, "package authz")
	assert.Contains(t, manifest, `addr: ":9191"`)
	assert.Contains(t, manifest, "x-user-authorized")
}

func TestClusterIssuerManifestByClass(t *testing.T) {
	u, _, _ := newTestUseCase(t)
	u.state.FQDN = "a1b2c.eastus.cloudapp.azure.com"
	docs := renderAll(t, u, clusterIssuerManifest)
	require.Len(t, docs, 1)

	metadata := docs[0]["metadata"].(map[string]any)
	assert.Equal(t, "letsencrypt-staging", metadata["name"])
	spec := docs[0]["spec"].(map[string]any)
	acme := spec["acme"].(map[string]any)
	assert.Equal(t, "https://acme-staging-v02.api.letsencrypt.org/directory", acme["server"])
	assert.Equal(t, "admin@a1b2c.eastus.cloudapp.azure.com", acme["email"])
}

func TestCertificateManifest(t *testing.T) {
	u, _, _ := newTestUseCase(t)
	u.state.FQDN = "a1b2c.eastus.cloudapp.azure.com"
	docs := renderAll(t, u, certificateManifest)
	require.Len(t, docs, 1)

	spec := docs[0]["spec"].(map[string]any)
	assert.Equal(t, "a1b2c.eastus.cloudapp.azure.com", spec["commonName"])
	assert.Equal(t, "2160h", spec["duration"])
	assert.Equal(t, "360h", spec["renewBefore"])
	issuerRef := spec["issuerRef"].(map[string]any)
	assert.Equal(t, "letsencrypt-staging", issuerRef["name"])
}

func TestGatewayManifest(t *testing.T) {
	u, _, _ := newTestUseCase(t)
	u.state.FQDN = "a1b2c.eastus.cloudapp.azure.com"
	docs := renderAll(t, u, gatewayManifest)
	assert.Equal(t, []string{"Gateway", "HTTPRoute", "ReferenceGrant"}, kinds(docs))

	gatewaySpec := docs[0]["spec"].(map[string]any)
	listeners := gatewaySpec["listeners"].([]any)
	require.Len(t, listeners, 2)
	https := listeners[1].(map[string]any)
	assert.Equal(t, "a1b2c.eastus.cloudapp.azure.com", https["hostname"])
	assert.Equal(t, 443, https["port"])
}

func TestAuthzPolicyManifest(t *testing.T) {
	u, _, _ := newTestUseCase(t)
	docs := renderAll(t, u, authzPolicyManifest)
	require.Len(t, docs, 1)

	spec := docs[0]["spec"].(map[string]any)
	assert.Equal(t, "CUSTOM", spec["action"])
	provider := spec["provider"].(map[string]any)
	assert.Equal(t, "opa.local", provider["name"])
	selector := spec["selector"].(map[string]any)
	labels := selector["matchLabels"].(map[string]any)
	assert.Equal(t, "enabled", labels["opa-authz"])
}

func TestPolicyFixServiceManifest(t *testing.T) {
	u, _, _ := newTestUseCase(t)
	docs := renderAll(t, u, policyFixSvcManifest)
	require.Len(t, docs, 1)
	assert.Equal(t, "Service", docs[0]["kind"])

	metadata := docs[0]["metadata"].(map[string]any)
	assert.Equal(t, "test-empty-selector", metadata["name"])
	assert.Equal(t, "sample-app", metadata["namespace"])
	spec := docs[0]["spec"].(map[string]any)
	selector := spec["selector"].(map[string]any)
	assert.Equal(t, "demo-app", selector["app"])
}

func TestPodManifests(t *testing.T) {
	u, _, _ := newTestUseCase(t)
	for _, name := range []string{policyDemoPodManifest, testClientPodManifest} {
		docs := renderAll(t, u, name)
		require.Len(t, docs, 1)
		assert.Equal(t, "Pod", docs[0]["kind"])
		metadata := docs[0]["metadata"].(map[string]any)
		assert.Equal(t, "sample-app", metadata["namespace"])
	}
}
