package deploy

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/yaegashi/aksmesh/domain/model"
)

//go:embed manifests/*.yaml
var manifestFS embed.FS

// Embedded manifest template names.
const (
	opaManifest           = "opa.yaml"
	clusterIssuerManifest = "cluster_issuer.yaml"
	certificateManifest   = "certificate.yaml"
	gatewayManifest       = "gateway.yaml"
	authzPolicyManifest   = "authz_policy.yaml"
	policyDemoPodManifest = "policy_demo_pod.yaml"
	policyFixSvcManifest  = "policy_fix_service.yaml"
	testClientPodManifest = "test_client.yaml"
)

// manifestData carries the session-derived values interpolated into the
// embedded templates. Only values, never structure: the manifests are
// otherwise fixed.
type manifestData struct {
	AppNamespace   string
	MeshNamespace  string
	AuthzNamespace string
	FQDN           string
	IssuerName     string
	ACMEServer     string
	Email          string
	OPAImage       string
}

func (u *UseCase) manifestData() manifestData {
	return manifestData{
		AppNamespace:   u.Session.AppNamespace,
		MeshNamespace:  u.Session.MeshNamespace,
		AuthzNamespace: u.Session.AuthzNamespace,
		FQDN:           u.state.FQDN,
		IssuerName:     fmt.Sprintf("letsencrypt-%s", u.Session.IssuerClass),
		ACMEServer:     u.Session.IssuerClass.ACMEServer(),
		Email:          fmt.Sprintf("admin@%s", u.state.FQDN),
		OPAImage:       model.OPAImage,
	}
}

// renderManifest renders one embedded manifest template with the current
// session and run state.
func (u *UseCase) renderManifest(name string) ([]byte, error) {
	tmpl, err := template.ParseFS(manifestFS, "manifests/"+name)
	if err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, u.manifestData()); err != nil {
		return nil, fmt.Errorf("render manifest %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
