package deploy

import (
	"context"

	"github.com/yaegashi/aksmesh/adapters/kube"
	"github.com/yaegashi/aksmesh/domain/model"
)

const jetstackRepoURL = "https://charts.jetstack.io"

var certManagerDeployments = []string{"cert-manager", "cert-manager-cainjector", "cert-manager-webhook"}

// runCertManagerInstall converges the cert-manager Helm release with its
// CRDs and waits for the three controller deployments.
func (u *UseCase) runCertManagerInstall(ctx context.Context) error {
	values := kube.HelmValues{"crds": map[string]any{"enabled": true}}
	if err := u.kube.HelmInstallOrUpgrade(ctx, u.Session.CertNamespace, "cert-manager", jetstackRepoURL, "cert-manager", model.CertManagerVersion, values); err != nil {
		return err
	}
	return u.kube.WaitDeploymentsReady(ctx, u.Session.CertNamespace, certManagerDeployments)
}

// runIssuerCreate applies the Let's Encrypt ClusterIssuer for the session
// issuer class. Certificate issuance is asynchronous; nothing waits on it.
func (u *UseCase) runIssuerCreate(ctx context.Context) error {
	manifest, err := u.renderManifest(clusterIssuerManifest)
	if err != nil {
		return err
	}
	return u.kube.ApplyYAML(ctx, manifest, nil)
}

// runCertificateCreate applies the Certificate for the ingress gateway,
// referencing the issuer created in the previous step.
func (u *UseCase) runCertificateCreate(ctx context.Context) error {
	manifest, err := u.renderManifest(certificateManifest)
	if err != nil {
		return err
	}
	return u.kube.ApplyYAML(ctx, manifest, nil)
}
