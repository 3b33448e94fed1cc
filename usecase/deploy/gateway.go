package deploy

import (
	"context"
	"fmt"

	"github.com/yaegashi/aksmesh/domain/model"
	"github.com/yaegashi/aksmesh/internal/execx"
)

const bookinfoManifestURL = "https://raw.githubusercontent.com/istio/istio/%s/samples/bookinfo/platform/kube/bookinfo.yaml"

var bookinfoDeployments = []string{
	"productpage-v1", "reviews-v1", "reviews-v2",
	"reviews-v3", "ratings-v1", "details-v1",
}

// runGatewayConfigure applies the Gateway (HTTP plus TLS-terminated HTTPS
// on the session FQDN), the Bookinfo HTTPRoute and the cross-namespace
// ReferenceGrant. The app namespace must exist before the grant.
func (u *UseCase) runGatewayConfigure(ctx context.Context) error {
	if err := u.kube.EnsureNamespace(ctx, u.Session.AppNamespace, nil); err != nil {
		return err
	}
	manifest, err := u.renderManifest(gatewayManifest)
	if err != nil {
		return err
	}
	return u.kube.ApplyYAML(ctx, manifest, nil)
}

// runWorkloadDeploy labels the app namespace for sidecar injection,
// applies the published Bookinfo bundle for the pinned Istio version and
// waits for every Bookinfo deployment.
func (u *UseCase) runWorkloadDeploy(ctx context.Context) error {
	if err := u.kube.EnsureNamespace(ctx, u.Session.AppNamespace, map[string]string{"istio-injection": "enabled"}); err != nil {
		return err
	}

	if _, err := u.Runner.Run(ctx, execx.Command{
		Name: "kubectl",
		Args: u.kubectlArgs("apply", "-f", fmt.Sprintf(bookinfoManifestURL, model.IstioVersion),
			"-n", u.Session.AppNamespace),
		Check: true,
		Desc:  "deploy Bookinfo",
	}); err != nil {
		return err
	}

	return u.kube.WaitDeploymentsReady(ctx, u.Session.AppNamespace, bookinfoDeployments)
}

// runAuthzPolicyConfigure applies the CUSTOM AuthorizationPolicy pointing
// at the OPA provider and opts the productpage deployment into it via the
// selector label.
func (u *UseCase) runAuthzPolicyConfigure(ctx context.Context) error {
	manifest, err := u.renderManifest(authzPolicyManifest)
	if err != nil {
		return err
	}
	if err := u.kube.ApplyYAML(ctx, manifest, nil); err != nil {
		return err
	}
	return u.kube.LabelPodTemplate(ctx, u.Session.AppNamespace, "productpage-v1", map[string]string{"opa-authz": "enabled"})
}
