package deploy

import (
	"context"
	"fmt"

	"github.com/yaegashi/aksmesh/domain/model"
	"github.com/yaegashi/aksmesh/internal/execx"
	"github.com/yaegashi/aksmesh/internal/logging"
)

const gatewayAPIManifestURL = "https://github.com/kubernetes-sigs/gateway-api/releases/download/%s/standard-install.yaml"

// runMeshInstall installs Istio with the demo profile. An existing
// istio-system namespace marks the mesh as installed and skips the stage
// entirely.
func (u *UseCase) runMeshInstall(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	exists, err := u.kube.NamespaceExists(ctx, u.Session.MeshNamespace)
	if err != nil {
		return err
	}
	if exists {
		logger.Info(ctx, "istio namespace exists, mesh install skipped", "namespace", u.Session.MeshNamespace)
		return errSkipped
	}

	if _, err := u.Runner.Run(ctx, execx.Command{
		Name:  "kubectl",
		Args:  u.kubectlArgs("apply", "-f", fmt.Sprintf(gatewayAPIManifestURL, model.GatewayAPIVersion)),
		Check: true,
		Desc:  "install Gateway API CRDs",
	}); err != nil {
		return err
	}

	if _, err := u.Runner.Run(ctx, execx.Command{
		Name:  "istioctl",
		Args:  u.istioctlArgs("install", "--set", "profile=demo", "-y"),
		Check: true,
		Desc:  "install Istio demo profile",
	}); err != nil {
		return err
	}

	return u.kube.WaitDeploymentsReady(ctx, u.Session.MeshNamespace, []string{"istiod", "istio-ingressgateway"})
}

// runExternalAuthzDeploy deploys the OPA decision service and points the
// mesh at it as an external authorization provider. The mesh reconfigure
// is best effort, as authorization still works via AuthorizationPolicy.
func (u *UseCase) runExternalAuthzDeploy(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	manifest, err := u.renderManifest(opaManifest)
	if err != nil {
		return err
	}
	if err := u.kube.ApplyYAML(ctx, manifest, nil); err != nil {
		return err
	}
	if err := u.kube.WaitDeploymentReady(ctx, u.Session.AuthzNamespace, "opa"); err != nil {
		return err
	}

	res, err := u.Runner.Run(ctx, execx.Command{
		Name: "istioctl",
		Args: u.istioctlArgs("install", "--set", "profile=demo",
			"--set", "meshConfig.accessLogFile=/dev/stdout",
			"--set", `meshConfig.accessLogFormat=[OPA DEMO] opa-decision: "%DYNAMIC_METADATA(envoy.filters.http.ext_authz)%"`,
			"--set", "meshConfig.extensionProviders[0].name=opa.local",
			"--set", fmt.Sprintf("meshConfig.extensionProviders[0].envoyExtAuthzGrpc.service=opa.%s.svc.cluster.local", u.Session.AuthzNamespace),
			"--set", "meshConfig.extensionProviders[0].envoyExtAuthzGrpc.port=9191",
			"-y"),
		Desc: "register OPA extension provider",
	})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		logger.Warn(ctx, "mesh reconfigure for OPA failed, AuthorizationPolicy still applies", "exit_code", res.ExitCode, "stderr", res.Stderr)
	}
	return nil
}

func (u *UseCase) kubectlArgs(args ...string) []string {
	return append(args, "--kubeconfig", u.state.KubeconfigPath)
}

func (u *UseCase) istioctlArgs(args ...string) []string {
	return append(args, "--kubeconfig", u.state.KubeconfigPath)
}
