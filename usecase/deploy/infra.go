package deploy

import (
	"context"
	"fmt"
	"os"

	"github.com/yaegashi/aksmesh/internal/logging"
)

// runResourceGroup converges the session's resource group. An existing
// group is adopted untouched.
func (u *UseCase) runResourceGroup(ctx context.Context) error {
	created, err := u.azure.EnsureResourceGroup(ctx, u.Session.ResourceGroup)
	if err != nil {
		return err
	}
	logger := logging.FromContext(ctx)
	if created {
		logger.Info(ctx, "resource group created", "name", u.Session.ResourceGroup)
	} else {
		logger.Info(ctx, "resource group adopted", "name", u.Session.ResourceGroup)
	}
	return nil
}

// runCluster converges the AKS cluster, fetches the admin kubeconfig,
// builds the Kubernetes client and waits for every node to be ready.
func (u *UseCase) runCluster(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	info, err := u.azure.EnsureCluster(ctx, u.Session.ResourceGroup, u.Session.Cluster)
	if err != nil {
		return err
	}
	u.state.NodeResourceGroup = info.NodeResourceGroup
	u.state.ClusterAdopted = !info.Created
	if info.Created {
		logger.Info(ctx, "cluster created", "name", u.Session.Cluster, "node_resource_group", info.NodeResourceGroup)
	} else {
		logger.Info(ctx, "cluster adopted", "name", u.Session.Cluster, "state", info.ProvisioningState)
	}

	kubeconfig, err := u.azure.Kubeconfig(ctx, u.Session.ResourceGroup, u.Session.Cluster)
	if err != nil {
		return err
	}
	kc, err := u.NewKubeClient(ctx, kubeconfig)
	if err != nil {
		return fmt.Errorf("build kube client: %w", err)
	}
	u.kube = kc

	if err := u.writeKubeconfig(kubeconfig); err != nil {
		return err
	}

	return u.kube.WaitNodesReady(ctx)
}

// writeKubeconfig persists the admin kubeconfig to a private temp file for
// the CLI collaborators (kubectl, istioctl).
func (u *UseCase) writeKubeconfig(kubeconfig []byte) error {
	f, err := os.CreateTemp("", "aksmesh-kubeconfig-*")
	if err != nil {
		return fmt.Errorf("create kubeconfig temp file: %w", err)
	}
	defer f.Close()
	if err := f.Chmod(0o600); err != nil {
		return fmt.Errorf("chmod kubeconfig temp file: %w", err)
	}
	if _, err := f.Write(kubeconfig); err != nil {
		return fmt.Errorf("write kubeconfig temp file: %w", err)
	}
	u.state.KubeconfigPath = f.Name()
	return nil
}
