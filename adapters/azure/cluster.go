package azure

import (
	"context"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice/v2"

	"github.com/yaegashi/aksmesh/domain/model"
	"github.com/yaegashi/aksmesh/internal/logging"
)

var errNoKubeconfig = errors.New("no admin kubeconfig returned for cluster")

// ClusterInfo is the subset of managed cluster state the workflow needs
// after the cluster is converged.
type ClusterInfo struct {
	Name              string
	NodeResourceGroup string
	Fqdn              string
	ProvisioningState string
	Created           bool
}

// EnsureCluster makes sure the AKS managed cluster exists with the
// workflow's fixed shape. An existing cluster is reused as-is, matching
// the converge semantics of the resource group path.
func (c *Client) EnsureCluster(ctx context.Context, resourceGroup, name string) (*ClusterInfo, error) {
	logger := logging.FromContext(ctx).With("resource_group", resourceGroup, "cluster", name)

	existing, err := c.clusters.Get(ctx, resourceGroup, name, nil)
	if err == nil {
		logger.Info(ctx, "AZ:EnsureAKS/exists")
		return clusterInfo(existing.ManagedCluster, false), nil
	}
	if !isNotFound(err) {
		return nil, &model.ProvisioningError{Resource: "managed_cluster", Name: name, Err: err}
	}

	logger.Info(ctx, "AZ:EnsureAKS/begin", "kubernetes_version", model.KubernetesVersion)
	poller, err := c.clusters.BeginCreateOrUpdate(ctx, resourceGroup, name, c.managedClusterSpec(name), nil)
	if err != nil {
		logger.Info(ctx, "AZ:EnsureAKS/efail", "err", shortError(err))
		return nil, &model.ProvisioningError{Resource: "managed_cluster", Name: name, Err: err}
	}
	res, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		logger.Info(ctx, "AZ:EnsureAKS/efail", "err", shortError(err))
		return nil, &model.ProvisioningError{Resource: "managed_cluster", Name: name, Err: err}
	}
	logger.Info(ctx, "AZ:EnsureAKS/eok")
	return clusterInfo(res.ManagedCluster, true), nil
}

// managedClusterSpec returns the fixed single-node cluster shape: Azure
// CNI with Azure network policy and the Azure Policy addon enabled.
func (c *Client) managedClusterSpec(name string) armcontainerservice.ManagedCluster {
	return armcontainerservice.ManagedCluster{
		Location: to.Ptr(c.Location),
		Identity: &armcontainerservice.ManagedClusterIdentity{
			Type: to.Ptr(armcontainerservice.ResourceIdentityTypeSystemAssigned),
		},
		Tags: map[string]*string{
			"created-by":   to.Ptr("aksmesh"),
			"created-date": to.Ptr(time.Now().UTC().Format(time.RFC3339)),
		},
		Properties: &armcontainerservice.ManagedClusterProperties{
			DNSPrefix:         to.Ptr(name),
			KubernetesVersion: to.Ptr(model.KubernetesVersion),
			AgentPoolProfiles: []*armcontainerservice.ManagedClusterAgentPoolProfile{
				{
					Name:    to.Ptr("nodepool1"),
					Count:   to.Ptr[int32](model.NodeCount),
					VMSize:  to.Ptr(model.NodeVMSize),
					MaxPods: to.Ptr[int32](model.NodeMaxPods),
					Mode:    to.Ptr(armcontainerservice.AgentPoolModeSystem),
					OSType:  to.Ptr(armcontainerservice.OSTypeLinux),
				},
			},
			NetworkProfile: &armcontainerservice.NetworkProfile{
				NetworkPlugin: to.Ptr(armcontainerservice.NetworkPluginAzure),
				NetworkPolicy: to.Ptr(armcontainerservice.NetworkPolicyAzure),
			},
			AddonProfiles: map[string]*armcontainerservice.ManagedClusterAddonProfile{
				"azurepolicy": {Enabled: to.Ptr(true)},
			},
		},
	}
}

func clusterInfo(mc armcontainerservice.ManagedCluster, created bool) *ClusterInfo {
	info := &ClusterInfo{Created: created}
	if mc.Name != nil {
		info.Name = *mc.Name
	}
	if mc.Properties != nil {
		if mc.Properties.NodeResourceGroup != nil {
			info.NodeResourceGroup = *mc.Properties.NodeResourceGroup
		}
		if mc.Properties.Fqdn != nil {
			info.Fqdn = *mc.Properties.Fqdn
		}
		if mc.Properties.ProvisioningState != nil {
			info.ProvisioningState = *mc.Properties.ProvisioningState
		}
	}
	return info
}

// Kubeconfig returns admin kubeconfig bytes for the cluster.
func (c *Client) Kubeconfig(ctx context.Context, resourceGroup, name string) ([]byte, error) {
	res, err := c.clusters.ListClusterAdminCredentials(ctx, resourceGroup, name, nil)
	if err != nil {
		return nil, &model.ProvisioningError{Resource: "managed_cluster", Name: name, Err: err}
	}
	if len(res.Kubeconfigs) == 0 || len(res.Kubeconfigs[0].Value) == 0 {
		return nil, &model.ProvisioningError{Resource: "managed_cluster", Name: name, Err: errNoKubeconfig}
	}
	return res.Kubeconfigs[0].Value, nil
}
