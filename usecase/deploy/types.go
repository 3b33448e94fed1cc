// Package deploy implements the provisioning pipeline: AKS cluster, Istio
// mesh, OPA external authorization, DNS binding, Let's Encrypt certificates
// and the Bookinfo demo workload, as one ordered list of converge steps.
package deploy

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/yaegashi/aksmesh/adapters/azure"
	"github.com/yaegashi/aksmesh/adapters/kube"
	"github.com/yaegashi/aksmesh/domain/model"
	"github.com/yaegashi/aksmesh/internal/execx"
)

// AzureAPI is the slice of the Azure adapter the pipeline consumes.
type AzureAPI interface {
	EnsureResourceGroup(ctx context.Context, name string) (bool, error)
	EnsureCluster(ctx context.Context, resourceGroup, name string) (*azure.ClusterInfo, error)
	Kubeconfig(ctx context.Context, resourceGroup, name string) ([]byte, error)
	BindDNSLabel(ctx context.Context, nodeResourceGroup, ip, label string) (string, error)
}

// KubeAPI is the slice of the Kubernetes adapter the pipeline consumes.
type KubeAPI interface {
	ApplyYAML(ctx context.Context, data []byte, opts *kube.ApplyOptions) error
	EnsureNamespace(ctx context.Context, name string, labels map[string]string) error
	NamespaceExists(ctx context.Context, name string) (bool, error)
	WaitNodesReady(ctx context.Context) error
	WaitDeploymentReady(ctx context.Context, namespace, name string) error
	WaitDeploymentsReady(ctx context.Context, namespace string, names []string) error
	WaitServiceIngressIP(ctx context.Context, namespace, name string) (string, error)
	LabelPodTemplate(ctx context.Context, namespace, name string, labels map[string]string) error
	HelmInstallOrUpgrade(ctx context.Context, namespace, release, repoURL, chartName, version string, values kube.HelmValues) error
}

// State holds the values discovered while the pipeline runs. The session
// itself stays immutable; everything mutable lives here.
type State struct {
	SubscriptionID    string
	AccountName       string
	NodeResourceGroup string
	IngressIP         string
	FQDN              string
	KubeconfigPath    string
	ClusterAdopted    bool
}

// UseCase wires the session, the adapters and the executor for one
// deployment run. The factory fields exist so tests can substitute fakes;
// New fills them with the real constructors.
type UseCase struct {
	Session *model.Session
	Runner  execx.Runner
	Out     io.Writer

	NewAzureClient func(subscriptionID, location string) (AzureAPI, error)
	NewKubeClient  func(ctx context.Context, kubeconfig []byte) (KubeAPI, error)

	HTTPTimeout time.Duration

	azure AzureAPI
	kube  KubeAPI
	state State
}

// New builds a UseCase backed by the real Azure and Kubernetes clients.
func New(sess *model.Session) *UseCase {
	return &UseCase{
		Session: sess,
		Runner:  execx.Local{},
		Out:     os.Stdout,
		NewAzureClient: func(subscriptionID, location string) (AzureAPI, error) {
			return azure.NewDefault(subscriptionID, location)
		},
		NewKubeClient: func(ctx context.Context, kubeconfig []byte) (KubeAPI, error) {
			return kube.NewClientFromKubeconfig(ctx, kubeconfig, &kube.Options{UserAgent: "aksmesh"})
		},
		HTTPTimeout: 10 * time.Second,
	}
}

// RunState returns a copy of the run state, for callers reporting results.
func (u *UseCase) RunState() State { return u.state }
