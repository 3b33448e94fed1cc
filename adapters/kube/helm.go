package kube

import (
	"context"
	"fmt"
	"time"

	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/yaegashi/aksmesh/internal/logging"
)

// HelmValues represents Helm chart values as a generic map.
type HelmValues map[string]any

const helmTimeout = 5 * time.Minute

// HelmInstallOrUpgrade converges one Helm release: install when absent,
// upgrade otherwise. The chart is located from repoURL at the pinned
// version and the call waits for the release's workloads to be ready.
func (c *Client) HelmInstallOrUpgrade(ctx context.Context, namespace, release, repoURL, chartName, version string, values HelmValues) error {
	if c == nil || c.RESTConfig == nil {
		return fmt.Errorf("kube client is not initialized")
	}
	logger := logging.FromContext(ctx).With("namespace", namespace, "release", release, "chart", chartName, "version", version)

	actionConfig := new(action.Configuration)
	getter := &restClientGetter{config: c.RESTConfig, namespace: namespace}
	logf := func(format string, args ...any) {
		logger.Debug(ctx, fmt.Sprintf(format, args...))
	}
	if err := actionConfig.Init(getter, namespace, "", logf); err != nil {
		return fmt.Errorf("init helm action config: %w", err)
	}

	cp := &action.ChartPathOptions{RepoURL: repoURL, Version: version}
	chartPath, err := cp.LocateChart(chartName, cli.New())
	if err != nil {
		return fmt.Errorf("locate chart %s: %w", chartName, err)
	}
	chart, err := loader.Load(chartPath)
	if err != nil {
		return fmt.Errorf("load chart %s: %w", chartName, err)
	}

	hist := action.NewHistory(actionConfig)
	hist.Max = 1
	if _, err := hist.Run(release); err == nil {
		logger.Info(ctx, "Helm:Upgrade/s")
		upgrade := action.NewUpgrade(actionConfig)
		upgrade.Namespace = namespace
		upgrade.Wait = true
		upgrade.Timeout = helmTimeout
		if _, err := upgrade.Run(release, chart, values); err != nil {
			logger.Info(ctx, "Helm:Upgrade/efail", "err", err)
			return fmt.Errorf("helm upgrade %s: %w", release, err)
		}
		logger.Info(ctx, "Helm:Upgrade/eok")
		return nil
	}

	logger.Info(ctx, "Helm:Install/s")
	install := action.NewInstall(actionConfig)
	install.Namespace = namespace
	install.ReleaseName = release
	install.CreateNamespace = true
	install.Wait = true
	install.Timeout = helmTimeout
	if _, err := install.Run(chart, values); err != nil {
		logger.Info(ctx, "Helm:Install/efail", "err", err)
		return fmt.Errorf("helm install %s: %w", release, err)
	}
	logger.Info(ctx, "Helm:Install/eok")
	return nil
}

// restClientGetter implements the minimal RESTClientGetter Helm needs on
// top of an in-memory rest.Config.
type restClientGetter struct {
	config    *rest.Config
	namespace string
}

func (g *restClientGetter) ToRESTConfig() (*rest.Config, error) {
	return g.config, nil
}

func (g *restClientGetter) ToDiscoveryClient() (discovery.CachedDiscoveryInterface, error) {
	dc, err := discovery.NewDiscoveryClientForConfig(g.config)
	if err != nil {
		return nil, err
	}
	return memory.NewMemCacheClient(dc), nil
}

func (g *restClientGetter) ToRESTMapper() (meta.RESTMapper, error) {
	dc, err := g.ToDiscoveryClient()
	if err != nil {
		return nil, err
	}
	return restmapper.NewDeferredDiscoveryRESTMapper(dc), nil
}

func (g *restClientGetter) ToRawKubeConfigLoader() clientcmd.ClientConfig {
	return clientcmd.NewDefaultClientConfig(*clientcmdapi.NewConfig(), &clientcmd.ConfigOverrides{})
}
