package kube

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/yaegashi/aksmesh/internal/logging"
	"github.com/yaegashi/aksmesh/internal/poll"
)

// Polling cadences for cluster readiness checks.
const (
	nodePollInterval       = 10 * time.Second
	nodePollAttempts       = 30
	deploymentPollInterval = 5 * time.Second
	deploymentPollAttempts = 60
	ingressPollInterval    = 10 * time.Second
	ingressPollAttempts    = 30
)

// WaitNodesReady blocks until every node in the cluster reports the Ready
// condition. An empty node list counts as not ready.
func (c *Client) WaitNodesReady(ctx context.Context) error {
	return poll.Until(ctx, "cluster nodes ready", nodePollInterval, nodePollAttempts, func(ctx context.Context) (bool, error) {
		nodes, err := c.Clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
		if err != nil {
			return false, err
		}
		if len(nodes.Items) == 0 {
			return false, nil
		}
		for i := range nodes.Items {
			if !nodeReady(&nodes.Items[i]) {
				return false, nil
			}
		}
		return true, nil
	})
}

func nodeReady(node *corev1.Node) bool {
	for _, cond := range node.Status.Conditions {
		if cond.Type == corev1.NodeReady {
			return cond.Status == corev1.ConditionTrue
		}
	}
	return false
}

// WaitDeploymentReady blocks until the deployment's ready replica count
// reaches its desired replica count (1 when unset).
func (c *Client) WaitDeploymentReady(ctx context.Context, namespace, name string) error {
	what := fmt.Sprintf("deployment %s/%s ready", namespace, name)
	return poll.Until(ctx, what, deploymentPollInterval, deploymentPollAttempts, func(ctx context.Context) (bool, error) {
		dep, err := c.Clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return false, err
		}
		desired := int32(1)
		if dep.Spec.Replicas != nil {
			desired = *dep.Spec.Replicas
		}
		return dep.Status.ReadyReplicas >= desired, nil
	})
}

// WaitDeploymentsReady waits for each named deployment in order.
func (c *Client) WaitDeploymentsReady(ctx context.Context, namespace string, names []string) error {
	logger := logging.FromContext(ctx)
	for _, name := range names {
		if err := c.WaitDeploymentReady(ctx, namespace, name); err != nil {
			return err
		}
		logger.Info(ctx, "deployment ready", "namespace", namespace, "name", name)
	}
	return nil
}

// WaitServiceIngressIP blocks until the service's load balancer has a
// public ingress IP assigned, and returns it.
func (c *Client) WaitServiceIngressIP(ctx context.Context, namespace, name string) (string, error) {
	var ip string
	what := fmt.Sprintf("service %s/%s ingress IP", namespace, name)
	err := poll.Until(ctx, what, ingressPollInterval, ingressPollAttempts, func(ctx context.Context) (bool, error) {
		svc, err := c.Clientset.CoreV1().Services(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return false, err
		}
		for _, ing := range svc.Status.LoadBalancer.Ingress {
			if ing.IP != "" {
				ip = ing.IP
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return "", err
	}
	return ip, nil
}
