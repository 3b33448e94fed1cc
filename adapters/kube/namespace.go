package kube

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/yaegashi/aksmesh/internal/logging"
)

// EnsureNamespace makes sure the namespace exists with the given labels.
// An existing namespace gets its labels merged in via update; missing
// labels never cause recreation.
func (c *Client) EnsureNamespace(ctx context.Context, name string, labels map[string]string) error {
	if c == nil || c.Clientset == nil {
		return fmt.Errorf("kube client is not initialized")
	}
	logger := logging.FromContext(ctx).With("namespace", name)

	existing, err := c.Clientset.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		if !labelsSubset(labels, existing.Labels) {
			if existing.Labels == nil {
				existing.Labels = map[string]string{}
			}
			for k, v := range labels {
				existing.Labels[k] = v
			}
			if _, err := c.Clientset.CoreV1().Namespaces().Update(ctx, existing, metav1.UpdateOptions{}); err != nil {
				return fmt.Errorf("update namespace %s labels: %w", name, err)
			}
			logger.Info(ctx, "KubeClient:EnsureNS/relabeled")
			return nil
		}
		logger.Debug(ctx, "KubeClient:EnsureNS/exists")
		return nil
	}
	if !apierrors.IsNotFound(err) {
		return fmt.Errorf("get namespace %s: %w", name, err)
	}

	ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: name, Labels: labels}}
	if _, err := c.Clientset.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{}); err != nil {
		if apierrors.IsAlreadyExists(err) {
			return nil
		}
		return fmt.Errorf("create namespace %s: %w", name, err)
	}
	logger.Info(ctx, "KubeClient:EnsureNS/created")
	return nil
}

// NamespaceExists reports whether the namespace exists.
func (c *Client) NamespaceExists(ctx context.Context, name string) (bool, error) {
	if c == nil || c.Clientset == nil {
		return false, fmt.Errorf("kube client is not initialized")
	}
	_, err := c.Clientset.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		return true, nil
	}
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("get namespace %s: %w", name, err)
}

func labelsSubset(want, have map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}
