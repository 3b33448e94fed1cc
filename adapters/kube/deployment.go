package kube

import (
	"context"
	"encoding/json"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"

	"github.com/yaegashi/aksmesh/internal/logging"
)

// LabelPodTemplate adds labels to a deployment's pod template via a
// strategic merge patch, triggering a rollout that picks the pods up in
// any selector keyed on those labels.
func (c *Client) LabelPodTemplate(ctx context.Context, namespace, name string, labels map[string]string) error {
	if len(labels) == 0 {
		return nil
	}
	patch := map[string]any{
		"spec": map[string]any{
			"template": map[string]any{
				"metadata": map[string]any{
					"labels": labels,
				},
			},
		},
	}
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshal pod template patch: %w", err)
	}
	logger := logging.FromContext(ctx).With("namespace", namespace, "deployment", name)
	if _, err := c.Clientset.AppsV1().Deployments(namespace).Patch(ctx, name, types.StrategicMergePatchType, body, metav1.PatchOptions{}); err != nil {
		logger.Error(ctx, "KubeClient:LabelPodTemplate/efail", "err", err)
		return fmt.Errorf("patch deployment %s/%s pod template: %w", namespace, name, err)
	}
	logger.Info(ctx, "KubeClient:LabelPodTemplate/eok", "labels", labels)
	return nil
}
