package kube

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func TestEnsureNamespaceCreates(t *testing.T) {
	c := &Client{Clientset: fake.NewSimpleClientset()}
	labels := map[string]string{"istio-injection": "enabled"}
	require.NoError(t, c.EnsureNamespace(context.Background(), "sample-app", labels))

	ns, err := c.Clientset.CoreV1().Namespaces().Get(context.Background(), "sample-app", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "enabled", ns.Labels["istio-injection"])
}

func TestEnsureNamespaceRelabelsExisting(t *testing.T) {
	existing := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{
		Name:   "sample-app",
		Labels: map[string]string{"team": "mesh"},
	}}
	c := &Client{Clientset: fake.NewSimpleClientset(existing)}
	require.NoError(t, c.EnsureNamespace(context.Background(), "sample-app", map[string]string{"istio-injection": "enabled"}))

	ns, err := c.Clientset.CoreV1().Namespaces().Get(context.Background(), "sample-app", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "enabled", ns.Labels["istio-injection"])
	assert.Equal(t, "mesh", ns.Labels["team"], "existing labels survive")
}

func TestEnsureNamespaceIdempotent(t *testing.T) {
	c := &Client{Clientset: fake.NewSimpleClientset()}
	labels := map[string]string{"istio-injection": "enabled"}
	require.NoError(t, c.EnsureNamespace(context.Background(), "sample-app", labels))
	require.NoError(t, c.EnsureNamespace(context.Background(), "sample-app", labels))
}

func TestNamespaceExists(t *testing.T) {
	c := &Client{Clientset: fake.NewSimpleClientset(
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "opa"}},
	)}
	ok, err := c.NamespaceExists(context.Background(), "opa")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.NamespaceExists(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLabelPodTemplate(t *testing.T) {
	dep := deployment("sample-app", "productpage-v1", 1, 1)
	c := &Client{Clientset: fake.NewSimpleClientset(dep)}
	require.NoError(t, c.LabelPodTemplate(context.Background(), "sample-app", "productpage-v1", map[string]string{"opa-authz": "enabled"}))

	got, err := c.Clientset.AppsV1().Deployments("sample-app").Get(context.Background(), "productpage-v1", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "enabled", got.Spec.Template.Labels["opa-authz"])
}

func TestLabelPodTemplateEmptyIsNoop(t *testing.T) {
	c := &Client{Clientset: fake.NewSimpleClientset()}
	require.NoError(t, c.LabelPodTemplate(context.Background(), "sample-app", "productpage-v1", nil))
}
