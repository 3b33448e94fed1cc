package deploy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaegashi/aksmesh/domain/model"
)

func testSession(t *testing.T) *model.Session {
	t.Helper()
	sess, err := model.NewSession("a1b2c", "eastus", model.IssuerStaging)
	require.NoError(t, err)
	return sess
}

func TestRunStepsRequiredFailureAborts(t *testing.T) {
	u := &UseCase{Session: testSession(t)}
	var ran []string
	boom := errors.New("boom")
	steps := []Step{
		{Name: "first", Required: true, Run: func(ctx context.Context) error { ran = append(ran, "first"); return nil }},
		{Name: "second", Required: true, Run: func(ctx context.Context) error { ran = append(ran, "second"); return boom }},
		{Name: "third", Required: true, Run: func(ctx context.Context) error { ran = append(ran, "third"); return nil }},
	}
	err := u.runSteps(context.Background(), steps)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "second")
	assert.Equal(t, []string{"first", "second"}, ran)
}

func TestRunStepsAdvisoryFailureContinues(t *testing.T) {
	u := &UseCase{Session: testSession(t)}
	var ran []string
	steps := []Step{
		{Name: "first", Required: true, Run: func(ctx context.Context) error { ran = append(ran, "first"); return nil }},
		{Name: "demo", Required: false, Run: func(ctx context.Context) error { ran = append(ran, "demo"); return errors.New("addon not ready") }},
		{Name: "last", Required: true, Run: func(ctx context.Context) error { ran = append(ran, "last"); return nil }},
	}
	require.NoError(t, u.runSteps(context.Background(), steps))
	assert.Equal(t, []string{"first", "demo", "last"}, ran)
}

func TestRunStepsSkippedStepOmitsSettle(t *testing.T) {
	u := &UseCase{Session: testSession(t)}
	var ran []string
	steps := []Step{
		{Name: "install", Required: true, Settle: time.Hour, Run: func(ctx context.Context) error { ran = append(ran, "install"); return errSkipped }},
		{Name: "next", Required: true, Run: func(ctx context.Context) error { ran = append(ran, "next"); return nil }},
	}
	done := make(chan error, 1)
	go func() { done <- u.runSteps(context.Background(), steps) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("skipped step waited out its settle pause")
	}
	assert.Equal(t, []string{"install", "next"}, ran)
}

func TestStepsOrderAndRequirements(t *testing.T) {
	u := New(testSession(t))
	steps := u.Steps()

	var names []string
	advisory := map[string]bool{}
	for _, s := range steps {
		names = append(names, s.Name)
		if !s.Required {
			advisory[s.Name] = true
		}
	}
	assert.Equal(t, []string{
		"prerequisites", "resource_group", "cluster", "mesh_install",
		"external_authz_deploy", "dns_binding", "cert_manager_install",
		"issuer_create", "certificate_create", "policy_demo",
		"gateway_configure", "workload_deploy", "authz_policy_configure",
		"violation_check", "smoke_test", "authz_demo", "summary",
	}, names)
	assert.Equal(t, map[string]bool{
		"policy_demo":     true,
		"violation_check": true,
		"authz_demo":      true,
	}, advisory)
}
