package deploy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/yaegashi/aksmesh/internal/execx"
	"github.com/yaegashi/aksmesh/internal/logging"
	"github.com/yaegashi/aksmesh/internal/poll"
)

// Built-in policy "Kubernetes cluster containers should not use forbidden
// sysctl interfaces", used to demonstrate the Azure Policy addon.
const builtinSysctlPolicyID = "56d0a13f-712f-466b-8416-56fb354fb823"

// runPolicyDemo verifies the Azure Policy addon components, assigns the
// built-in sysctl policy at cluster scope in Audit mode, deploys a demo
// pod for the policy to evaluate, then walks through violation detection
// and its fix. Advisory: a fresh cluster's addon may still be
// initializing.
func (u *UseCase) runPolicyDemo(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	if err := u.verifyPolicyComponents(ctx); err != nil {
		return err
	}

	params := map[string]any{
		"effect":             map[string]any{"value": "Audit"},
		"excludedNamespaces": map[string]any{"value": []string{"kube-system", "gatekeeper-system", "azure-arc", u.Session.MeshNamespace, u.Session.AuthzNamespace}},
		"forbiddenSysctls":   map[string]any{"value": []string{"kernel.*", "net.*", "user.*"}},
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal policy parameters: %w", err)
	}
	scope := fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.ContainerService/managedClusters/%s",
		u.state.SubscriptionID, u.Session.ResourceGroup, u.Session.Cluster)
	assignment := fmt.Sprintf("demo-policy-assignment-%s", u.Session.Token)

	res, err := u.Runner.Run(ctx, execx.Command{
		Name: "az",
		Args: []string{
			"policy", "assignment", "create",
			"--name", assignment,
			"--policy", builtinSysctlPolicyID,
			"--scope", scope,
			"--params", string(paramsJSON),
		},
		Desc: "assign built-in sysctl policy",
	})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("policy assignment failed: %s", strings.TrimSpace(res.Stderr))
	}
	logger.Info(ctx, "policy assigned", "assignment", assignment, "scope", scope)

	if err := poll.Settle(ctx, "policy propagation", 30*time.Second); err != nil {
		return err
	}

	if err := u.kube.EnsureNamespace(ctx, u.Session.AppNamespace, nil); err != nil {
		return err
	}
	manifest, err := u.renderManifest(policyDemoPodManifest)
	if err != nil {
		return err
	}
	if err := u.kube.ApplyYAML(ctx, manifest, nil); err != nil {
		return err
	}

	if err := poll.Settle(ctx, "violation detection", 15*time.Second); err != nil {
		return err
	}
	u.demonstratePolicyViolation(ctx)
	if err := u.fixPolicyViolation(ctx); err != nil {
		return err
	}
	if err := poll.Settle(ctx, "policy re-evaluation", 10*time.Second); err != nil {
		return err
	}
	u.checkViolationResolved(ctx)
	return nil
}

// demonstratePolicyViolation reads the demo constraint's recorded
// violations, best effort: right after assignment the constraint may not
// be synced to the cluster yet.
func (u *UseCase) demonstratePolicyViolation(ctx context.Context) {
	logger := logging.FromContext(ctx)

	violations, ok := u.demoConstraintViolations(ctx)
	if !ok {
		logger.Info(ctx, "demo constraint not found yet, policy may still be initializing")
		return
	}
	if len(violations) == 0 {
		logger.Info(ctx, "no violations recorded yet, policy may still be propagating")
		return
	}
	logger.Warn(ctx, "policy violation detected", "count", len(violations))
	for i, v := range violations {
		if i >= 3 {
			break
		}
		logger.Warn(ctx, "violation detail", "object", v.Name, "namespace", v.Namespace, "message", v.Message)
	}
}

// fixPolicyViolation applies the compliant service spec, resolving the
// demo's empty-selector violation.
func (u *UseCase) fixPolicyViolation(ctx context.Context) error {
	manifest, err := u.renderManifest(policyFixSvcManifest)
	if err != nil {
		return err
	}
	return u.kube.ApplyYAML(ctx, manifest, nil)
}

// checkViolationResolved re-reads the demo constraint after the fix and
// reports whether the demo service's violation cleared.
func (u *UseCase) checkViolationResolved(ctx context.Context) {
	logger := logging.FromContext(ctx)

	violations, ok := u.demoConstraintViolations(ctx)
	if !ok {
		return
	}
	for _, v := range violations {
		if v.Name == "test-empty-selector" {
			logger.Info(ctx, "policy re-evaluation may still be in progress")
			return
		}
	}
	logger.Info(ctx, "policy violation resolved, service now complies")
}

type constraintViolation struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	Message   string `json:"message"`
}

// demoConstraintViolations fetches the demo constraint's status. ok is
// false when the constraint does not exist or its status is unreadable.
func (u *UseCase) demoConstraintViolations(ctx context.Context) ([]constraintViolation, bool) {
	res, err := u.Runner.Run(ctx, execx.Command{
		Name:  "kubectl",
		Args:  u.kubectlArgs("get", "k8srequiredpodsforservice", "must-have-pod-selector", "-o", "json"),
		Quiet: true,
		Desc:  "read demo constraint",
	})
	if err != nil || res.ExitCode != 0 {
		return nil, false
	}
	var constraint struct {
		Status struct {
			Violations []constraintViolation `json:"violations"`
		} `json:"status"`
	}
	if err := json.Unmarshal([]byte(res.Stdout), &constraint); err != nil {
		return nil, false
	}
	return constraint.Status.Violations, true
}

// verifyPolicyComponents checks the azure-policy and gatekeeper pods that
// the addon manages.
func (u *UseCase) verifyPolicyComponents(ctx context.Context) error {
	res, err := u.Runner.Run(ctx, execx.Command{
		Name:  "kubectl",
		Args:  u.kubectlArgs("get", "pods", "-n", "kube-system", "-l", "app=azure-policy", "--no-headers"),
		Quiet: true,
		Desc:  "check azure-policy pod",
	})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 || strings.TrimSpace(res.Stdout) == "" {
		return fmt.Errorf("azure-policy pod not found in kube-system, addon may still be initializing")
	}

	res, err = u.Runner.Run(ctx, execx.Command{
		Name:  "kubectl",
		Args:  u.kubectlArgs("get", "pods", "-n", "gatekeeper-system", "--no-headers"),
		Quiet: true,
		Desc:  "check gatekeeper pods",
	})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 || strings.TrimSpace(res.Stdout) == "" {
		return fmt.Errorf("gatekeeper pods not found, addon may still be initializing")
	}
	return nil
}

// runViolationCheck summarizes current gatekeeper constraint violations
// and recent policy denial events in the app namespace. Advisory: policy
// sync to the cluster can lag by many minutes.
func (u *UseCase) runViolationCheck(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	res, err := u.Runner.Run(ctx, execx.Command{
		Name:  "kubectl",
		Args:  u.kubectlArgs("get", "constraints", "--all-namespaces", "-o", "json"),
		Quiet: true,
		Desc:  "list gatekeeper constraints",
	})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("no constraints retrievable, policy assignments may not be active yet")
	}

	var constraints struct {
		Items []struct {
			Kind     string `json:"kind"`
			Metadata struct {
				Name string `json:"name"`
			} `json:"metadata"`
			Status struct {
				Violations []struct {
					Kind      string `json:"kind"`
					Name      string `json:"name"`
					Namespace string `json:"namespace"`
					Message   string `json:"message"`
				} `json:"violations"`
			} `json:"status"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(res.Stdout), &constraints); err != nil {
		return fmt.Errorf("parse constraints: %w", err)
	}
	total := 0
	for _, c := range constraints.Items {
		if len(c.Status.Violations) == 0 {
			continue
		}
		total += len(c.Status.Violations)
		for i, v := range c.Status.Violations {
			if i >= 3 {
				break
			}
			logger.Warn(ctx, "policy violation",
				"constraint", c.Kind+"/"+c.Metadata.Name,
				"object", v.Kind+"/"+v.Name, "namespace", v.Namespace, "message", v.Message)
		}
	}
	if total == 0 {
		logger.Info(ctx, "no policy violations in active constraints", "constraints", len(constraints.Items))
	} else {
		logger.Warn(ctx, "policy violations found", "total", total)
	}

	return u.checkPolicyEvents(ctx)
}

func (u *UseCase) checkPolicyEvents(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	res, err := u.Runner.Run(ctx, execx.Command{
		Name:  "kubectl",
		Args:  u.kubectlArgs("get", "events", "-n", u.Session.AppNamespace, "--field-selector", "type=Warning", "-o", "json"),
		Quiet: true,
		Desc:  "list warning events",
	})
	if err != nil || res.ExitCode != 0 {
		return nil
	}
	var events struct {
		Items []struct {
			Reason  string `json:"reason"`
			Message string `json:"message"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(res.Stdout), &events); err != nil {
		return nil
	}
	count := 0
	for _, e := range events.Items {
		msg := strings.ToLower(e.Message)
		if strings.Contains(msg, "denied") || strings.Contains(msg, "policy") {
			count++
			if count <= 3 {
				logger.Warn(ctx, "policy event", "reason", e.Reason, "message", e.Message)
			}
		}
	}
	if count == 0 {
		logger.Debug(ctx, "no recent policy denial events")
	}
	return nil
}
