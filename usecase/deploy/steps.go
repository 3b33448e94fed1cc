package deploy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/yaegashi/aksmesh/internal/logging"
	"github.com/yaegashi/aksmesh/internal/poll"
)

// errSkipped marks a step that found its work already done and performed
// nothing. The orchestrator records it as success and skips the settle
// pause.
var errSkipped = errors.New("step skipped")

// Step is one unit of the pipeline. Required steps abort the run on
// failure; advisory steps log a warning and let the run continue. Settle
// is a fixed pause applied after the step succeeds, absorbing propagation
// lag the readiness checks cannot observe.
type Step struct {
	Name     string
	Required bool
	Settle   time.Duration
	Run      func(ctx context.Context) error
}

// Steps returns the pipeline in execution order.
func (u *UseCase) Steps() []Step {
	return []Step{
		{Name: "prerequisites", Required: true, Run: u.runPrerequisites},
		{Name: "resource_group", Required: true, Run: u.runResourceGroup},
		{Name: "cluster", Required: true, Settle: 30 * time.Second, Run: u.runCluster},
		{Name: "mesh_install", Required: true, Settle: 60 * time.Second, Run: u.runMeshInstall},
		{Name: "external_authz_deploy", Required: true, Run: u.runExternalAuthzDeploy},
		{Name: "dns_binding", Required: true, Run: u.runDNSBinding},
		{Name: "cert_manager_install", Required: true, Run: u.runCertManagerInstall},
		{Name: "issuer_create", Required: true, Run: u.runIssuerCreate},
		{Name: "certificate_create", Required: true, Run: u.runCertificateCreate},
		{Name: "policy_demo", Required: false, Run: u.runPolicyDemo},
		{Name: "gateway_configure", Required: true, Run: u.runGatewayConfigure},
		{Name: "workload_deploy", Required: true, Settle: 60 * time.Second, Run: u.runWorkloadDeploy},
		{Name: "authz_policy_configure", Required: true, Run: u.runAuthzPolicyConfigure},
		{Name: "violation_check", Required: false, Run: u.runViolationCheck},
		{Name: "smoke_test", Required: true, Run: u.runSmokeTest},
		{Name: "authz_demo", Required: false, Run: u.runAuthzDemo},
		{Name: "summary", Required: true, Run: u.runSummary},
	}
}

// Execute runs the pipeline front to back. There are no orchestrator-level
// retries; a re-run starts over and every step adopts what already exists.
func (u *UseCase) Execute(ctx context.Context) error {
	defer u.cleanupKubeconfig(ctx)
	return u.runSteps(ctx, u.Steps())
}

func (u *UseCase) runSteps(ctx context.Context, steps []Step) error {
	logger := logging.FromContext(ctx)
	for _, step := range steps {
		logger.Info(ctx, "Deploy:"+step.Name+"/s")
		if err := step.Run(ctx); err != nil {
			if errors.Is(err, errSkipped) {
				logger.Info(ctx, "Deploy:"+step.Name+"/eok", "skipped", true)
				continue
			}
			if step.Required {
				logger.Error(ctx, "Deploy:"+step.Name+"/efail", "err", err)
				return fmt.Errorf("step %s: %w", step.Name, err)
			}
			logger.Warn(ctx, "Deploy:"+step.Name+"/skipped", "err", err)
			continue
		}
		logger.Info(ctx, "Deploy:"+step.Name+"/eok")
		if step.Settle > 0 {
			if err := poll.Settle(ctx, step.Name, step.Settle); err != nil {
				return err
			}
		}
	}
	return nil
}

func (u *UseCase) cleanupKubeconfig(ctx context.Context) {
	if u.state.KubeconfigPath == "" {
		return
	}
	if err := os.Remove(u.state.KubeconfigPath); err != nil {
		logging.FromContext(ctx).Debug(ctx, "remove kubeconfig file", "path", u.state.KubeconfigPath, "err", err)
	}
}
