package model

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError reports bad operator input detected before any
// provisioning call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ExecutionError reports an external process that exited non-zero while the
// caller requested exit-code checking.
type ExecutionError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("command %q exited with code %d", e.Command, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// ProvisioningError reports a cloud resource creation failure. The partially
// created resource is left in place for inspection or later adoption.
type ProvisioningError struct {
	Resource string
	Name     string
	Err      error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provision %s %q: %v", e.Resource, e.Name, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// ApplyError reports a declarative configuration document rejected by the
// cluster control plane, carrying the server diagnostics.
type ApplyError struct {
	Kind string
	Name string
	Err  error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("apply %s %q: %v", e.Kind, e.Name, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// ReadinessTimeoutError reports a readiness poll that exhausted its attempt
// budget without the condition holding.
type ReadinessTimeoutError struct {
	What     string
	Attempts int
	Interval time.Duration
}

func (e *ReadinessTimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for %s after %d attempts (interval %s)", e.What, e.Attempts, e.Interval)
}

// BindingError reports that no public address resource matching the
// discovered ingress IP exists in the cluster's node resource group.
type BindingError struct {
	IP            string
	ResourceGroup string
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("no public IP resource with address %s found in resource group %s", e.IP, e.ResourceGroup)
}
