package deploy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/yaegashi/aksmesh/internal/execx"
	"github.com/yaegashi/aksmesh/internal/logging"
)

// requiredTools are checked before any Azure call. helm is not listed:
// cert-manager is installed through the Helm SDK in-process.
var requiredTools = []struct {
	name        string
	versionArgs []string
}{
	{"az", []string{"version", "--output", "json"}},
	{"kubectl", []string{"version", "--client", "--output", "json"}},
	{"istioctl", []string{"version", "--remote=false"}},
}

// runPrerequisites verifies the external CLIs are present, resolves the
// subscription ID and constructs the Azure client. Any failure here is
// fatal before anything is provisioned.
func (u *UseCase) runPrerequisites(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	for _, tool := range requiredTools {
		res, err := u.Runner.Run(ctx, execx.Command{
			Name:  tool.name,
			Args:  tool.versionArgs,
			Quiet: true,
			Desc:  "probe " + tool.name,
		})
		if err != nil || res.ExitCode != 0 {
			return fmt.Errorf("required tool %q not usable, install it and retry: %v", tool.name, err)
		}
		logger.Info(ctx, "prerequisite found", "tool", tool.name, "version", firstLine(res.Stdout))
	}

	if err := u.resolveSubscription(ctx); err != nil {
		return err
	}

	azc, err := u.NewAzureClient(u.state.SubscriptionID, u.Session.Location)
	if err != nil {
		return fmt.Errorf("build azure client: %w", err)
	}
	u.azure = azc
	return nil
}

func (u *UseCase) resolveSubscription(ctx context.Context) error {
	id, user, err := ResolveSubscriptionID(ctx, u.Runner)
	if err != nil {
		return err
	}
	u.state.SubscriptionID = id
	u.state.AccountName = user
	return nil
}

// ResolveSubscriptionID takes AZURE_SUBSCRIPTION_ID when set, otherwise
// the default subscription of the logged-in az CLI account.
func ResolveSubscriptionID(ctx context.Context, runner execx.Runner) (string, string, error) {
	logger := logging.FromContext(ctx)

	if v := os.Getenv("AZURE_SUBSCRIPTION_ID"); v != "" {
		logger.Info(ctx, "subscription from environment", "subscription", v)
		return v, "", nil
	}

	res, err := runner.Run(ctx, execx.Command{
		Name:  "az",
		Args:  []string{"account", "show", "--output", "json"},
		Check: true,
		Quiet: true,
		Desc:  "resolve default subscription",
	})
	if err != nil {
		return "", "", fmt.Errorf("not logged in to Azure, run 'az login' first: %w", err)
	}

	var account struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	}
	if err := json.Unmarshal([]byte(res.Stdout), &account); err != nil {
		return "", "", fmt.Errorf("parse az account show output: %w", err)
	}
	if account.ID == "" {
		return "", "", fmt.Errorf("az account show returned no subscription ID")
	}
	logger.Info(ctx, "subscription resolved", "subscription", account.Name, "user", account.User.Name)
	return account.ID, account.User.Name, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
