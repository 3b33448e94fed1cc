package azure

import (
	"context"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"

	"github.com/yaegashi/aksmesh/domain/model"
	"github.com/yaegashi/aksmesh/internal/logging"
)

// EnsureResourceGroup makes sure the named resource group exists in the
// client's location. Returns true when the group was created by this call.
func (c *Client) EnsureResourceGroup(ctx context.Context, name string) (bool, error) {
	logger := logging.FromContext(ctx).With("subscription", c.SubscriptionID, "location", c.Location, "resource_group", name)

	_, err := c.groups.Get(ctx, name, nil)
	if err == nil {
		logger.Info(ctx, "AZ:EnsureRG/exists")
		return false, nil
	}
	if !isNotFound(err) {
		return false, &model.ProvisioningError{Resource: "resource_group", Name: name, Err: err}
	}

	group := armresources.ResourceGroup{
		Location: to.Ptr(c.Location),
		Tags: map[string]*string{
			"created-by":   to.Ptr("aksmesh"),
			"created-date": to.Ptr(time.Now().UTC().Format(time.RFC3339)),
		},
	}
	if _, err := c.groups.CreateOrUpdate(ctx, name, group, nil); err != nil {
		logger.Info(ctx, "AZ:EnsureRG/efail", "err", shortError(err))
		return false, &model.ProvisioningError{Resource: "resource_group", Name: name, Err: err}
	}
	logger.Info(ctx, "AZ:EnsureRG/eok")
	return true, nil
}

// DeleteResourceGroup removes the resource group and everything in it.
// Absent group is treated as already deleted.
func (c *Client) DeleteResourceGroup(ctx context.Context, name string) error {
	logger := logging.FromContext(ctx).With("subscription", c.SubscriptionID, "resource_group", name)

	if _, err := c.groups.Get(ctx, name, nil); err != nil {
		if isNotFound(err) {
			logger.Info(ctx, "AZ:DeleteRG/absent")
			return nil
		}
		return &model.ProvisioningError{Resource: "resource_group", Name: name, Err: err}
	}

	logger.Info(ctx, "AZ:DeleteRG/begin")
	poller, err := c.groups.BeginDelete(ctx, name, nil)
	if err != nil {
		logger.Info(ctx, "AZ:DeleteRG/efail", "err", shortError(err))
		return &model.ProvisioningError{Resource: "resource_group", Name: name, Err: err}
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		logger.Info(ctx, "AZ:DeleteRG/efail", "err", shortError(err))
		return &model.ProvisioningError{Resource: "resource_group", Name: name, Err: err}
	}
	logger.Info(ctx, "AZ:DeleteRG/eok")
	return nil
}

// ResourceGroupExists reports whether the named resource group exists.
func (c *Client) ResourceGroupExists(ctx context.Context, name string) (bool, error) {
	_, err := c.groups.Get(ctx, name, nil)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, &model.ProvisioningError{Resource: "resource_group", Name: name, Err: err}
}
