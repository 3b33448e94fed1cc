package azure

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v2"

	"github.com/yaegashi/aksmesh/domain/model"
	"github.com/yaegashi/aksmesh/internal/logging"
)

// BindDNSLabel finds the public IP address resource in nodeResourceGroup
// whose address equals ip and assigns it the given DNS label. Returns the
// resulting FQDN. When the label is already set to the same value the
// update is still issued; the operation is a no-op server side.
func (c *Client) BindDNSLabel(ctx context.Context, nodeResourceGroup, ip, label string) (string, error) {
	logger := logging.FromContext(ctx).With("resource_group", nodeResourceGroup, "ip", ip, "label", label)

	target, err := c.findPublicIP(ctx, nodeResourceGroup, ip)
	if err != nil {
		return "", err
	}
	if target == nil {
		logger.Info(ctx, "AZ:BindDNS/nomatch")
		return "", &model.BindingError{IP: ip, ResourceGroup: nodeResourceGroup}
	}

	if target.Properties == nil {
		target.Properties = &armnetwork.PublicIPAddressPropertiesFormat{}
	}
	if target.Properties.DNSSettings == nil {
		target.Properties.DNSSettings = &armnetwork.PublicIPAddressDNSSettings{}
	}
	target.Properties.DNSSettings.DomainNameLabel = to.Ptr(label)

	poller, err := c.publicIPs.BeginCreateOrUpdate(ctx, nodeResourceGroup, *target.Name, *target, nil)
	if err != nil {
		logger.Info(ctx, "AZ:BindDNS/efail", "err", shortError(err))
		return "", &model.ProvisioningError{Resource: "public_ip", Name: *target.Name, Err: err}
	}
	res, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		logger.Info(ctx, "AZ:BindDNS/efail", "err", shortError(err))
		return "", &model.ProvisioningError{Resource: "public_ip", Name: *target.Name, Err: err}
	}

	fqdn := ""
	if res.Properties != nil && res.Properties.DNSSettings != nil && res.Properties.DNSSettings.Fqdn != nil {
		fqdn = *res.Properties.DNSSettings.Fqdn
	}
	logger.Info(ctx, "AZ:BindDNS/eok", "fqdn", fqdn)
	return fqdn, nil
}

// findPublicIP scans the resource group for a public IP with the given
// address. Returns nil when no resource matches.
func (c *Client) findPublicIP(ctx context.Context, resourceGroup, ip string) (*armnetwork.PublicIPAddress, error) {
	pager := c.publicIPs.NewListPager(resourceGroup, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, &model.ProvisioningError{Resource: "public_ip", Name: ip, Err: err}
		}
		for _, pip := range page.Value {
			if pip.Properties != nil && pip.Properties.IPAddress != nil && *pip.Properties.IPAddress == ip {
				return pip, nil
			}
		}
	}
	return nil, nil
}
