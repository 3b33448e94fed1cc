// Package azure wraps the ARM SDK clients used by the provisioning
// workflow: resource groups, managed clusters, and public IP addresses.
// All mutating operations are converge-style: observe first, create only
// when the resource is absent.
package azure

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice/v2"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v2"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
)

// Client bundles the ARM clients for one subscription/location pair.
type Client struct {
	SubscriptionID string
	Location       string

	groups    *armresources.ResourceGroupsClient
	clusters  *armcontainerservice.ManagedClustersClient
	publicIPs *armnetwork.PublicIPAddressesClient
}

// New builds a Client from an existing credential. opts is passed through
// to every ARM client and may carry a custom transport.
func New(subscriptionID, location string, cred azcore.TokenCredential, opts *arm.ClientOptions) (*Client, error) {
	if subscriptionID == "" {
		return nil, fmt.Errorf("subscription ID is required")
	}
	groups, err := armresources.NewResourceGroupsClient(subscriptionID, cred, opts)
	if err != nil {
		return nil, fmt.Errorf("create resource groups client: %w", err)
	}
	clusters, err := armcontainerservice.NewManagedClustersClient(subscriptionID, cred, opts)
	if err != nil {
		return nil, fmt.Errorf("create managed clusters client: %w", err)
	}
	publicIPs, err := armnetwork.NewPublicIPAddressesClient(subscriptionID, cred, opts)
	if err != nil {
		return nil, fmt.Errorf("create public IP addresses client: %w", err)
	}
	return &Client{
		SubscriptionID: subscriptionID,
		Location:       location,
		groups:         groups,
		clusters:       clusters,
		publicIPs:      publicIPs,
	}, nil
}

// NewDefault builds a Client using the Azure default credential chain
// (environment, workload identity, managed identity, az CLI).
func NewDefault(subscriptionID, location string) (*Client, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("build azure credential: %w", err)
	}
	return New(subscriptionID, location, cred, nil)
}

// isNotFound reports whether err is an ARM 404 response.
func isNotFound(err error) bool {
	var responseErr *azcore.ResponseError
	return errors.As(err, &responseErr) && responseErr.StatusCode == http.StatusNotFound
}

// shortError compresses ARM response errors to a single line for logging.
func shortError(err error) string {
	var responseErr *azcore.ResponseError
	if errors.As(err, &responseErr) {
		return fmt.Sprintf("%d %s (%s)", responseErr.StatusCode, http.StatusText(responseErr.StatusCode), responseErr.ErrorCode)
	}
	return err.Error()
}
