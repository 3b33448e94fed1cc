package deploy

import (
	"context"

	"github.com/yaegashi/aksmesh/internal/logging"
)

// runDNSBinding waits for the ingress gateway's public IP and binds the
// session DNS label to the matching public IP resource in the node
// resource group, recording the resulting FQDN.
func (u *UseCase) runDNSBinding(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	ip, err := u.kube.WaitServiceIngressIP(ctx, u.Session.MeshNamespace, "istio-ingressgateway")
	if err != nil {
		return err
	}
	u.state.IngressIP = ip
	logger.Info(ctx, "ingress IP assigned", "ip", ip)

	fqdn, err := u.azure.BindDNSLabel(ctx, u.state.NodeResourceGroup, ip, u.Session.DNSLabel)
	if err != nil {
		return err
	}
	u.state.FQDN = fqdn
	logger.Info(ctx, "DNS label bound", "fqdn", fqdn)
	return nil
}
