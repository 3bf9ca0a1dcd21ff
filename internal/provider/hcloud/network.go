package hcloud

import (
	"context"
	"fmt"
	"net"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/gantry-sh/gantry/internal/provider"
)

// networkConfig is the recognized configuration of a Network resource.
type networkConfig struct {
	CIDR       string `json:"cidr"`
	SubnetCIDR string `json:"subnetCidr"`
	Zone       string `json:"zone"`
}

func (c *networkConfig) applyDefaults() {
	if c.CIDR == "" {
		c.CIDR = "10.0.0.0/16"
	}
	if c.SubnetCIDR == "" {
		c.SubnetCIDR = c.CIDR
	}
	if c.Zone == "" {
		c.Zone = "eu-central"
	}
}

type networkHandler struct {
	client *hcloud.Client
}

// Ensure creates the network and its subnet if missing. An existing
// network with a different IP range is a permanent mismatch, not
// something to converge silently.
func (h *networkHandler) Ensure(ctx context.Context, req provider.Request) (provider.Outputs, error) {
	var cfg networkConfig
	if err := provider.DecodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	name := resourceName(req)

	network, _, err := h.client.Network.GetByName(ctx, name)
	if err != nil {
		return nil, classify(err)
	}

	if network == nil {
		_, ipNet, perr := net.ParseCIDR(cfg.CIDR)
		if perr != nil {
			return nil, provider.Permanentf("invalid network cidr %q: %v", cfg.CIDR, perr)
		}
		network, _, err = h.client.Network.Create(ctx, hcloud.NetworkCreateOpts{
			Name:    name,
			IPRange: ipNet,
			Labels:  labels(req),
		})
		if err != nil {
			return nil, classify(err)
		}
	} else if network.IPRange.String() != cfg.CIDR {
		return nil, provider.Permanentf("network %s exists with IP range %s (expected %s)",
			name, network.IPRange.String(), cfg.CIDR)
	}

	if err := h.ensureSubnet(ctx, network, cfg); err != nil {
		return nil, err
	}

	return provider.Outputs{
		"id":     fmt.Sprintf("%d", network.ID),
		"cidr":   cfg.CIDR,
		"subnet": cfg.SubnetCIDR,
		"zone":   cfg.Zone,
	}, nil
}

func (h *networkHandler) ensureSubnet(ctx context.Context, network *hcloud.Network, cfg networkConfig) error {
	for _, subnet := range network.Subnets {
		if subnet.IPRange.String() == cfg.SubnetCIDR {
			return nil
		}
	}

	_, ipNet, err := net.ParseCIDR(cfg.SubnetCIDR)
	if err != nil {
		return provider.Permanentf("invalid subnet cidr %q: %v", cfg.SubnetCIDR, err)
	}

	action, _, err := h.client.Network.AddSubnet(ctx, network, hcloud.NetworkAddSubnetOpts{
		Subnet: hcloud.NetworkSubnet{
			Type:        hcloud.NetworkSubnetTypeCloud,
			IPRange:     ipNet,
			NetworkZone: hcloud.NetworkZone(cfg.Zone),
		},
	})
	if err != nil {
		return classify(err)
	}
	if err := h.client.Action.WaitFor(ctx, action); err != nil {
		return classify(err)
	}
	return nil
}

// TearDown deletes the network; an absent network is a success.
func (h *networkHandler) TearDown(ctx context.Context, req provider.Request) error {
	name := resourceName(req)

	network, _, err := h.client.Network.GetByName(ctx, name)
	if err != nil {
		return classify(err)
	}
	if network == nil {
		return nil
	}

	if _, err := h.client.Network.Delete(ctx, network); err != nil {
		if isNotFound(err) {
			return nil
		}
		return classify(err)
	}
	return nil
}

// Health reports whether the network still exists.
func (h *networkHandler) Health(ctx context.Context, req provider.Request) (bool, error) {
	network, _, err := h.client.Network.GetByName(ctx, resourceName(req))
	if err != nil {
		return false, classify(err)
	}
	return network != nil, nil
}
