package hcloud

import (
	"context"
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/gantry-sh/gantry/internal/provider"
)

// nodeGroupConfig is the recognized configuration of a NodeGroup resource.
type nodeGroupConfig struct {
	NetworkID  string `json:"networkId"`
	SSHKeyID   string `json:"sshKeyId"`
	Location   string `json:"location"`
	ServerType string `json:"serverType"`
	Image      string `json:"image"`
	Count      int    `json:"count"`
}

func (c *nodeGroupConfig) applyDefaults() {
	if c.Location == "" {
		c.Location = "fsn1"
	}
	if c.ServerType == "" {
		c.ServerType = "cx22"
	}
	if c.Image == "" {
		c.Image = "ubuntu-24.04"
	}
	if c.Count <= 0 {
		c.Count = 1
	}
}

// nodeGroupHandler provisions a fixed-size group of worker servers. The
// group is tracked through labels, numbered member servers are matched
// by name.
type nodeGroupHandler struct {
	client *hcloud.Client
}

func (h *nodeGroupHandler) Ensure(ctx context.Context, req provider.Request) (provider.Outputs, error) {
	var cfg nodeGroupConfig
	if err := provider.DecodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	name := resourceName(req)
	lbl := labels(req)
	lbl[roleLabel] = "worker"

	cluster := &clusterHandler{client: h.client}

	ids := make([]any, 0, cfg.Count)
	ips := make([]any, 0, cfg.Count)
	for i := range cfg.Count {
		serverName := fmt.Sprintf("%s-%d", name, i+1)
		id, err := cluster.ensureServer(ctx, serverName, cfg.ServerType, cfg.Image, cfg.Location, cfg.SSHKeyID, cfg.NetworkID, lbl)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)

		srv, _, err := h.client.Server.GetByName(ctx, serverName)
		if err != nil {
			return nil, classify(err)
		}
		if srv != nil && srv.PublicNet.IPv4.IP != nil {
			ips = append(ips, srv.PublicNet.IPv4.IP.String())
		}
	}

	// Scale down: delete members numbered beyond the desired count.
	if err := h.trimExcess(ctx, req, cfg.Count); err != nil {
		return nil, err
	}

	return provider.Outputs{
		"ids":   ids,
		"ips":   ips,
		"count": cfg.Count,
	}, nil
}

func (h *nodeGroupHandler) trimExcess(ctx context.Context, req provider.Request, keep int) error {
	servers, err := h.members(ctx, req)
	if err != nil {
		return err
	}
	prefix := resourceName(req) + "-"
	for _, srv := range servers {
		var n int
		if _, err := fmt.Sscanf(srv.Name, prefix+"%d", &n); err != nil {
			continue
		}
		if n <= keep {
			continue
		}
		if _, _, err := h.client.Server.DeleteWithResult(ctx, srv); err != nil {
			if isNotFound(err) {
				continue
			}
			return classify(err)
		}
	}
	return nil
}

func (h *nodeGroupHandler) members(ctx context.Context, req provider.Request) ([]*hcloud.Server, error) {
	lbl := labels(req)
	lbl[roleLabel] = "worker"
	servers, err := h.client.Server.AllWithOpts(ctx, hcloud.ServerListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: labelSelector(lbl)},
	})
	if err != nil {
		return nil, classify(err)
	}
	return servers, nil
}

func (h *nodeGroupHandler) TearDown(ctx context.Context, req provider.Request) error {
	servers, err := h.members(ctx, req)
	if err != nil {
		return err
	}
	for _, srv := range servers {
		if _, _, err := h.client.Server.DeleteWithResult(ctx, srv); err != nil {
			if isNotFound(err) {
				continue
			}
			return classify(err)
		}
	}
	return nil
}

func (h *nodeGroupHandler) Health(ctx context.Context, req provider.Request) (bool, error) {
	var cfg nodeGroupConfig
	if err := provider.DecodeConfig(req.Config, &cfg); err != nil {
		return false, err
	}
	cfg.applyDefaults()

	servers, err := h.members(ctx, req)
	if err != nil {
		return false, err
	}
	running := 0
	for _, srv := range servers {
		if srv.Status == hcloud.ServerStatusRunning || srv.Status == hcloud.ServerStatusStarting {
			running++
		}
	}
	return running >= cfg.Count, nil
}
