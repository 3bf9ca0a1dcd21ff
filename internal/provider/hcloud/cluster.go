package hcloud

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/gantry-sh/gantry/internal/provider"
)

// clusterConfig is the recognized configuration of a Cluster resource.
// NetworkID and SSHKeyID are usually wired from the outputs of a Network
// and Role resource.
type clusterConfig struct {
	NetworkID         string `json:"networkId"`
	SSHKeyID          string `json:"sshKeyId"`
	Location          string `json:"location"`
	ServerType        string `json:"serverType"`
	Image             string `json:"image"`
	ControlPlaneCount int    `json:"controlPlaneCount"`
	LoadBalancerType  string `json:"loadBalancerType"`
	APIPort           int    `json:"apiPort"`
}

func (c *clusterConfig) applyDefaults() {
	if c.Location == "" {
		c.Location = "fsn1"
	}
	if c.ServerType == "" {
		c.ServerType = "cx22"
	}
	if c.Image == "" {
		c.Image = "ubuntu-24.04"
	}
	if c.ControlPlaneCount <= 0 {
		c.ControlPlaneCount = 1
	}
	if c.LoadBalancerType == "" {
		c.LoadBalancerType = "lb11"
	}
	if c.APIPort <= 0 {
		c.APIPort = 6443
	}
}

const roleLabel = "gantry.sh/role"

// clusterHandler provisions the control plane: an API load balancer
// fronting one or more control-plane servers selected by label.
type clusterHandler struct {
	client *hcloud.Client
}

func (h *clusterHandler) Ensure(ctx context.Context, req provider.Request) (provider.Outputs, error) {
	var cfg clusterConfig
	if err := provider.DecodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	name := resourceName(req)

	lb, err := h.ensureLoadBalancer(ctx, req, cfg, name)
	if err != nil {
		return nil, err
	}

	cpLabels := labels(req)
	cpLabels[roleLabel] = "control-plane"

	serverIDs := make([]any, 0, cfg.ControlPlaneCount)
	for i := range cfg.ControlPlaneCount {
		serverName := fmt.Sprintf("%s-cp-%d", name, i+1)
		id, err := h.ensureServer(ctx, serverName, cfg.ServerType, cfg.Image, cfg.Location, cfg.SSHKeyID, cfg.NetworkID, cpLabels)
		if err != nil {
			return nil, err
		}
		serverIDs = append(serverIDs, id)
	}

	if err := h.ensureAPIService(ctx, lb, cfg, cpLabels); err != nil {
		return nil, err
	}

	return provider.Outputs{
		"id":        fmt.Sprintf("%d", lb.ID),
		"endpoint":  fmt.Sprintf("https://%s:%d", lb.PublicNet.IPv4.IP.String(), cfg.APIPort),
		"serverIds": serverIDs,
	}, nil
}

func (h *clusterHandler) ensureLoadBalancer(ctx context.Context, req provider.Request, cfg clusterConfig, name string) (*hcloud.LoadBalancer, error) {
	lb, _, err := h.client.LoadBalancer.GetByName(ctx, name)
	if err != nil {
		return nil, classify(err)
	}
	if lb != nil {
		return lb, nil
	}

	lbType, _, err := h.client.LoadBalancerType.GetByName(ctx, cfg.LoadBalancerType)
	if err != nil {
		return nil, classify(err)
	}
	if lbType == nil {
		return nil, provider.Permanentf("load balancer type not found: %s", cfg.LoadBalancerType)
	}
	loc, _, err := h.client.Location.GetByName(ctx, cfg.Location)
	if err != nil {
		return nil, classify(err)
	}
	if loc == nil {
		return nil, provider.Permanentf("location not found: %s", cfg.Location)
	}

	opts := hcloud.LoadBalancerCreateOpts{
		Name:             name,
		LoadBalancerType: lbType,
		Location:         loc,
		Algorithm:        &hcloud.LoadBalancerAlgorithm{Type: hcloud.LoadBalancerAlgorithmTypeRoundRobin},
		Labels:           labels(req),
	}
	if cfg.NetworkID != "" {
		netID, err := parseID(cfg.NetworkID)
		if err != nil {
			return nil, provider.Permanent(err)
		}
		opts.Network = &hcloud.Network{ID: netID}
	}

	res, _, err := h.client.LoadBalancer.Create(ctx, opts)
	if err != nil {
		return nil, classify(err)
	}
	if err := h.client.Action.WaitFor(ctx, res.Action); err != nil {
		return nil, classify(err)
	}

	lb, _, err = h.client.LoadBalancer.GetByName(ctx, name)
	if err != nil {
		return nil, classify(err)
	}
	if lb == nil {
		return nil, provider.Permanentf("load balancer %s vanished after creation", name)
	}
	return lb, nil
}

// ensureAPIService idempotently adds the API service and the
// label-selector target for the control-plane servers.
func (h *clusterHandler) ensureAPIService(ctx context.Context, lb *hcloud.LoadBalancer, cfg clusterConfig, cpLabels map[string]string) error {
	hasService := false
	for _, s := range lb.Services {
		if s.ListenPort == cfg.APIPort {
			hasService = true
			break
		}
	}
	if !hasService {
		action, _, err := h.client.LoadBalancer.AddService(ctx, lb, hcloud.LoadBalancerAddServiceOpts{
			Protocol:        hcloud.LoadBalancerServiceProtocolTCP,
			ListenPort:      hcloud.Ptr(cfg.APIPort),
			DestinationPort: hcloud.Ptr(cfg.APIPort),
		})
		if err != nil {
			return classify(err)
		}
		if err := h.client.Action.WaitFor(ctx, action); err != nil {
			return classify(err)
		}
	}

	selector := labelSelector(cpLabels)
	for _, target := range lb.Targets {
		if target.Type == hcloud.LoadBalancerTargetTypeLabelSelector &&
			target.LabelSelector != nil && target.LabelSelector.Selector == selector {
			return nil
		}
	}
	action, _, err := h.client.LoadBalancer.AddLabelSelectorTarget(ctx, lb, hcloud.LoadBalancerAddLabelSelectorTargetOpts{
		Selector:     selector,
		UsePrivateIP: hcloud.Ptr(cfg.NetworkID != ""),
	})
	if err != nil {
		return classify(err)
	}
	return classify(h.client.Action.WaitFor(ctx, action))
}

func (h *clusterHandler) ensureServer(ctx context.Context, name, serverType, image, location, sshKeyID, networkID string, lbl map[string]string) (string, error) {
	existing, _, err := h.client.Server.GetByName(ctx, name)
	if err != nil {
		return "", classify(err)
	}
	if existing != nil {
		return fmt.Sprintf("%d", existing.ID), nil
	}

	typeObj, _, err := h.client.ServerType.GetByName(ctx, serverType)
	if err != nil {
		return "", classify(err)
	}
	if typeObj == nil {
		return "", provider.Permanentf("server type not found: %s", serverType)
	}
	imageObj, _, err := h.client.Image.GetByNameAndArchitecture(ctx, image, typeObj.Architecture)
	if err != nil {
		return "", classify(err)
	}
	if imageObj == nil {
		return "", provider.Permanentf("image not found: %s", image)
	}
	loc, _, err := h.client.Location.GetByName(ctx, location)
	if err != nil {
		return "", classify(err)
	}

	opts := hcloud.ServerCreateOpts{
		Name:       name,
		ServerType: typeObj,
		Image:      imageObj,
		Location:   loc,
		Labels:     lbl,
	}
	if sshKeyID != "" {
		id, err := parseID(sshKeyID)
		if err != nil {
			return "", provider.Permanent(err)
		}
		opts.SSHKeys = []*hcloud.SSHKey{{ID: id}}
	}
	if networkID != "" {
		id, err := parseID(networkID)
		if err != nil {
			return "", provider.Permanent(err)
		}
		opts.Networks = []*hcloud.Network{{ID: id}}
	}

	res, _, err := h.client.Server.Create(ctx, opts)
	if err != nil {
		return "", classify(err)
	}
	if err := h.client.Action.WaitFor(ctx, res.Action); err != nil {
		return "", classify(err)
	}
	return fmt.Sprintf("%d", res.Server.ID), nil
}

func (h *clusterHandler) TearDown(ctx context.Context, req provider.Request) error {
	name := resourceName(req)

	// Delete control-plane servers by label, then the load balancer.
	servers, err := h.client.Server.AllWithOpts(ctx, hcloud.ServerListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: labelSelector(labels(req)) + "," + roleLabel + "=control-plane"},
	})
	if err != nil {
		return classify(err)
	}
	for _, srv := range servers {
		if _, _, err := h.client.Server.DeleteWithResult(ctx, srv); err != nil {
			if isNotFound(err) {
				continue
			}
			return classify(err)
		}
	}

	lb, _, err := h.client.LoadBalancer.GetByName(ctx, name)
	if err != nil {
		return classify(err)
	}
	if lb == nil {
		return nil
	}
	if _, err := h.client.LoadBalancer.Delete(ctx, lb); err != nil {
		if isNotFound(err) {
			return nil
		}
		return classify(err)
	}
	return nil
}

func (h *clusterHandler) Health(ctx context.Context, req provider.Request) (bool, error) {
	var cfg clusterConfig
	if err := provider.DecodeConfig(req.Config, &cfg); err != nil {
		return false, err
	}
	cfg.applyDefaults()

	lb, _, err := h.client.LoadBalancer.GetByName(ctx, resourceName(req))
	if err != nil {
		return false, classify(err)
	}
	if lb == nil {
		return false, nil
	}

	lbls := labels(req)
	lbls[roleLabel] = "control-plane"
	servers, err := h.client.Server.AllWithOpts(ctx, hcloud.ServerListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: labelSelector(lbls)},
	})
	if err != nil {
		return false, classify(err)
	}
	return len(servers) >= cfg.ControlPlaneCount, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid resource id %q", s)
	}
	return id, nil
}

func labelSelector(lbl map[string]string) string {
	parts := make([]string, 0, len(lbl))
	for k, v := range lbl {
		parts = append(parts, k+"="+v)
	}
	// Selector order does not matter to the API but keep it stable.
	slices.Sort(parts)
	return strings.Join(parts, ",")
}
