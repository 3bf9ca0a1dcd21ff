package hcloud

import (
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/gantry-sh/gantry/internal/graph"
	"github.com/gantry-sh/gantry/internal/provider"
)

// Label keys attached to every managed resource.
const (
	LabelManagedBy = "gantry.sh/managed-by"
	LabelProject   = "gantry.sh/project"
	LabelResource  = "gantry.sh/resource"

	managedByValue = "gantry"
)

// Client wraps the Hetzner Cloud API client and registers kind handlers.
type Client struct {
	client *hcloud.Client
}

// NewClient creates a client from an API token.
func NewClient(token string) *Client {
	return &Client{
		client: hcloud.NewClient(hcloud.WithToken(token)),
	}
}

// Register installs this provider's kind handlers on a registry.
func (c *Client) Register(reg *provider.Registry) {
	reg.Register(graph.KindNetwork, &networkHandler{client: c.client})
	reg.Register(graph.KindRole, &roleHandler{client: c.client})
	reg.Register(graph.KindCluster, &clusterHandler{client: c.client})
	reg.Register(graph.KindNodeGroup, &nodeGroupHandler{client: c.client})
}

// resourceName is the provider-side name for a logical resource.
func resourceName(req provider.Request) string {
	return fmt.Sprintf("%s-%s", req.Project, req.Name)
}

// labels returns the label set identifying a managed resource.
func labels(req provider.Request) map[string]string {
	return map[string]string{
		LabelManagedBy: managedByValue,
		LabelProject:   req.Project,
		LabelResource:  req.Name,
	}
}
