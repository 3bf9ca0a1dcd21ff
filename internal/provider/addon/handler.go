package addon

import (
	"context"
	"fmt"
	"os"

	"helm.sh/helm/v3/pkg/release"

	"github.com/gantry-sh/gantry/internal/graph"
	"github.com/gantry-sh/gantry/internal/provider"
)

// addonConfig is the recognized configuration of an Addon resource.
// Chart may name a catalog entry or an arbitrary chart; arbitrary charts
// also need Repo and Version. KubeconfigPath is usually wired from the
// outputs of a Cluster resource.
type addonConfig struct {
	Chart          string         `json:"chart"`
	Repo           string         `json:"repo"`
	Version        string         `json:"version"`
	Namespace      string         `json:"namespace"`
	Release        string         `json:"release"`
	KubeconfigPath string         `json:"kubeconfigPath"`
	Values         map[string]any `json:"values"`
}

// newReleaser builds the Helm surface for a kubeconfig. Tests swap it
// for a fake.
var newReleaser = func(kubeconfig []byte, namespace string) (Releaser, error) {
	return newHelmClient(kubeconfig, namespace)
}

// Handler installs Addon resources as Helm releases.
type Handler struct{}

// Register installs the addon handler on a registry.
func Register(reg *provider.Registry) {
	reg.Register(graph.KindAddon, &Handler{})
}

func (h *Handler) Ensure(ctx context.Context, req provider.Request) (provider.Outputs, error) {
	cfg, entry, err := h.prepare(req)
	if err != nil {
		return nil, err
	}

	rel, err := h.releaser(cfg, entry)
	if err != nil {
		return nil, err
	}

	out, err := rel.InstallOrUpgrade(ctx, releaseName(req, cfg), entry, cfg.Values)
	if err != nil {
		return nil, provider.Transient(fmt.Errorf("install %s: %w", entry.Chart, err))
	}

	return provider.Outputs{
		"release":   out.Name,
		"namespace": out.Namespace,
		"version":   entry.Version,
		"revision":  out.Version,
		"status":    string(out.Info.Status),
	}, nil
}

func (h *Handler) TearDown(ctx context.Context, req provider.Request) error {
	cfg, entry, err := h.prepare(req)
	if err != nil {
		return err
	}

	rel, err := h.releaser(cfg, entry)
	if err != nil {
		return err
	}

	name := releaseName(req, cfg)
	_, exists, err := rel.Status(name)
	if err != nil {
		return provider.Transient(err)
	}
	if !exists {
		return nil
	}
	if err := rel.Uninstall(name); err != nil {
		return provider.Transient(fmt.Errorf("uninstall %s: %w", name, err))
	}
	return nil
}

func (h *Handler) Health(ctx context.Context, req provider.Request) (bool, error) {
	cfg, entry, err := h.prepare(req)
	if err != nil {
		return false, err
	}

	rel, err := h.releaser(cfg, entry)
	if err != nil {
		return false, err
	}

	status, exists, err := rel.Status(releaseName(req, cfg))
	if err != nil {
		return false, provider.Transient(err)
	}
	return exists && status == release.StatusDeployed, nil
}

func (h *Handler) prepare(req provider.Request) (addonConfig, Entry, error) {
	var cfg addonConfig
	if err := provider.DecodeConfig(req.Config, &cfg); err != nil {
		return addonConfig{}, Entry{}, err
	}
	if cfg.Chart == "" {
		cfg.Chart = req.Name
	}
	entry, err := resolve(cfg)
	if err != nil {
		return addonConfig{}, Entry{}, provider.Permanent(err)
	}
	return cfg, entry, nil
}

func (h *Handler) releaser(cfg addonConfig, entry Entry) (Releaser, error) {
	if cfg.KubeconfigPath == "" {
		return nil, provider.Permanentf("addon %s needs a kubeconfigPath", entry.Chart)
	}
	kubeconfig, err := os.ReadFile(cfg.KubeconfigPath)
	if err != nil {
		return nil, provider.Permanent(fmt.Errorf("read kubeconfig: %w", err))
	}
	rel, err := newReleaser(kubeconfig, entry.Namespace)
	if err != nil {
		return nil, provider.Transient(err)
	}
	return rel, nil
}

func releaseName(req provider.Request, cfg addonConfig) string {
	if cfg.Release != "" {
		return cfg.Release
	}
	return req.Name
}
