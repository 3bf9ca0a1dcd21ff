// Package addon installs cluster addons as Helm releases.
package addon

import (
	"context"
	"fmt"
	"os"
	"time"

	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
	"helm.sh/helm/v3/pkg/getter"
	"helm.sh/helm/v3/pkg/release"
	"helm.sh/helm/v3/pkg/repo"
)

// Releaser is the Helm surface the addon handler needs. The fake in the
// tests implements it without a live cluster.
type Releaser interface {
	InstallOrUpgrade(ctx context.Context, rel string, entry Entry, values map[string]any) (*release.Release, error)
	Uninstall(rel string) error
	Status(rel string) (release.Status, bool, error)
}

// helmClient drives Helm actions against a cluster reached through
// in-memory kubeconfig bytes.
type helmClient struct {
	namespace    string
	actionConfig *action.Configuration
}

func newHelmClient(kubeconfig []byte, namespace string) (*helmClient, error) {
	cfg := new(action.Configuration)
	getter := newKubeConfigGetter(kubeconfig, namespace)
	if err := cfg.Init(getter, namespace, "secret", func(string, ...interface{}) {}); err != nil {
		return nil, fmt.Errorf("init helm configuration: %w", err)
	}
	return &helmClient{namespace: namespace, actionConfig: cfg}, nil
}

func (c *helmClient) InstallOrUpgrade(ctx context.Context, rel string, entry Entry, values map[string]any) (*release.Release, error) {
	hist := action.NewHistory(c.actionConfig)
	hist.Max = 1
	if _, err := hist.Run(rel); err != nil {
		return c.install(ctx, rel, entry, values)
	}
	return c.upgrade(ctx, rel, entry, values)
}

func (c *helmClient) install(ctx context.Context, rel string, entry Entry, values map[string]any) (*release.Release, error) {
	install := action.NewInstall(c.actionConfig)
	install.ReleaseName = rel
	install.Namespace = c.namespace
	install.CreateNamespace = true
	install.Version = entry.Version
	install.Wait = true
	install.Timeout = 10 * time.Minute

	ch, err := c.loadChart(entry)
	if err != nil {
		return nil, err
	}
	return install.RunWithContext(ctx, ch, values)
}

func (c *helmClient) upgrade(ctx context.Context, rel string, entry Entry, values map[string]any) (*release.Release, error) {
	upgrade := action.NewUpgrade(c.actionConfig)
	upgrade.Namespace = c.namespace
	upgrade.Version = entry.Version
	upgrade.Wait = true
	upgrade.Timeout = 10 * time.Minute
	upgrade.ReuseValues = false

	ch, err := c.loadChart(entry)
	if err != nil {
		return nil, err
	}
	return upgrade.RunWithContext(ctx, rel, ch, values)
}

func (c *helmClient) loadChart(entry Entry) (*chart.Chart, error) {
	settings := cli.New()
	path, err := repo.FindChartInRepoURL(entry.Repo, entry.Chart, entry.Version, "", "", "", getter.All(settings))
	if err != nil {
		return nil, fmt.Errorf("find chart %s in %s: %w", entry.Chart, entry.Repo, err)
	}
	defer func() { _ = os.Remove(path) }()
	return loader.Load(path)
}

func (c *helmClient) Uninstall(rel string) error {
	uninstall := action.NewUninstall(c.actionConfig)
	uninstall.Wait = true
	uninstall.Timeout = 5 * time.Minute
	if _, err := uninstall.Run(rel); err != nil {
		return err
	}
	return nil
}

// Status reports the release status and whether the release exists.
func (c *helmClient) Status(rel string) (release.Status, bool, error) {
	hist := action.NewHistory(c.actionConfig)
	hist.Max = 1
	releases, err := hist.Run(rel)
	if err != nil || len(releases) == 0 {
		return release.StatusUnknown, false, nil
	}
	return releases[0].Info.Status, true, nil
}
