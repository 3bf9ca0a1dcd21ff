package addon

import "fmt"

// Entry pins a chart to a repository, version and default namespace.
type Entry struct {
	Chart     string
	Repo      string
	Version   string
	Namespace string
}

// catalog holds the charts installable by well-known name. A resource
// can still install any chart by spelling out repo and version itself.
var catalog = map[string]Entry{
	"metrics-server": {
		Chart:     "metrics-server",
		Repo:      "https://kubernetes-sigs.github.io/metrics-server",
		Version:   "3.8.2",
		Namespace: "kube-system",
	},
	"cluster-autoscaler": {
		Chart:     "cluster-autoscaler",
		Repo:      "https://kubernetes.github.io/autoscaler",
		Version:   "9.10.7",
		Namespace: "kube-system",
	},
	"external-dns": {
		Chart:     "external-dns",
		Repo:      "https://kubernetes-sigs.github.io/external-dns",
		Version:   "5.4.6",
		Namespace: "kube-system",
	},
	"cert-manager": {
		Chart:     "cert-manager",
		Repo:      "https://charts.jetstack.io",
		Version:   "v1.7.1",
		Namespace: "cert-manager",
	},
	"ingress-nginx": {
		Chart:     "ingress-nginx",
		Repo:      "https://kubernetes.github.io/ingress-nginx",
		Version:   "4.11.1",
		Namespace: "ingress-nginx",
	},
	"csi-driver": {
		Chart:     "hcloud-csi",
		Repo:      "https://charts.hetzner.cloud",
		Version:   "2.9.0",
		Namespace: "kube-system",
	},
}

// Lookup returns the catalog entry for a well-known addon name.
func Lookup(name string) (Entry, bool) {
	e, ok := catalog[name]
	return e, ok
}

// CatalogNames lists the well-known addon names in no particular order.
func CatalogNames() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	return names
}

// resolve builds the effective entry for an addon config. A known chart
// name fills in repo, version and namespace; overrides from the config
// win. Unknown charts must spell out repo and version.
func resolve(cfg addonConfig) (Entry, error) {
	entry, known := Lookup(cfg.Chart)
	if !known {
		entry = Entry{Chart: cfg.Chart, Namespace: "default"}
	}
	if cfg.Repo != "" {
		entry.Repo = cfg.Repo
	}
	if cfg.Version != "" {
		entry.Version = cfg.Version
	}
	if cfg.Namespace != "" {
		entry.Namespace = cfg.Namespace
	}
	if entry.Repo == "" {
		return Entry{}, fmt.Errorf("chart %q is not in the catalog and no repo is configured", cfg.Chart)
	}
	if entry.Version == "" {
		return Entry{}, fmt.Errorf("chart %q is not in the catalog and no version is configured", cfg.Chart)
	}
	return entry, nil
}
