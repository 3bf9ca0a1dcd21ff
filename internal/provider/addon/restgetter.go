package addon

import (
	"sync"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"
)

// kubeConfigGetter satisfies genericclioptions.RESTClientGetter from raw
// kubeconfig bytes so no kubeconfig file has to exist on disk.
type kubeConfigGetter struct {
	kubeconfig []byte
	namespace  string

	once       sync.Once
	restConfig *rest.Config
	restErr    error
}

func newKubeConfigGetter(kubeconfig []byte, namespace string) *kubeConfigGetter {
	return &kubeConfigGetter{kubeconfig: kubeconfig, namespace: namespace}
}

func (g *kubeConfigGetter) ToRESTConfig() (*rest.Config, error) {
	g.once.Do(func() {
		clientConfig, err := clientcmd.NewClientConfigFromBytes(g.kubeconfig)
		if err != nil {
			g.restErr = err
			return
		}
		g.restConfig, g.restErr = clientConfig.ClientConfig()
	})
	return g.restConfig, g.restErr
}

func (g *kubeConfigGetter) ToDiscoveryClient() (discovery.CachedDiscoveryInterface, error) {
	cfg, err := g.ToRESTConfig()
	if err != nil {
		return nil, err
	}
	dc, err := discovery.NewDiscoveryClientForConfig(cfg)
	if err != nil {
		return nil, err
	}
	return memory.NewMemCacheClient(dc), nil
}

func (g *kubeConfigGetter) ToRESTMapper() (meta.RESTMapper, error) {
	dc, err := g.ToDiscoveryClient()
	if err != nil {
		return nil, err
	}
	return restmapper.NewDeferredDiscoveryRESTMapper(dc), nil
}

func (g *kubeConfigGetter) ToRawKubeConfigLoader() clientcmd.ClientConfig {
	clientConfig, _ := clientcmd.NewClientConfigFromBytes(g.kubeconfig)
	return clientConfig
}
