// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command
// definitions in the commands package. Handlers are framework-agnostic
// and can be tested independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gantry-sh/gantry/internal/graph"
	"github.com/gantry-sh/gantry/internal/logging"
	"github.com/gantry-sh/gantry/internal/provider"
	"github.com/gantry-sh/gantry/internal/provider/addon"
	hcloudprovider "github.com/gantry-sh/gantry/internal/provider/hcloud"
	"github.com/gantry-sh/gantry/internal/reconcile"
	"github.com/gantry-sh/gantry/internal/spec"
	"github.com/gantry-sh/gantry/internal/state"
)

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// findSpecFile locates the default specification file.
	findSpecFile = spec.FindFile

	// loadDocument loads and validates a specification file.
	loadDocument = spec.LoadFile

	// newFileStore opens the local state backend.
	newFileStore = func(dir string) (state.Store, error) {
		return state.NewFileStore(dir)
	}

	// newS3Store opens the object-storage state backend.
	newS3Store = func(ctx context.Context, opts state.S3Options) (state.Store, error) {
		return state.NewS3Store(ctx, opts)
	}

	// newCloudRegistry builds the provider registry for a Hetzner Cloud token.
	newCloudRegistry = func(token string) *provider.Registry {
		reg := provider.NewRegistry()
		hcloudprovider.NewClient(token).Register(reg)
		addon.Register(reg)
		return reg
	}

	// newLogger builds the structured logger.
	newLogger = logging.New

	// getenv reads environment variables (for testing injection).
	getenv = os.Getenv

	// reconcileMetrics registers the reconciliation counters once per
	// process; apply and destroy share them.
	reconcileMetrics = sync.OnceValue(func() *reconcile.Metrics {
		return reconcile.NewMetrics(prometheus.DefaultRegisterer)
	})
)

// loadSpec loads the specification, auto-detecting the file when no
// path is given, and builds the resource graph.
func loadSpec(configPath string) (*spec.Document, *graph.Graph, error) {
	if configPath == "" {
		found, err := findSpecFile()
		if err != nil {
			return nil, nil, err
		}
		configPath = found
	}

	doc, err := loadDocument(configPath)
	if err != nil {
		return nil, nil, err
	}

	g, err := graph.Build(doc)
	if err != nil {
		return nil, nil, err
	}
	return doc, g, nil
}

// openStore opens the state backend selected by the document.
func openStore(ctx context.Context, doc *spec.Document) (state.Store, error) {
	switch doc.State.Backend {
	case "", "local":
		return newFileStore(doc.State.Path)
	case "s3":
		return newS3Store(ctx, state.S3Options{
			Endpoint:  doc.State.S3.Endpoint,
			Region:    doc.State.S3.Region,
			Bucket:    doc.State.S3.Bucket,
			Prefix:    doc.State.S3.Prefix,
			AccessKey: getenv("AWS_ACCESS_KEY_ID"),
			SecretKey: getenv("AWS_SECRET_ACCESS_KEY"),
		})
	default:
		return nil, fmt.Errorf("unknown state backend %q", doc.State.Backend)
	}
}

// buildRegistry wires the cloud provider from the environment.
func buildRegistry() (*provider.Registry, error) {
	token := getenv("HCLOUD_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("HCLOUD_TOKEN is not set")
	}
	return newCloudRegistry(token), nil
}

func buildLogger(verbose bool) logr.Logger {
	log, err := newLogger(verbose)
	if err != nil {
		return logging.Discard()
	}
	return log
}
