package spec

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the document looked up when no path is given.
const DefaultFile = "gantry.yaml"

var namePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// LoadFile reads and parses the deployment document from a YAML file.
func LoadFile(path string) (*Document, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}
	return Parse(data)
}

// Parse parses a deployment document from YAML bytes, applies defaults and
// validates syntax.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	doc.applyDefaults()

	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("spec validation failed: %w", err)
	}
	return &doc, nil
}

// FindFile returns the default document path if it exists in the current
// directory.
func FindFile() (string, error) {
	if _, err := os.Stat(DefaultFile); err != nil {
		return "", fmt.Errorf("%s not found: %w", DefaultFile, err)
	}
	return DefaultFile, nil
}

func (d *Document) applyDefaults() {
	if d.State.Backend == "" {
		d.State.Backend = "local"
	}
	if d.State.Path == "" {
		d.State.Path = ".gantry/state"
	}
	if d.State.S3.Prefix == "" {
		d.State.S3.Prefix = "state"
	}
}

// Validate checks document syntax: project name, resource names, duplicate
// names and state backend selection.
func (d *Document) Validate() error {
	if d.Project == "" {
		return fmt.Errorf("project must be set")
	}
	if !namePattern.MatchString(d.Project) {
		return fmt.Errorf("project %q must be a lowercase DNS-style label", d.Project)
	}

	switch d.State.Backend {
	case "local":
	case "s3":
		if d.State.S3.Bucket == "" {
			return fmt.Errorf("state.s3.bucket must be set for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown state backend %q (expected local or s3)", d.State.Backend)
	}

	if len(d.Resources) == 0 {
		return fmt.Errorf("at least one resource must be declared")
	}

	seen := make(map[string]struct{}, len(d.Resources))
	for i, r := range d.Resources {
		if r.Name == "" {
			return fmt.Errorf("resource %d: name must be set", i)
		}
		if !namePattern.MatchString(r.Name) {
			return fmt.Errorf("resource %q: name must be a lowercase DNS-style label", r.Name)
		}
		if _, dup := seen[r.Name]; dup {
			return fmt.Errorf("duplicate resource name %q", r.Name)
		}
		seen[r.Name] = struct{}{}

		if r.Kind == "" {
			return fmt.Errorf("resource %q: kind must be set", r.Name)
		}
	}
	return nil
}
