package spec

// Document is the top-level deployment specification.
type Document struct {
	// Project names the deployment. It prefixes provider-side resource
	// names and selects the state namespace.
	Project string `yaml:"project"`

	// State selects where reconciliation state is persisted.
	State StateConfig `yaml:"state,omitempty"`

	// Resources declares the desired infrastructure.
	Resources []Resource `yaml:"resources"`
}

// StateConfig selects and configures the state backend.
type StateConfig struct {
	// Backend is "local" (default) or "s3".
	Backend string `yaml:"backend"`

	// Path is the state directory for the local backend.
	Path string `yaml:"path"`

	// S3 configures the object-storage backend.
	S3 S3Config `yaml:"s3,omitempty"`
}

// S3Config holds object-storage settings for remote state.
type S3Config struct {
	Endpoint string `yaml:"endpoint"`
	Region   string `yaml:"region"`
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
}

// Resource declares one desired resource.
type Resource struct {
	// Name is the logical name, unique within the document.
	Name string `yaml:"name"`

	// Kind is one of Network, Role, Cluster, NodeGroup, Addon.
	Kind string `yaml:"kind"`

	// DependsOn lists logical names this resource depends on. References
	// of the form ${name.attr} inside Config imply dependencies as well.
	DependsOn []string `yaml:"dependsOn,omitempty"`

	// Config is the kind-specific desired configuration. String values may
	// reference output attributes of dependencies with ${name.attr}.
	Config map[string]any `yaml:"config,omitempty"`
}
