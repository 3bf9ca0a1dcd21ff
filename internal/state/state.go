package state

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gantry-sh/gantry/internal/graph"
)

// Record is the persisted state of one resource, keyed by logical name.
type Record struct {
	Name       string         `json:"name"`
	Kind       graph.Kind     `json:"kind"`
	State      graph.State    `json:"state"`
	ConfigHash string         `json:"configHash"`
	Outputs    map[string]any `json:"outputs,omitempty"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	LastError  string         `json:"lastError,omitempty"`
}

// Store persists records. Save replaces the record for its logical name
// atomically; concurrent saves for different names do not conflict.
type Store interface {
	// Load returns all records keyed by logical name.
	Load(ctx context.Context) (map[string]Record, error)

	// Get returns the record for a logical name, with ok=false when absent.
	Get(ctx context.Context, name string) (Record, bool, error)

	// Save writes the record for rec.Name, replacing any previous record.
	Save(ctx context.Context, rec Record) error

	// Delete removes the record for a logical name. Deleting an absent
	// record is not an error.
	Delete(ctx context.Context, name string) error
}

// StoreError indicates the store itself failed. State integrity can no
// longer be guaranteed, so reconciliation aborts on it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("state store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsStoreError reports whether err originates from the state store.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// HashConfig returns a stable hash of a desired configuration. JSON
// marshalling sorts map keys, so equal configurations hash equally.
func HashConfig(cfg map[string]any) string {
	data, err := json.Marshal(cfg)
	if err != nil {
		// Configs come from YAML and are marshallable; a failure here
		// means a diff on every run, never silent equality.
		return fmt.Sprintf("unhashable:%v", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
