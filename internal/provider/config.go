package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeConfig decodes a resource's desired configuration into a typed
// struct. Unknown keys are rejected rather than passed through silently;
// a typo in a spec should fail loudly, not vanish.
func DecodeConfig(cfg map[string]any, out any) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return Permanentf("invalid configuration: %v", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return Permanent(fmt.Errorf("invalid configuration: %w", err))
	}
	return nil
}
