package hcloud

import (
	"context"
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/gantry-sh/gantry/internal/provider"
	"github.com/gantry-sh/gantry/internal/util/keygen"
)

// roleConfig is the recognized configuration of a Role resource. On
// Hetzner Cloud the identity primitive attached to compute is the SSH
// key; a role with no publicKey gets a generated ed25519 pair.
type roleConfig struct {
	PublicKey string `json:"publicKey"`
	Comment   string `json:"comment"`
}

type roleHandler struct {
	client *hcloud.Client
}

// Ensure registers the role's SSH key, generating a key pair when none is
// configured. Outputs include the private key only when it was generated
// here; callers are expected to persist it out of band.
func (h *roleHandler) Ensure(ctx context.Context, req provider.Request) (provider.Outputs, error) {
	var cfg roleConfig
	if err := provider.DecodeConfig(req.Config, &cfg); err != nil {
		return nil, err
	}

	name := resourceName(req)

	existing, _, err := h.client.SSHKey.GetByName(ctx, name)
	if err != nil {
		return nil, classify(err)
	}
	if existing != nil {
		return roleOutputs(existing, nil), nil
	}

	publicKey := cfg.PublicKey
	var generated *keygen.KeyPair
	if publicKey == "" {
		comment := cfg.Comment
		if comment == "" {
			comment = name
		}
		generated, err = keygen.GenerateED25519(comment)
		if err != nil {
			return nil, provider.Permanent(err)
		}
		publicKey = string(generated.PublicKey)
	}

	key, _, err := h.client.SSHKey.Create(ctx, hcloud.SSHKeyCreateOpts{
		Name:      name,
		PublicKey: publicKey,
		Labels:    labels(req),
	})
	if err != nil {
		return nil, classify(err)
	}
	return roleOutputs(key, generated), nil
}

func roleOutputs(key *hcloud.SSHKey, generated *keygen.KeyPair) provider.Outputs {
	out := provider.Outputs{
		"id":          fmt.Sprintf("%d", key.ID),
		"fingerprint": key.Fingerprint,
		"publicKey":   key.PublicKey,
	}
	if generated != nil {
		out["privateKey"] = string(generated.PrivateKey)
	}
	return out
}

// TearDown removes the SSH key; an absent key is a success.
func (h *roleHandler) TearDown(ctx context.Context, req provider.Request) error {
	key, _, err := h.client.SSHKey.GetByName(ctx, resourceName(req))
	if err != nil {
		return classify(err)
	}
	if key == nil {
		return nil
	}
	if _, err := h.client.SSHKey.Delete(ctx, key); err != nil {
		if isNotFound(err) {
			return nil
		}
		return classify(err)
	}
	return nil
}

// Health reports whether the SSH key still exists.
func (h *roleHandler) Health(ctx context.Context, req provider.Request) (bool, error) {
	key, _, err := h.client.SSHKey.GetByName(ctx, resourceName(req))
	if err != nil {
		return false, classify(err)
	}
	return key != nil, nil
}
