// Package hcloud implements the provider boundary on Hetzner Cloud.
//
// Networks, roles (SSH key identities), cluster control planes and node
// groups map to hcloud resources; all handlers are idempotent get-or-create
// operations keyed by a project-scoped resource name, and hcloud API error
// codes are classified into transient and permanent failures.
package hcloud
