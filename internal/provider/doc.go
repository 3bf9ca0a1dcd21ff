// Package provider is the boundary to cloud and Kubernetes APIs.
//
// Every mutating call is idempotent: Ensure converges a resource toward its
// desired configuration and returns its output attributes, TearDown removes
// it and succeeds if it is already gone. Errors carry a transient/permanent
// classification that drives the reconciler's retry decision.
package provider
