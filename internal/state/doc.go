// Package state persists last-known resource identities and their output
// attributes keyed by logical name.
//
// A record's lifecycle state and attributes are always committed together:
// each Save replaces the whole record atomically, so a partial write can
// never leave recorded state inconsistent with recorded attributes.
package state
