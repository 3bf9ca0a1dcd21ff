// Package spec loads and validates the declarative deployment document.
//
// A document names every desired resource, its kind, its configuration and
// its dependencies by logical name. Loading applies defaults and validates
// syntax; semantic validation (dependency resolution, acyclicity) happens
// when the document is compiled into a resource graph.
package spec
