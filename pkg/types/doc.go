// Package types defines the public vocabulary of the streaming engine:
// asset identifiers and classes, request priorities and statuses, compression
// tags, LOD metadata, typed errors, and the statistics snapshots exposed by
// the controller.
//
// Every other package in this module depends on types; types depends on
// nothing but the standard library. Keep it that way.
package types
