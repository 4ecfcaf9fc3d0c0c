// Package domain defines the core business entities for Harvest.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Collection: A configured synchronisation job
//   - Run: One execution attempt of a collection
//   - RunError: A failure record attached to a run
//   - Document: The normalised output unit produced by adapters
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
