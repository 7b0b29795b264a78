// Package domain defines the core business entities for intellidocs.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded file, its lifecycle status and summary history
//   - Chunk: A citable span of a document's text
//   - VectorRecord / VectorHit: Vector store rows and ranked results
//   - QARecord: An answered question with citations
//
// The status state machine, the version pointer and the shared similarity
// ranking live here so every adapter applies the same rules.
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
