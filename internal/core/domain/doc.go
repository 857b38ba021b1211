// Package domain defines the core business entities for docrag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: an immutable unit of indexed text with source attribution
//   - RetrievalResult: a chunk matched by a query, with its similarity score
//   - Reference: a deduplicated citation of a document location
//   - AnswerPackage: a grounded answer with its references
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
