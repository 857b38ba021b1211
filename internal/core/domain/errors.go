package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity or artifact does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Answer generation is disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Retrieval is impossible without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRateLimited indicates a backend rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Corpus Errors.

	// ErrCorruptData indicates an index or metadata artifact could not be
	// parsed, or the two are not aligned. Fatal at startup.
	ErrCorruptData = errors.New("corrupt data")

	// ErrDimensionMismatch indicates the embedding model produces vectors of a
	// different size than the loaded index. Fatal at startup.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// Pipeline Errors.

	// ErrEmbedding indicates the embedding backend failed for a given input.
	ErrEmbedding = errors.New("embedding failed")

	// ErrRetrieval indicates retrieval failed while embedding or searching.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrGeneration indicates the generation backend failed.
	ErrGeneration = errors.New("generation failed")
)
