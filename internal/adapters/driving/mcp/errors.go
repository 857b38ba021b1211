// Package mcp provides an MCP (Model Context Protocol) server adapter for docrag.
// It lets AI assistants retrieve grounded context and answers from the indexed corpus.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
