package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrNotImplemented", ErrNotImplemented},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrRateLimited", ErrRateLimited},
		{"ErrCorruptData", ErrCorruptData},
		{"ErrDimensionMismatch", ErrDimensionMismatch},
		{"ErrEmbedding", ErrEmbedding},
		{"ErrRetrieval", ErrRetrieval},
		{"ErrGeneration", ErrGeneration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrors_Distinct(t *testing.T) {
	assert.False(t, errors.Is(ErrRetrieval, ErrEmbedding))
	assert.False(t, errors.Is(ErrGeneration, ErrRetrieval))
	assert.False(t, errors.Is(ErrCorruptData, ErrNotFound))
}

// Retrieval errors wrap the embedding error so callers can match either.
func TestErrors_DoubleWrap(t *testing.T) {
	cause := errors.New("model offline")
	err := fmt.Errorf("%w: query %q: %w", ErrRetrieval, "q", fmt.Errorf("%w: %w", ErrEmbedding, cause))

	assert.ErrorIs(t, err, ErrRetrieval)
	assert.ErrorIs(t, err, ErrEmbedding)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "model offline")
}
