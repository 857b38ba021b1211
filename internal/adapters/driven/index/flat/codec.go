package flat

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/viant/bintly"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// Artifact header values.
const (
	magic         = "DOCRAG-FLAT"
	formatVersion = 1
	metricL2      = "l2"
)

// float32Size is the smallest encoded size of one vector component.
const float32Size = 4

// EncodeBinary writes the index to stream.
func (idx *Index) EncodeBinary(stream *bintly.Writer) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	stream.String(magic)
	stream.Int(formatVersion)
	stream.String(metricL2)
	stream.Int(idx.dimensions)
	stream.Int(len(idx.vectors) / idx.dimensions)
	for _, v := range idx.vectors {
		stream.Float32(v)
	}
	return nil
}

// DecodeBinary reads an index previously written by EncodeBinary.
func (idx *Index) DecodeBinary(stream *bintly.Reader) error {
	var header string
	stream.String(&header)
	if header != magic {
		return fmt.Errorf("%w: not a flat index (header %q)", domain.ErrCorruptData, header)
	}

	var version int
	stream.Int(&version)
	if version != formatVersion {
		return fmt.Errorf("%w: unsupported index version %d", domain.ErrCorruptData, version)
	}

	var metric string
	stream.String(&metric)
	if metric != metricL2 {
		return fmt.Errorf("%w: unsupported metric %q", domain.ErrCorruptData, metric)
	}

	var dimensions, count int
	stream.Int(&dimensions)
	stream.Int(&count)
	if dimensions <= 0 || count < 0 {
		return fmt.Errorf("%w: invalid shape %dx%d", domain.ErrCorruptData, count, dimensions)
	}
	if idx.decodeLimit > 0 && count > idx.decodeLimit/dimensions {
		return fmt.Errorf("%w: index truncated, header declares %dx%d", domain.ErrCorruptData, count, dimensions)
	}

	vectors := make([]float32, count*dimensions)
	for i := range vectors {
		stream.Float32(&vectors[i])
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.dimensions = dimensions
	idx.vectors = vectors
	return nil
}

// Marshal encodes the index.
func (idx *Index) Marshal() ([]byte, error) {
	writers := bintly.NewWriters()
	writer := writers.Get()
	defer writers.Put(writer)

	if err := idx.EncodeBinary(writer); err != nil {
		return nil, err
	}
	return append([]byte(nil), writer.Bytes()...), nil
}

// Unmarshal decodes an index. Truncated or malformed input yields
// domain.ErrCorruptData.
func Unmarshal(data []byte) (idx *Index, err error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty index", domain.ErrCorruptData)
	}

	defer func() {
		if r := recover(); r != nil {
			idx = nil
			err = fmt.Errorf("%w: decode index: %v", domain.ErrCorruptData, r)
		}
	}()

	readers := bintly.NewReaders()
	reader := readers.Get()
	defer readers.Put(reader)
	if err := reader.FromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCorruptData, err)
	}

	idx = &Index{decodeLimit: len(data) / float32Size}
	if err := idx.DecodeBinary(reader); err != nil {
		return nil, err
	}
	idx.decodeLimit = 0
	return idx, nil
}

// Save writes the index to path, creating parent directories.
func (idx *Index) Save(path string) error {
	data, err := idx.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // G306: index files are not secret
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// Load reads an index from path.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: index %s", domain.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", path, err)
	}

	idx, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("load index %s: %w", path, err)
	}
	return idx, nil
}
