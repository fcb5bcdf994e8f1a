/*
	Package storage defines the capability interface for the chunked-array
	store a conversion writes into.  The converter decides chunk shapes,
	paths, and pixel content; a Store owns the on-disk (or in-cloud)
	layout and chunk codec.
*/
package storage

import (
	"context"

	"github.com/janelia-flyem/zarrgen/zarrgen"
)

// ArrayAttrs describes one resolution level's array within the store.
// Shape and Chunks are already permuted into the output dimension order.
type ArrayAttrs struct {
	Shape     zarrgen.Shape5d
	Chunks    zarrgen.Shape5d
	PixelType zarrgen.PixelType
}

// Store is the set of operations a conversion needs from its output
// container.  Implementations must be safe for concurrent calls on
// disjoint paths; the converter never writes the same chunk twice.
type Store interface {
	// CreateGroup ensures a group exists at the given path.  The empty
	// path is the store root.
	CreateGroup(ctx context.Context, path string) error

	// SetAttributes attaches a JSON-serializable document to a group.
	SetAttributes(ctx context.Context, path string, attrs interface{}) error

	// CreateArray creates the array metadata for one resolution level.
	CreateArray(ctx context.Context, path string, attrs ArrayAttrs) error

	// WriteChunk persists the pixel bytes of one chunk.  The write either
	// fully succeeds or leaves no chunk at the path.
	WriteChunk(ctx context.Context, path string, coord zarrgen.ChunkPoint5d, pixels []byte) error

	// ReadChunk returns the pixel bytes of a previously written chunk.
	ReadChunk(ctx context.Context, path string, coord zarrgen.ChunkPoint5d) ([]byte, error)

	// ChunkExists reports whether a chunk was already written, allowing
	// idempotent resume of an interrupted conversion.
	ChunkExists(ctx context.Context, path string, coord zarrgen.ChunkPoint5d) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}
