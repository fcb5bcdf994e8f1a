/*
	Package zarrstore implements the storage.Store interface on top of a
	zarr v2 directory layout held in a gocloud.dev blob bucket.  Local
	output directories use the fileblob driver; tests use memblob; any
	other registered blob scheme works unchanged.
*/
package zarrstore

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/janelia-flyem/zarrgen/storage"
	"github.com/janelia-flyem/zarrgen/zarrgen"

	"github.com/blang/semver"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
)

// Engine describes this store implementation.
type Engine struct {
	name   string
	desc   string
	semver semver.Version
}

// NewEngine returns the zarrstore engine descriptor.
func NewEngine() Engine {
	ver, err := semver.Make("0.1.0")
	if err != nil {
		zarrgen.Errorf("Unable to make semver in zarrstore: %v\n", err)
	}
	return Engine{"zarrstore", "Zarr v2 chunked array store", ver}
}

func (e Engine) GetName() string {
	return e.name
}

func (e Engine) GetDescription() string {
	return e.desc
}

func (e Engine) GetSemVer() semver.Version {
	return e.semver
}

func (e Engine) String() string {
	return fmt.Sprintf("%s [%s]", e.name, e.semver)
}

// Config holds the chunk codec settings for a zarr store.
type Config struct {
	Compression zarrgen.Compression
	Checksum    zarrgen.Checksum
}

// Store writes a zarr v2 hierarchy into a blob bucket.
type Store struct {
	ref    string
	bucket *blob.Bucket
	config Config
}

// Open returns a zarr store at the given reference.  A reference with a
// URL scheme (e.g. "mem://") is opened through the blob URL mux; anything
// else is treated as a local directory and created if missing.
func Open(ctx context.Context, ref string, config Config) (*Store, error) {
	var bucket *blob.Bucket
	var err error
	if strings.Contains(ref, "://") {
		bucket, err = blob.OpenBucket(ctx, ref)
	} else {
		bucket, err = fileblob.OpenBucket(ref, &fileblob.Options{CreateDir: true})
	}
	if err != nil {
		return nil, fmt.Errorf("can't open zarr store @ %q: %v", ref, err)
	}
	zarrgen.Infof("Opened zarr store @ %q with %s\n", ref, config.Compression)
	return New(bucket, ref, config), nil
}

// New returns a zarr store on an already opened bucket.
func New(bucket *blob.Bucket, ref string, config Config) *Store {
	return &Store{ref: ref, bucket: bucket, config: config}
}

func (s *Store) String() string {
	return fmt.Sprintf("zarr store @ %s", s.ref)
}

func (s *Store) key(groupPath, name string) string {
	if groupPath == "" {
		return name
	}
	return path.Join(groupPath, name)
}

func (s *Store) writeJSON(ctx context.Context, key string, doc interface{}) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return s.bucket.WriteAll(ctx, key, data, nil)
}

// ---- storage.Store interface ----

func (s *Store) CreateGroup(ctx context.Context, groupPath string) error {
	doc := map[string]int{"zarr_format": 2}
	return s.writeJSON(ctx, s.key(groupPath, ".zgroup"), doc)
}

func (s *Store) SetAttributes(ctx context.Context, groupPath string, attrs interface{}) error {
	return s.writeJSON(ctx, s.key(groupPath, ".zattrs"), attrs)
}

// zarray is the zarr v2 .zarray document.
type zarray struct {
	Shape      []int64     `json:"shape"`
	Chunks     []int64     `json:"chunks"`
	DType      string      `json:"dtype"`
	Compressor *compressor `json:"compressor"`
	FillValue  int         `json:"fill_value"`
	Order      string      `json:"order"`
	Filters    interface{} `json:"filters"`
	ZarrFormat int         `json:"zarr_format"`
}

// compressor records the zarrgen chunk framing (compression + checksum
// tag, see zarrgen.SerializeData) so readers can undo it.
type compressor struct {
	ID          string `json:"id"`
	Compression string `json:"compression"`
	Checksum    string `json:"checksum"`
}

func (s *Store) CreateArray(ctx context.Context, arrayPath string, attrs storage.ArrayAttrs) error {
	doc := zarray{
		Shape:      attrs.Shape[:],
		Chunks:     attrs.Chunks[:],
		DType:      attrs.PixelType.Descr(),
		Compressor: &compressor{"zarrgen", s.config.Compression.String(), s.config.Checksum.String()},
		Order:      "C",
		ZarrFormat: 2,
	}
	return s.writeJSON(ctx, s.key(arrayPath, ".zarray"), doc)
}

func chunkName(coord zarrgen.ChunkPoint5d) string {
	return fmt.Sprintf("%d.%d.%d.%d.%d", coord[0], coord[1], coord[2], coord[3], coord[4])
}

func (s *Store) WriteChunk(ctx context.Context, arrayPath string, coord zarrgen.ChunkPoint5d, pixels []byte) error {
	serialization, err := zarrgen.SerializeData(pixels, s.config.Compression, s.config.Checksum)
	if err != nil {
		return err
	}
	// Blob writes only become visible on successful Close inside WriteAll,
	// so a failed write leaves no chunk behind.
	return s.bucket.WriteAll(ctx, s.key(arrayPath, chunkName(coord)), serialization, nil)
}

func (s *Store) ReadChunk(ctx context.Context, arrayPath string, coord zarrgen.ChunkPoint5d) ([]byte, error) {
	serialization, err := s.bucket.ReadAll(ctx, s.key(arrayPath, chunkName(coord)))
	if err != nil {
		return nil, err
	}
	data, _, err := zarrgen.DeserializeData(serialization, true)
	return data, err
}

func (s *Store) ChunkExists(ctx context.Context, arrayPath string, coord zarrgen.ChunkPoint5d) (bool, error) {
	return s.bucket.Exists(ctx, s.key(arrayPath, chunkName(coord)))
}

func (s *Store) Close() error {
	return s.bucket.Close()
}
