/*
	Package convert orchestrates a conversion: it plans the pyramid for
	every series, schedules bounded-concurrency chunk writes level by
	level, and finalizes the multiscale metadata.
*/
package convert

import (
	"fmt"
	"runtime"

	"github.com/janelia-flyem/zarrgen/zarrgen"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultTileSize is the chunk extent along X and Y when none is given.
	DefaultTileSize = 1024

	// DefaultFactor is the X/Y downsampling between resolution levels.
	DefaultFactor = 2

	// DefaultScaleFormat renders dataset paths as "<series>/<level>".
	DefaultScaleFormat = "%[1]s/%[2]s"

	// DefaultCacheBytes bounds the in-memory plane cache used to feed
	// downsampling without re-reading the store.
	DefaultCacheBytes = 256 * 1024 * 1024
)

// Config is the immutable set of conversion settings.  A zero Config is
// filled in with defaults by Validate.
type Config struct {
	TileWidth  int64 `toml:"tile_width"`
	TileHeight int64 `toml:"tile_height"`

	// DownsampleFactor divides X/Y extents between adjacent levels.
	DownsampleFactor int `toml:"downsample_factor"`

	// DimOrder overrides the dimension order reported by the source.
	// Empty means use the source's order.
	DimOrder zarrgen.DimOrder `toml:"dimension_order"`

	// ScaleFormat renders each level's dataset path via positional verbs:
	// argument 1 is the series index, 2 the level, and 3+ come from the
	// optional lookup table row for the series.
	ScaleFormat string `toml:"scale_format"`

	// ScaleFormatCSV is a CSV file supplying extra ScaleFormat arguments,
	// one row per series.
	ScaleFormatCSV string `toml:"scale_format_csv"`

	// MaxWorkers bounds concurrent chunk writes and therefore peak
	// in-flight pixel buffers.
	MaxWorkers int `toml:"max_workers"`

	// CacheBytes sizes the retained-plane cache.
	CacheBytes int `toml:"cache_bytes"`

	// SkipExisting skips chunks already present in the store, allowing
	// an interrupted conversion to resume.
	SkipExisting bool `toml:"skip_existing"`

	// Name is recorded in each series' multiscale metadata.
	Name string `toml:"name"`
}

// Validate fills defaults and rejects settings the planner or mapper
// could not honor.  It must pass before any planning or writing begins.
func (c *Config) Validate() error {
	if c.TileWidth == 0 {
		c.TileWidth = DefaultTileSize
	}
	if c.TileHeight == 0 {
		c.TileHeight = DefaultTileSize
	}
	if c.TileWidth < 1 || c.TileHeight < 1 {
		return zarrgen.ConfigurationError{
			Setting: "tile size",
			Reason:  fmt.Sprintf("%dx%d tiles must be positive", c.TileWidth, c.TileHeight),
		}
	}
	if c.DownsampleFactor == 0 {
		c.DownsampleFactor = DefaultFactor
	}
	if c.DownsampleFactor < 2 {
		return zarrgen.ConfigurationError{
			Setting: "downsample factor",
			Reason:  fmt.Sprintf("factor %d must be at least 2", c.DownsampleFactor),
		}
	}
	if c.DimOrder != "" {
		if err := c.DimOrder.Validate(); err != nil {
			return zarrgen.ConfigurationError{Setting: "dimension order", Reason: err.Error()}
		}
	}
	if c.ScaleFormat == "" {
		c.ScaleFormat = DefaultScaleFormat
	}
	if c.MaxWorkers == 0 {
		c.MaxWorkers = runtime.NumCPU()
	}
	if c.MaxWorkers < 1 {
		return zarrgen.ConfigurationError{
			Setting: "max workers",
			Reason:  fmt.Sprintf("%d workers must be positive", c.MaxWorkers),
		}
	}
	if c.CacheBytes == 0 {
		c.CacheBytes = DefaultCacheBytes
	}
	return nil
}

// FileConfig is the optional TOML configuration file.
type FileConfig struct {
	Conversion Config            `toml:"conversion"`
	Logging    zarrgen.LogConfig `toml:"logging"`
}

// LoadConfig reads a TOML configuration file.
func LoadConfig(path string) (*FileConfig, error) {
	var fc FileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return nil, fmt.Errorf("can't read config file %q: %v", path, err)
	}
	return &fc, nil
}
