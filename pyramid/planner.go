/*
	Package pyramid computes the resolution levels and chunk grids for a
	series, and builds the multiscale metadata document describing them.
*/
package pyramid

import (
	"fmt"

	"github.com/janelia-flyem/zarrgen/zarrgen"
)

// Level is one resolution level of a series.  Level 0 is full resolution;
// level k has X/Y extents ceil(previous/factor).  Chunking is 2d over X/Y
// only: the Z/C/T chunk extents are always 1, one plane per chunk.
type Level struct {
	Index      int
	Dims       zarrgen.Shape5d
	ChunkShape zarrgen.Shape5d
}

func (l Level) String() string {
	return fmt.Sprintf("level %d: dims %s, chunks %s", l.Index, l.Dims, l.ChunkShape)
}

// Plan returns the ordered resolution levels for a series with the given
// full-resolution dimensions.  Tile extents larger than the image are
// clamped to its X/Y extents so the top level is never tiled beyond the
// image.  Levels are generated until both X and Y fit within one tile;
// that terminal level is included.
func Plan(dims zarrgen.Shape5d, tileWidth, tileHeight int64, factor int) ([]Level, error) {
	for axis, d := range dims {
		if d < 1 {
			return nil, zarrgen.ConfigurationError{
				Setting: "dimensions",
				Reason:  fmt.Sprintf("axis %d of %s is not positive", axis, dims),
			}
		}
	}
	if tileWidth < 1 || tileHeight < 1 {
		return nil, zarrgen.ConfigurationError{
			Setting: "tile size",
			Reason:  fmt.Sprintf("%dx%d tiles must be positive", tileWidth, tileHeight),
		}
	}
	if factor < 2 {
		return nil, zarrgen.ConfigurationError{
			Setting: "downsample factor",
			Reason:  fmt.Sprintf("factor %d must be at least 2", factor),
		}
	}

	if tileWidth > dims[zarrgen.AxisX] {
		tileWidth = dims[zarrgen.AxisX]
	}
	if tileHeight > dims[zarrgen.AxisY] {
		tileHeight = dims[zarrgen.AxisY]
	}

	chunkShape := zarrgen.Shape5d{tileWidth, tileHeight, 1, 1, 1}
	x, y := dims[zarrgen.AxisX], dims[zarrgen.AxisY]
	levels := []Level{{
		Index:      0,
		Dims:       dims,
		ChunkShape: chunkShape,
	}}
	for x > tileWidth || y > tileHeight {
		x = ceilDiv(x, int64(factor))
		y = ceilDiv(y, int64(factor))
		levelDims := dims
		levelDims[zarrgen.AxisX] = x
		levelDims[zarrgen.AxisY] = y
		levels = append(levels, Level{
			Index:      len(levels),
			Dims:       levelDims,
			ChunkShape: chunkShape,
		})
	}
	return levels, nil
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

// GridSize returns how many chunks tile each axis of this level.
func (l Level) GridSize() zarrgen.ChunkPoint5d {
	var grid zarrgen.ChunkPoint5d
	for axis := 0; axis < zarrgen.NumAxes; axis++ {
		grid[axis] = int32(ceilDiv(l.Dims[axis], l.ChunkShape[axis]))
	}
	return grid
}

// ChunkExtent returns the offset and clipped size of the chunk at the
// given grid coordinate.  The final chunk along an axis only covers the
// remainder of the level, never padding past the image.
func (l Level) ChunkExtent(coord zarrgen.ChunkPoint5d) (offset, size zarrgen.Shape5d, err error) {
	grid := l.GridSize()
	for axis := 0; axis < zarrgen.NumAxes; axis++ {
		if coord[axis] < 0 || coord[axis] >= grid[axis] {
			err = fmt.Errorf("chunk %s outside grid %s of %s", coord, grid, l)
			return
		}
		offset[axis] = int64(coord[axis]) * l.ChunkShape[axis]
		size[axis] = l.ChunkShape[axis]
		if offset[axis]+size[axis] > l.Dims[axis] {
			size[axis] = l.Dims[axis] - offset[axis]
		}
	}
	return
}
