package convert

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/janelia-flyem/zarrgen/downres"
	"github.com/janelia-flyem/zarrgen/pyramid"
	"github.com/janelia-flyem/zarrgen/reader"
	"github.com/janelia-flyem/zarrgen/storage"
	"github.com/janelia-flyem/zarrgen/zarrgen"

	"github.com/coocood/freecache"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

// State is where a series currently sits in its conversion.
type State uint8

const (
	Planning State = iota
	Writing
	Finalizing
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Planning:
		return "planning"
	case Writing:
		return "writing"
	case Finalizing:
		return "finalizing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("unknown state (%d)", uint8(s))
	}
}

// SeriesStatus is the progress of one series.
type SeriesStatus struct {
	State State
	Level int
}

// Converter drives one conversion from a source reader into a chunked
// multi-resolution store.
type Converter struct {
	cfg    Config
	reader reader.Reader
	store  storage.Store
	mapper *Mapper

	// cache retains recently produced planes so downsampling the next
	// level doesn't have to re-read chunks from the store.  Evicted
	// planes are reassembled from the store instead.
	cache *freecache.Cache

	mu     sync.Mutex
	status []SeriesStatus
}

// New validates the configuration and path template, both before any
// writing begins, and returns a ready Converter.
func New(cfg Config, rdr reader.Reader, store storage.Store) (*Converter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mapper, err := NewMapper(cfg.ScaleFormat, cfg.ScaleFormatCSV)
	if err != nil {
		return nil, err
	}
	if err := mapper.Validate(rdr.SeriesCount()); err != nil {
		return nil, err
	}
	return &Converter{
		cfg:    cfg,
		reader: rdr,
		store:  store,
		mapper: mapper,
		cache:  freecache.NewCache(cfg.CacheBytes),
		status: make([]SeriesStatus, rdr.SeriesCount()),
	}, nil
}

// Status returns the progress of one series.
func (c *Converter) Status(series int) SeriesStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status[series]
}

func (c *Converter) setStatus(series int, state State, level int) {
	c.mu.Lock()
	c.status[series] = SeriesStatus{state, level}
	c.mu.Unlock()
}

// setFailed marks a series failed, keeping the level it failed at.
func (c *Converter) setFailed(series int) {
	c.mu.Lock()
	c.status[series].State = Failed
	c.mu.Unlock()
}

// Run converts every series.  A failed series aborts the whole
// conversion: no multiscale metadata is written for it, and no later
// series is attempted.
func (c *Converter) Run(ctx context.Context) error {
	timelog := zarrgen.NewTimeLog()

	if err := c.store.CreateGroup(ctx, ""); err != nil {
		return fmt.Errorf("can't create root group: %v", err)
	}
	if err := c.store.SetAttributes(ctx, "", pyramid.LayoutAttrs()); err != nil {
		return fmt.Errorf("can't set root attributes: %v", err)
	}

	for series := 0; series < c.reader.SeriesCount(); series++ {
		if err := c.convertSeries(ctx, series); err != nil {
			c.setFailed(series)
			zarrgen.Errorf("Conversion failed on series %d: %v\n", series, err)
			return err
		}
	}
	timelog.Infof("Converted %d series", c.reader.SeriesCount())
	return nil
}

func (c *Converter) convertSeries(ctx context.Context, series int) error {
	c.setStatus(series, Planning, 0)

	dims, err := c.reader.Dimensions(series)
	if err != nil {
		return zarrgen.SourceReadError{Series: series, Err: err}
	}
	pixelType, err := c.reader.PixelType(series)
	if err != nil {
		return zarrgen.SourceReadError{Series: series, Err: err}
	}
	order := c.cfg.DimOrder
	if order == "" {
		if order, err = c.reader.DimensionOrder(series); err != nil {
			return zarrgen.SourceReadError{Series: series, Err: err}
		}
	}

	levels, err := pyramid.Plan(dims, c.cfg.TileWidth, c.cfg.TileHeight, c.cfg.DownsampleFactor)
	if err != nil {
		return err
	}
	zarrgen.Infof("Converting series %d: %s %s, %s samples, %d levels\n",
		series, dims, pixelType, humanize.Comma(dims.Elements()), len(levels))

	group, err := c.mapper.SeriesGroup(series)
	if err != nil {
		return err
	}
	if err := c.store.CreateGroup(ctx, group); err != nil {
		return fmt.Errorf("can't create group %q: %v", group, err)
	}
	paths := make([]string, len(levels))
	relPaths := make([]string, len(levels))
	for k, level := range levels {
		if paths[k], err = c.mapper.DatasetPath(series, k); err != nil {
			return err
		}
		if relPaths[k], err = c.mapper.LevelPath(series, k); err != nil {
			return err
		}
		attrs := storage.ArrayAttrs{
			Shape:     order.Apply(level.Dims),
			Chunks:    order.Apply(level.ChunkShape),
			PixelType: pixelType,
		}
		if err := c.store.CreateArray(ctx, paths[k], attrs); err != nil {
			return fmt.Errorf("can't create array %q: %v", paths[k], err)
		}
	}

	// Strict level ordering: all of level k must be written (or cached)
	// before any level k+1 downsampling is dispatched.
	for k, level := range levels {
		c.setStatus(series, Writing, k)
		var prev *levelWriter
		if k > 0 {
			prev = &levelWriter{
				series: series, level: levels[k-1], path: paths[k-1],
				pixelType: pixelType, order: order, conv: c,
			}
		}
		lw := &levelWriter{
			series: series, level: level, path: paths[k],
			pixelType: pixelType, order: order, conv: c, prev: prev,
		}
		if err := lw.run(ctx); err != nil {
			return err
		}
	}

	c.setStatus(series, Finalizing, len(levels)-1)
	attrs := pyramid.MultiscaleAttrs(c.cfg.Name, levels, relPaths, c.cfg.DownsampleFactor, order)
	if err := c.store.SetAttributes(ctx, group, attrs); err != nil {
		return fmt.Errorf("can't write multiscale metadata for series %d: %v", series, err)
	}
	c.setStatus(series, Done, len(levels)-1)
	return nil
}

// levelWriter produces and writes every chunk of one resolution level.
type levelWriter struct {
	series    int
	level     pyramid.Level
	path      string
	pixelType zarrgen.PixelType
	order     zarrgen.DimOrder
	conv      *Converter
	prev      *levelWriter // nil for level 0
}

// run walks the planes of the level, producing each plane's pixel data
// and dispatching its chunk writes to a bounded worker pool.  The pool
// limit doubles as a memory bound: g.Go blocks once MaxWorkers chunk
// buffers are in flight, which also pins at most two planes at a time.
func (lw *levelWriter) run(ctx context.Context) error {
	c := lw.conv
	timelog := zarrgen.NewTimeLog()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.MaxWorkers)

	var chunks, chunkBytes int64
	dims := lw.level.Dims
	grid := lw.level.GridSize()

planes:
	for t := 0; t < int(dims[zarrgen.AxisT]); t++ {
		for ch := 0; ch < int(dims[zarrgen.AxisC]); ch++ {
			for z := 0; z < int(dims[zarrgen.AxisZ]); z++ {
				if gctx.Err() != nil {
					break planes
				}
				plane, err := lw.producePlane(gctx, z, ch, t)
				if err != nil {
					g.Wait()
					return err
				}
				// Keep the plane for the next level's downsampling.
				// Set failures just mean the store fallback kicks in.
				c.cache.Set(planeKey(lw.series, lw.level.Index, z, ch, t), plane, 0)

				for cy := int32(0); cy < grid[zarrgen.AxisY]; cy++ {
					for cx := int32(0); cx < grid[zarrgen.AxisX]; cx++ {
						coord := zarrgen.ChunkPoint5d{cx, cy, int32(z), int32(ch), int32(t)}
						g.Go(func() error {
							if gctx.Err() != nil {
								return gctx.Err()
							}
							n, err := lw.writeChunk(gctx, plane, coord)
							if err != nil {
								return err
							}
							atomic.AddInt64(&chunks, 1)
							atomic.AddInt64(&chunkBytes, n)
							return nil
						})
					}
				}
			}
		}
	}

	// Phase barrier: level k+1 work is only admitted after every chunk
	// write at level k has completed.
	if err := g.Wait(); err != nil {
		return err
	}
	timelog.Infof("Wrote series %d level %d (%d chunks, %s)", lw.series, lw.level.Index,
		atomic.LoadInt64(&chunks), humanize.Bytes(uint64(atomic.LoadInt64(&chunkBytes))))
	return nil
}

// producePlane materializes one full X/Y plane of this level: level 0
// reads from the source, deeper levels downsample the previous level.
func (lw *levelWriter) producePlane(ctx context.Context, z, ch, t int) ([]byte, error) {
	c := lw.conv
	if lw.prev == nil {
		plane, err := c.reader.ReadRegion(ctx, lw.series, z, ch, t,
			0, 0, lw.level.Dims[zarrgen.AxisX], lw.level.Dims[zarrgen.AxisY])
		if err != nil {
			return nil, zarrgen.SourceReadError{Series: lw.series, Z: z, C: ch, T: t, Err: err}
		}
		return plane, nil
	}
	src, err := lw.prev.fetchPlane(ctx, z, ch, t)
	if err != nil {
		return nil, err
	}
	prevDims := lw.prev.level.Dims
	plane, dnx, dny, err := downres.Downsample(src, lw.pixelType,
		prevDims[zarrgen.AxisX], prevDims[zarrgen.AxisY], c.cfg.DownsampleFactor)
	if err != nil {
		return nil, err
	}
	if dnx != lw.level.Dims[zarrgen.AxisX] || dny != lw.level.Dims[zarrgen.AxisY] {
		return nil, fmt.Errorf("downsampled plane %dx%d doesn't match planned %s", dnx, dny, lw.level.Dims)
	}
	return plane, nil
}

// fetchPlane returns this level's plane at (z, ch, t), preferring the
// retained-plane cache and falling back to stitching the plane back
// together from its stored chunks.
func (lw *levelWriter) fetchPlane(ctx context.Context, z, ch, t int) ([]byte, error) {
	c := lw.conv
	if plane, err := c.cache.Get(planeKey(lw.series, lw.level.Index, z, ch, t)); err == nil {
		return plane, nil
	}

	zarrgen.Debugf("Reassembling series %d level %d plane (z=%d, c=%d, t=%d) from store\n",
		lw.series, lw.level.Index, z, ch, t)
	bytesPerPixel := int64(zarrgen.PixelTypeBytes(lw.pixelType))
	nx, ny := lw.level.Dims[zarrgen.AxisX], lw.level.Dims[zarrgen.AxisY]
	plane := make([]byte, nx*ny*bytesPerPixel)
	grid := lw.level.GridSize()
	for cy := int32(0); cy < grid[zarrgen.AxisY]; cy++ {
		for cx := int32(0); cx < grid[zarrgen.AxisX]; cx++ {
			coord := zarrgen.ChunkPoint5d{cx, cy, int32(z), int32(ch), int32(t)}
			offset, size, err := lw.level.ChunkExtent(coord)
			if err != nil {
				return nil, err
			}
			data, err := c.store.ReadChunk(ctx, lw.path, lw.order.ApplyChunk(coord))
			if err != nil {
				return nil, fmt.Errorf("can't re-read series %d level %d chunk %s: %v",
					lw.series, lw.level.Index, coord, err)
			}
			if int64(len(data)) != size[zarrgen.AxisX]*size[zarrgen.AxisY]*bytesPerPixel {
				return nil, fmt.Errorf("series %d level %d chunk %s has %d bytes, expected %s",
					lw.series, lw.level.Index, coord, len(data), size)
			}
			// Copy the chunk rows back into the plane.
			rowBytes := size[zarrgen.AxisX] * bytesPerPixel
			for y := int64(0); y < size[zarrgen.AxisY]; y++ {
				planeI := ((offset[zarrgen.AxisY]+y)*nx + offset[zarrgen.AxisX]) * bytesPerPixel
				copy(plane[planeI:planeI+rowBytes], data[y*rowBytes:(y+1)*rowBytes])
			}
		}
	}
	return plane, nil
}

// writeChunk clips one chunk out of the plane and persists it, returning
// the number of pixel bytes written.  Each (series, level, coordinate)
// is written by exactly one task.
func (lw *levelWriter) writeChunk(ctx context.Context, plane []byte, coord zarrgen.ChunkPoint5d) (int64, error) {
	c := lw.conv
	offset, size, err := lw.level.ChunkExtent(coord)
	if err != nil {
		return 0, err
	}
	permuted := lw.order.ApplyChunk(coord)
	if c.cfg.SkipExisting {
		exists, err := c.store.ChunkExists(ctx, lw.path, permuted)
		if err == nil && exists {
			zarrgen.Debugf("Skipping existing chunk %s of series %d level %d\n",
				coord, lw.series, lw.level.Index)
			return 0, nil
		}
	}

	// Copy the chunk's rows out of the shared plane; the buffer is owned
	// by this task until handed to the store.
	bytesPerPixel := int64(zarrgen.PixelTypeBytes(lw.pixelType))
	nx := lw.level.Dims[zarrgen.AxisX]
	rowBytes := size[zarrgen.AxisX] * bytesPerPixel
	buf := make([]byte, rowBytes*size[zarrgen.AxisY])
	for y := int64(0); y < size[zarrgen.AxisY]; y++ {
		planeI := ((offset[zarrgen.AxisY]+y)*nx + offset[zarrgen.AxisX]) * bytesPerPixel
		copy(buf[y*rowBytes:(y+1)*rowBytes], plane[planeI:planeI+rowBytes])
	}

	if err := c.store.WriteChunk(ctx, lw.path, permuted, buf); err != nil {
		return 0, zarrgen.ChunkWriteError{
			Series: lw.series,
			Level:  lw.level.Index,
			Chunk:  coord,
			Err:    err,
		}
	}
	return int64(len(buf)), nil
}

func planeKey(series, level, z, c, t int) []byte {
	return []byte(fmt.Sprintf("%d/%d/%d.%d.%d", series, level, z, c, t))
}
