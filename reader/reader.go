/*
	Package reader defines the capability interface for pulling raw pixel
	planes out of a source image, plus a deterministic fake source used
	for testing and demos.  Decoding real microscopy formats is left to
	external implementations of the Reader interface.
*/
package reader

import (
	"context"

	"github.com/janelia-flyem/zarrgen/zarrgen"
)

// Reader provides access to the series and pixel planes of one source image.
// Implementations are not assumed to be safe for concurrent use; the
// converter reads planes from a single goroutine.
type Reader interface {
	// SeriesCount returns the number of independent images in this source.
	SeriesCount() int

	// Dimensions returns the full-resolution extents of a series in
	// canonical XYZCT order.
	Dimensions(series int) (zarrgen.Shape5d, error)

	// PixelType returns the sample type of a series.
	PixelType(series int) (zarrgen.PixelType, error)

	// DimensionOrder returns the axis order the source reports for a series.
	DimensionOrder(series int) (zarrgen.DimOrder, error)

	// ReadRegion returns a rectangular region of the full-resolution plane
	// at (z, c, t).  The returned buffer holds nx*ny samples, X fastest.
	ReadRegion(ctx context.Context, series, z, c, t int, x0, y0, nx, ny int64) ([]byte, error)

	// Close releases any resources held by the reader.
	Close() error
}
