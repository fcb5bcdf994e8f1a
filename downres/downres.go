/*
	Package downres computes lower resolution levels for the pyramid by
	box-filter averaging one X/Y plane at a time.  Consumers assert the
	output bit-exactly, so the averaging rules here must not change:
	integer samples accumulate in a wide integer and truncate toward
	zero, floats accumulate in float64, and partial blocks at odd-sized
	edges average only the samples that exist.
*/
package downres

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/janelia-flyem/zarrgen/zarrgen"
)

// Downsample reduces one nx * ny plane of samples by the given factor
// along both axes, returning the new plane and its extents.  Output
// extents are ceil(input/factor), matching the resolution planner.
func Downsample(src []byte, pixelType zarrgen.PixelType, nx, ny int64, factor int) (dst []byte, dnx, dny int64, err error) {
	if factor < 2 {
		err = fmt.Errorf("downsample factor %d must be at least 2", factor)
		return
	}
	bytesPerPixel := int64(zarrgen.PixelTypeBytes(pixelType))
	if bytesPerPixel == 0 {
		err = fmt.Errorf("can't downsample %s data", pixelType)
		return
	}
	if int64(len(src)) != nx*ny*bytesPerPixel {
		err = fmt.Errorf("plane of %d bytes doesn't match %dx%d %s samples", len(src), nx, ny, pixelType)
		return
	}

	f := int64(factor)
	dnx = (nx + f - 1) / f
	dny = (ny + f - 1) / f
	dst = make([]byte, dnx*dny*bytesPerPixel)

	switch pixelType {
	case zarrgen.T_uint8, zarrgen.T_uint16:
		downsampleUint(src, dst, bytesPerPixel, nx, ny, dnx, f)
	case zarrgen.T_float32:
		downsampleFloat32(src, dst, nx, ny, dnx, f)
	case zarrgen.T_float64:
		downsampleFloat64(src, dst, nx, ny, dnx, f)
	}
	return
}

// downsampleUint averages blocks of unsigned integer samples in a uint64
// accumulator, truncating toward zero on the divide.  The accumulator
// can't overflow: a block holds factor^2 samples well below 2^48.
func downsampleUint(src, dst []byte, bytesPerPixel, nx, ny, dnx, f int64) {
	for oy := int64(0); oy*f < ny; oy++ {
		for ox := int64(0); ox*f < nx; ox++ {
			var sum, count uint64
			for sy := oy * f; sy < (oy+1)*f && sy < ny; sy++ {
				for sx := ox * f; sx < (ox+1)*f && sx < nx; sx++ {
					i := (sy*nx + sx) * bytesPerPixel
					if bytesPerPixel == 1 {
						sum += uint64(src[i])
					} else {
						sum += uint64(binary.LittleEndian.Uint16(src[i:]))
					}
					count++
				}
			}
			avg := sum / count
			i := (oy*dnx + ox) * bytesPerPixel
			if bytesPerPixel == 1 {
				dst[i] = uint8(avg)
			} else {
				binary.LittleEndian.PutUint16(dst[i:], uint16(avg))
			}
		}
	}
}

func downsampleFloat32(src, dst []byte, nx, ny, dnx, f int64) {
	for oy := int64(0); oy*f < ny; oy++ {
		for ox := int64(0); ox*f < nx; ox++ {
			var sum float64
			var count int64
			for sy := oy * f; sy < (oy+1)*f && sy < ny; sy++ {
				for sx := ox * f; sx < (ox+1)*f && sx < nx; sx++ {
					bits := binary.LittleEndian.Uint32(src[(sy*nx+sx)*4:])
					sum += float64(math.Float32frombits(bits))
					count++
				}
			}
			avg := float32(sum / float64(count))
			binary.LittleEndian.PutUint32(dst[(oy*dnx+ox)*4:], math.Float32bits(avg))
		}
	}
}

func downsampleFloat64(src, dst []byte, nx, ny, dnx, f int64) {
	for oy := int64(0); oy*f < ny; oy++ {
		for ox := int64(0); ox*f < nx; ox++ {
			var sum float64
			var count int64
			for sy := oy * f; sy < (oy+1)*f && sy < ny; sy++ {
				for sx := ox * f; sx < (ox+1)*f && sx < nx; sx++ {
					bits := binary.LittleEndian.Uint64(src[(sy*nx+sx)*8:])
					sum += math.Float64frombits(bits)
					count++
				}
			}
			avg := sum / float64(count)
			binary.LittleEndian.PutUint64(dst[(oy*dnx+ox)*8:], math.Float64bits(avg))
		}
	}
}
