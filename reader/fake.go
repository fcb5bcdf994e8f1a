package reader

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/janelia-flyem/zarrgen/zarrgen"
)

// Fake is a synthetic source image.  Each plane starts with five "special
// pixels" encoding [series, plane number, z, c, t] at (0..4, 0), and every
// other sample is an x gradient wrapped at the type's maximum.  The layout
// lets tests recover exactly which plane landed in which chunk.
type Fake struct {
	seriesCount int
	dims        zarrgen.Shape5d
	pixelType   zarrgen.PixelType
	dimOrder    zarrgen.DimOrder

	// Fill, if set, overrides the gradient: it is called with plane and
	// sample coordinates and returns the sample value.
	Fill func(series, z, c, t int, x, y int64) float64
}

// FakeOptions configures a synthetic source.  Zero values fall back to a
// single 512x512 uint8 series in XYZCT order.
type FakeOptions struct {
	SeriesCount         int
	SizeX, SizeY        int64
	SizeZ, SizeC, SizeT int64
	PixelType           zarrgen.PixelType
	DimOrder            zarrgen.DimOrder
}

// NewFake returns a synthetic source reader.
func NewFake(opts FakeOptions) *Fake {
	if opts.SeriesCount == 0 {
		opts.SeriesCount = 1
	}
	if opts.SizeX == 0 {
		opts.SizeX = 512
	}
	if opts.SizeY == 0 {
		opts.SizeY = 512
	}
	if opts.SizeZ == 0 {
		opts.SizeZ = 1
	}
	if opts.SizeC == 0 {
		opts.SizeC = 1
	}
	if opts.SizeT == 0 {
		opts.SizeT = 1
	}
	if opts.DimOrder == "" {
		opts.DimOrder = zarrgen.CanonicalOrder
	}
	return &Fake{
		seriesCount: opts.SeriesCount,
		dims:        zarrgen.Shape5d{opts.SizeX, opts.SizeY, opts.SizeZ, opts.SizeC, opts.SizeT},
		pixelType:   opts.PixelType,
		dimOrder:    opts.DimOrder,
	}
}

// ---- Reader interface ----

func (f *Fake) SeriesCount() int {
	return f.seriesCount
}

func (f *Fake) Dimensions(series int) (zarrgen.Shape5d, error) {
	if series < 0 || series >= f.seriesCount {
		return zarrgen.Shape5d{}, fmt.Errorf("series %d out of range [0,%d)", series, f.seriesCount)
	}
	return f.dims, nil
}

func (f *Fake) PixelType(series int) (zarrgen.PixelType, error) {
	if series < 0 || series >= f.seriesCount {
		return 0, fmt.Errorf("series %d out of range [0,%d)", series, f.seriesCount)
	}
	return f.pixelType, nil
}

func (f *Fake) DimensionOrder(series int) (zarrgen.DimOrder, error) {
	if series < 0 || series >= f.seriesCount {
		return "", fmt.Errorf("series %d out of range [0,%d)", series, f.seriesCount)
	}
	return f.dimOrder, nil
}

func (f *Fake) ReadRegion(ctx context.Context, series, z, c, t int, x0, y0, nx, ny int64) ([]byte, error) {
	if series < 0 || series >= f.seriesCount {
		return nil, fmt.Errorf("series %d out of range [0,%d)", series, f.seriesCount)
	}
	if x0 < 0 || y0 < 0 || x0+nx > f.dims[zarrgen.AxisX] || y0+ny > f.dims[zarrgen.AxisY] {
		return nil, fmt.Errorf("region (%d,%d)+(%d,%d) outside %s plane", x0, y0, nx, ny, f.dims)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bytesPerPixel := int64(zarrgen.PixelTypeBytes(f.pixelType))
	buf := make([]byte, nx*ny*bytesPerPixel)
	i := int64(0)
	for y := y0; y < y0+ny; y++ {
		for x := x0; x < x0+nx; x++ {
			f.putSample(buf[i:], f.sample(series, z, c, t, x, y))
			i += bytesPerPixel
		}
	}
	return buf, nil
}

func (f *Fake) Close() error {
	return nil
}

// sample returns the value at one plane coordinate before type conversion.
func (f *Fake) sample(series, z, c, t int, x, y int64) float64 {
	if f.Fill != nil {
		return f.Fill(series, z, c, t, x, y)
	}
	if y == 0 && x < 5 {
		// Special pixels: [series, plane number, z, c, t] with planes
		// counted in ZCT order.
		sizeZ := f.dims[zarrgen.AxisZ]
		sizeC := f.dims[zarrgen.AxisC]
		no := int64(z) + int64(c)*sizeZ + int64(t)*sizeZ*sizeC
		specials := [5]int64{int64(series), no, int64(z), int64(c), int64(t)}
		return float64(specials[x])
	}
	switch f.pixelType {
	case zarrgen.T_uint8:
		return float64(x % 256)
	case zarrgen.T_uint16:
		return float64(x % 65536)
	default:
		return float64(x)
	}
}

func (f *Fake) putSample(b []byte, v float64) {
	switch f.pixelType {
	case zarrgen.T_uint8:
		b[0] = uint8(v)
	case zarrgen.T_uint16:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case zarrgen.T_float32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
	case zarrgen.T_float64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	}
}

// ParseFake parses a synthetic source specifier like
// "fake:sizeX=60&sizeY=300&series=2&pixelType=uint16&dimOrder=XYCZT".
// Unrecognized keys are an error; omitted keys use defaults.
func ParseFake(spec string) (*Fake, error) {
	spec = strings.TrimPrefix(spec, "fake:")
	spec = strings.TrimSuffix(spec, ".fake")
	var opts FakeOptions
	if spec != "" {
		for _, kv := range strings.Split(spec, "&") {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				return nil, fmt.Errorf("bad fake option %q", kv)
			}
			key, val := parts[0], parts[1]
			var err error
			switch key {
			case "series":
				opts.SeriesCount, err = strconv.Atoi(val)
			case "sizeX":
				opts.SizeX, err = strconv.ParseInt(val, 10, 64)
			case "sizeY":
				opts.SizeY, err = strconv.ParseInt(val, 10, 64)
			case "sizeZ":
				opts.SizeZ, err = strconv.ParseInt(val, 10, 64)
			case "sizeC":
				opts.SizeC, err = strconv.ParseInt(val, 10, 64)
			case "sizeT":
				opts.SizeT, err = strconv.ParseInt(val, 10, 64)
			case "pixelType":
				opts.PixelType, err = zarrgen.PixelTypeByName(val)
			case "dimOrder":
				opts.DimOrder, err = zarrgen.ParseDimOrder(val)
			default:
				return nil, fmt.Errorf("unknown fake option %q", key)
			}
			if err != nil {
				return nil, fmt.Errorf("bad fake option %q: %v", kv, err)
			}
		}
	}
	return NewFake(opts), nil
}
