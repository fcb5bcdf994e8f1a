package reader

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/janelia-flyem/zarrgen/zarrgen"
)

func TestFakeDefaults(t *testing.T) {
	f := NewFake(FakeOptions{})
	if f.SeriesCount() != 1 {
		t.Errorf("got %d series, expected 1", f.SeriesCount())
	}
	dims, err := f.Dimensions(0)
	if err != nil {
		t.Fatalf("can't get dimensions: %v", err)
	}
	if dims != (zarrgen.Shape5d{512, 512, 1, 1, 1}) {
		t.Errorf("got dims %s, expected 512x512 plane", dims)
	}
	order, err := f.DimensionOrder(0)
	if err != nil {
		t.Fatalf("can't get dimension order: %v", err)
	}
	if order != zarrgen.CanonicalOrder {
		t.Errorf("got order %q, expected %q", order, zarrgen.CanonicalOrder)
	}
}

func TestFakeSpecialPixels(t *testing.T) {
	f := NewFake(FakeOptions{SeriesCount: 3, SizeZ: 2, SizeC: 2, SizeT: 2})
	// Plane (z=1, c=1, t=1) of series 2: plane number in ZCT order is
	// 1 + 1*2 + 1*2*2 = 7.
	buf, err := f.ReadRegion(context.Background(), 2, 1, 1, 1, 0, 0, 512, 1)
	if err != nil {
		t.Fatalf("can't read plane: %v", err)
	}
	expected := []byte{2, 7, 1, 1, 1}
	for i, v := range expected {
		if buf[i] != v {
			t.Errorf("special pixel %d is %d, expected %d", i, buf[i], v)
		}
	}
	// Beyond the specials, the first row is an x gradient.
	if buf[100] != 100 || buf[300] != 44 {
		t.Errorf("bad gradient: buf[100]=%d buf[300]=%d", buf[100], buf[300])
	}
}

func TestFakeUint16Gradient(t *testing.T) {
	f := NewFake(FakeOptions{SizeX: 1000, SizeY: 4, PixelType: zarrgen.T_uint16})
	buf, err := f.ReadRegion(context.Background(), 0, 0, 0, 0, 0, 0, 1000, 4)
	if err != nil {
		t.Fatalf("can't read plane: %v", err)
	}
	// Row 1 (no specials): sample at x=700 is 700.
	if got := binary.LittleEndian.Uint16(buf[(1000+700)*2:]); got != 700 {
		t.Errorf("got %d at x=700, expected 700", got)
	}
}

func TestFakeRegionBounds(t *testing.T) {
	f := NewFake(FakeOptions{SizeX: 60, SizeY: 300})
	if _, err := f.ReadRegion(context.Background(), 0, 0, 0, 0, 50, 0, 25, 10); err == nil {
		t.Errorf("expected error for region past X extent")
	}
	if _, err := f.ReadRegion(context.Background(), 1, 0, 0, 0, 0, 0, 1, 1); err == nil {
		t.Errorf("expected error for bad series")
	}
}

func TestFakeCustomFill(t *testing.T) {
	f := NewFake(FakeOptions{SizeX: 4, SizeY: 4})
	f.Fill = func(series, z, c, t int, x, y int64) float64 {
		if y < 2 {
			return 100
		}
		return 0
	}
	buf, err := f.ReadRegion(context.Background(), 0, 0, 0, 0, 0, 0, 4, 4)
	if err != nil {
		t.Fatalf("can't read plane: %v", err)
	}
	if buf[0] != 100 || buf[15] != 0 {
		t.Errorf("fill not applied: buf[0]=%d buf[15]=%d", buf[0], buf[15])
	}
}

func TestParseFake(t *testing.T) {
	f, err := ParseFake("fake:sizeX=60&sizeY=300&series=2&pixelType=uint16&dimOrder=XYCZT")
	if err != nil {
		t.Fatalf("can't parse spec: %v", err)
	}
	if f.SeriesCount() != 2 {
		t.Errorf("got %d series, expected 2", f.SeriesCount())
	}
	dims, _ := f.Dimensions(0)
	if dims[zarrgen.AxisX] != 60 || dims[zarrgen.AxisY] != 300 {
		t.Errorf("got dims %s, expected 60x300", dims)
	}
	pt, _ := f.PixelType(0)
	if pt != zarrgen.T_uint16 {
		t.Errorf("got pixel type %s, expected uint16", pt)
	}
	order, _ := f.DimensionOrder(0)
	if order != "XYCZT" {
		t.Errorf("got order %q, expected XYCZT", order)
	}

	if _, err := ParseFake("fake:bogus=1"); err == nil {
		t.Errorf("expected error for unknown option")
	}
}
