package downres

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/janelia-flyem/zarrgen/zarrgen"
)

func TestBoxFilterUint8(t *testing.T) {
	// 2x2 block {100, 100, 0, 0} must average to floor(200/4) = 50.
	src := []byte{100, 100, 0, 0}
	dst, dnx, dny, err := Downsample(src, zarrgen.T_uint8, 2, 2, 2)
	if err != nil {
		t.Fatalf("can't downsample: %v", err)
	}
	if dnx != 1 || dny != 1 {
		t.Fatalf("got %dx%d output, expected 1x1", dnx, dny)
	}
	if dst[0] != 50 {
		t.Errorf("got %d, expected 50", dst[0])
	}
}

func TestBoxFilterTruncates(t *testing.T) {
	// floor((1+2+3+4)/4) = floor(2.5) = 2: integer division, not rounding.
	dst, _, _, err := Downsample([]byte{1, 2, 3, 4}, zarrgen.T_uint8, 2, 2, 2)
	if err != nil {
		t.Fatalf("can't downsample: %v", err)
	}
	if dst[0] != 2 {
		t.Errorf("got %d, expected 2", dst[0])
	}
}

func TestOddEdgesAverageOnlyPresentSamples(t *testing.T) {
	// 3x3 plane: the right column and bottom row form partial blocks.
	src := []byte{
		10, 20, 90,
		30, 40, 70,
		100, 200, 44,
	}
	dst, dnx, dny, err := Downsample(src, zarrgen.T_uint8, 3, 3, 2)
	if err != nil {
		t.Fatalf("can't downsample: %v", err)
	}
	if dnx != 2 || dny != 2 {
		t.Fatalf("got %dx%d output, expected 2x2", dnx, dny)
	}
	expected := []byte{
		(10 + 20 + 30 + 40) / 4, (90 + 70) / 2,
		(100 + 200) / 2, 44,
	}
	if !bytes.Equal(dst, expected) {
		t.Errorf("got %v, expected %v", dst, expected)
	}
}

func TestUint16WideAccumulator(t *testing.T) {
	// Four maximal samples would overflow a uint16 accumulator.
	src := make([]byte, 8)
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint16(src[i*2:], 65535)
	}
	dst, _, _, err := Downsample(src, zarrgen.T_uint16, 2, 2, 2)
	if err != nil {
		t.Fatalf("can't downsample: %v", err)
	}
	if got := binary.LittleEndian.Uint16(dst); got != 65535 {
		t.Errorf("got %d, expected 65535", got)
	}
}

func TestFloat32Average(t *testing.T) {
	vals := []float32{1.5, 2.5, 3.5, 4.5}
	src := make([]byte, 16)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(src[i*4:], math.Float32bits(v))
	}
	dst, _, _, err := Downsample(src, zarrgen.T_float32, 2, 2, 2)
	if err != nil {
		t.Fatalf("can't downsample: %v", err)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(dst)); got != 3.0 {
		t.Errorf("got %g, expected 3.0", got)
	}
}

func TestFloat64Average(t *testing.T) {
	vals := []float64{1.0, 2.0, 4.0}
	src := make([]byte, 24)
	for i, v := range vals {
		binary.LittleEndian.PutUint64(src[i*8:], math.Float64bits(v))
	}
	// 3x1 plane: one full 2-sample block and one partial single sample.
	dst, dnx, dny, err := Downsample(src, zarrgen.T_float64, 3, 1, 2)
	if err != nil {
		t.Fatalf("can't downsample: %v", err)
	}
	if dnx != 2 || dny != 1 {
		t.Fatalf("got %dx%d output, expected 2x1", dnx, dny)
	}
	if got := math.Float64frombits(binary.LittleEndian.Uint64(dst)); got != 1.5 {
		t.Errorf("got %g, expected 1.5", got)
	}
	if got := math.Float64frombits(binary.LittleEndian.Uint64(dst[8:])); got != 4.0 {
		t.Errorf("got %g, expected 4.0", got)
	}
}

func TestDeterministic(t *testing.T) {
	src := make([]byte, 101*67)
	for i := range src {
		src[i] = byte((i*31 + 7) % 251)
	}
	first, _, _, err := Downsample(src, zarrgen.T_uint8, 101, 67, 2)
	if err != nil {
		t.Fatalf("can't downsample: %v", err)
	}
	second, _, _, err := Downsample(src, zarrgen.T_uint8, 101, 67, 2)
	if err != nil {
		t.Fatalf("can't downsample: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("identical input produced differing output")
	}
}

func TestBadInputs(t *testing.T) {
	if _, _, _, err := Downsample([]byte{1, 2, 3}, zarrgen.T_uint8, 2, 2, 2); err == nil {
		t.Errorf("expected error for short buffer")
	}
	if _, _, _, err := Downsample([]byte{1, 2, 3, 4}, zarrgen.T_uint8, 2, 2, 1); err == nil {
		t.Errorf("expected error for factor 1")
	}
}
