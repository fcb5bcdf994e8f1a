/*
	This file handles the layout of a pixel sample and routines that map
	pixel types to storage descriptions.
*/

package zarrgen

import "fmt"

// PixelType is a unique ID for each type of pixel sample handled by the
// converter, e.g., a uint8 or a float32.
type PixelType uint8

const (
	T_uint8 PixelType = iota
	T_uint16
	T_float32
	T_float64
)

var typeBytes = map[PixelType]int32{
	T_uint8:   1,
	T_uint16:  2,
	T_float32: 4,
	T_float64: 8,
}

var typeNames = map[PixelType]string{
	T_uint8:   "uint8",
	T_uint16:  "uint16",
	T_float32: "float",
	T_float64: "double",
}

// Little-endian NumPy-style type strings used by zarr array metadata.
var typeDescrs = map[PixelType]string{
	T_uint8:   "|u1",
	T_uint16:  "<u2",
	T_float32: "<f4",
	T_float64: "<f8",
}

// PixelTypeBytes returns the # of bytes for a given pixel type.
// For example, uint16 is 2 bytes.  No error checking is performed
// to make sure the type is valid.
func PixelTypeBytes(t PixelType) int32 {
	return typeBytes[t]
}

func (t PixelType) String() string {
	s, found := typeNames[t]
	if !found {
		return fmt.Sprintf("unknown pixel type (%d)", uint8(t))
	}
	return s
}

// Descr returns the little-endian type string stored in array metadata,
// e.g., "<u2" for uint16.
func (t PixelType) Descr() string {
	return typeDescrs[t]
}

// PixelTypeByName returns the pixel type for names as they appear in
// source metadata: "uint8", "uint16", "float", and "double".
func PixelTypeByName(name string) (PixelType, error) {
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown pixel type %q", name)
}
