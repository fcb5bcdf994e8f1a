/*
	This file supports the 5d geometry used throughout the converter.
	The canonical internal axis order is XYZCT; a DimOrder permutes
	tuples into whatever order the output should advertise.
*/

package zarrgen

import (
	"fmt"
	"strings"
)

// NumAxes is the number of axes in every converted array: X, Y, Z-section,
// Channel, and Time.
const NumAxes = 5

// Axis indices within canonical XYZCT tuples.
const (
	AxisX = iota
	AxisY
	AxisZ
	AxisC
	AxisT
)

// CanonicalOrder is the internal arrangement of every Shape5d and
// ChunkPoint5d before any output permutation is applied.
const CanonicalOrder = DimOrder("XYZCT")

// Shape5d holds extents along the canonical XYZCT axes.
type Shape5d [NumAxes]int64

// Elements returns the total number of samples within the shape.
func (s Shape5d) Elements() int64 {
	n := int64(1)
	for _, d := range s {
		n *= d
	}
	return n
}

func (s Shape5d) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d,%d)", s[0], s[1], s[2], s[3], s[4])
}

// ChunkPoint5d is the coordinate of one chunk within a level's chunk grid,
// in canonical XYZCT axis order.
type ChunkPoint5d [NumAxes]int32

func (c ChunkPoint5d) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d,%d)", c[0], c[1], c[2], c[3], c[4])
}

// DimOrder is a permutation of the five axis labels, e.g. "XYCZT".
// The zero value "" means "use the order reported by the source".
type DimOrder string

var axisIndex = map[byte]int{'X': AxisX, 'Y': AxisY, 'Z': AxisZ, 'C': AxisC, 'T': AxisT}

// Validate returns an error unless the order is a permutation of XYZCT.
func (o DimOrder) Validate() error {
	if len(o) != NumAxes {
		return fmt.Errorf("dimension order %q must have %d axes", o, NumAxes)
	}
	var seen [NumAxes]bool
	for i := 0; i < len(o); i++ {
		axis, found := axisIndex[o[i]]
		if !found {
			return fmt.Errorf("dimension order %q has unknown axis %q", o, string(o[i]))
		}
		if seen[axis] {
			return fmt.Errorf("dimension order %q repeats axis %q", o, string(o[i]))
		}
		seen[axis] = true
	}
	return nil
}

// Permutation returns, for each output position, the canonical axis stored
// there.  The caller must have validated the order.
func (o DimOrder) Permutation() (perm [NumAxes]int) {
	for i := 0; i < NumAxes; i++ {
		perm[i] = axisIndex[o[i]]
	}
	return
}

// Apply permutes a canonical shape tuple into this dimension order.
func (o DimOrder) Apply(s Shape5d) (out Shape5d) {
	perm := o.Permutation()
	for i := 0; i < NumAxes; i++ {
		out[i] = s[perm[i]]
	}
	return
}

// ApplyChunk permutes a canonical chunk coordinate into this dimension order.
func (o DimOrder) ApplyChunk(c ChunkPoint5d) (out ChunkPoint5d) {
	perm := o.Permutation()
	for i := 0; i < NumAxes; i++ {
		out[i] = c[perm[i]]
	}
	return
}

// ParseDimOrder validates and normalizes a user-supplied dimension order.
func ParseDimOrder(s string) (DimOrder, error) {
	o := DimOrder(strings.ToUpper(s))
	if err := o.Validate(); err != nil {
		return "", err
	}
	return o, nil
}
