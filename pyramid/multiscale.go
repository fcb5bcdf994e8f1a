package pyramid

import "github.com/janelia-flyem/zarrgen/zarrgen"

const (
	// MultiscaleVersion is the fixed version tag of the multiscale
	// metadata format written per series.
	MultiscaleVersion = "0.1"

	// Layout is the layout-version constant stored as the root attribute
	// "bioformats2raw.layout".
	Layout = 1

	// LayoutAttr is the root attribute name holding the layout version.
	LayoutAttr = "bioformats2raw.layout"
)

// Dataset points at one resolution level of a multiscale series.
type Dataset struct {
	Path string `json:"path"`
}

// Metadata records how the lower resolutions were generated.
type Metadata struct {
	Method  string            `json:"method"`
	Order   zarrgen.DimOrder  `json:"dimensionOrder"`
	Factors []zarrgen.Shape5d `json:"factors"`
}

// Multiscale is the per-series description of a resolution pyramid,
// written once every chunk of every level is durably stored.
type Multiscale struct {
	Version  string    `json:"version"`
	Name     string    `json:"name,omitempty"`
	Datasets []Dataset `json:"datasets"`
	Metadata Metadata  `json:"metadata"`
}

// MultiscaleAttrs builds the attribute document for one series.  Paths are
// relative to the series group, in increasing level order starting at "0".
// The scale factor of level k is factor^k along X/Y and 1 along Z/C/T,
// permuted into the output dimension order like every other shape tuple.
func MultiscaleAttrs(name string, levels []Level, paths []string, factor int, order zarrgen.DimOrder) map[string]interface{} {
	ms := Multiscale{
		Version: MultiscaleVersion,
		Name:    name,
		Metadata: Metadata{
			Method: "box",
			Order:  order,
		},
	}
	scale := zarrgen.Shape5d{1, 1, 1, 1, 1}
	for i := range levels {
		ms.Datasets = append(ms.Datasets, Dataset{Path: paths[i]})
		ms.Metadata.Factors = append(ms.Metadata.Factors, order.Apply(scale))
		scale[zarrgen.AxisX] *= int64(factor)
		scale[zarrgen.AxisY] *= int64(factor)
	}
	return map[string]interface{}{"multiscales": []Multiscale{ms}}
}

// LayoutAttrs builds the store-root attribute document.
func LayoutAttrs() map[string]interface{} {
	return map[string]interface{}{LayoutAttr: Layout}
}
