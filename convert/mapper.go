package convert

import (
	"encoding/csv"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/janelia-flyem/zarrgen/zarrgen"
)

// Mapper resolves where each (series, level) dataset lives in the store.
// Paths come from a positional format template whose arguments are the
// series index, the level, and any extra columns looked up by series
// index in a user-supplied CSV table.
type Mapper struct {
	format string
	rows   [][]string
}

// NewMapper parses the template and optional CSV lookup table.
func NewMapper(format, csvPath string) (*Mapper, error) {
	m := &Mapper{format: format}
	if csvPath != "" {
		f, err := os.Open(csvPath)
		if err != nil {
			return nil, fmt.Errorf("can't open scale format args %q: %v", csvPath, err)
		}
		defer f.Close()
		r := csv.NewReader(f)
		r.FieldsPerRecord = -1
		m.rows, err = r.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("can't parse scale format args %q: %v", csvPath, err)
		}
	}
	return m, nil
}

// Validate rejects a template that references more substitution slots
// than any series' lookup row provides.  Called before any writing.
func (m *Mapper) Validate(seriesCount int) error {
	maxIndex := maxTemplateIndex(m.format)
	for series := 0; series < seriesCount; series++ {
		if available := len(m.args(series, 0)); maxIndex > available {
			return zarrgen.TemplateArgumentError{
				Template: m.format,
				Index:    maxIndex,
				NumArgs:  available,
			}
		}
	}
	return nil
}

// args builds the substitution values for one dataset path.
func (m *Mapper) args(series, level int) []interface{} {
	args := []interface{}{strconv.Itoa(series), strconv.Itoa(level)}
	if series < len(m.rows) {
		for _, col := range m.rows[series] {
			args = append(args, col)
		}
	}
	return args
}

// DatasetPath returns the store path of one resolution level's array.
func (m *Mapper) DatasetPath(series, level int) (string, error) {
	rendered := fmt.Sprintf(m.format, m.args(series, level)...)
	if strings.Contains(rendered, "%!") {
		return "", zarrgen.TemplateArgumentError{
			Template: m.format,
			Index:    maxTemplateIndex(m.format),
			NumArgs:  len(m.args(series, level)),
		}
	}
	return path.Clean(rendered), nil
}

// SeriesGroup returns the store path of the series group holding the
// level datasets, i.e. the parent of the level-0 dataset path.
func (m *Mapper) SeriesGroup(series int) (string, error) {
	dataset, err := m.DatasetPath(series, 0)
	if err != nil {
		return "", err
	}
	group := path.Dir(dataset)
	if group == "." {
		group = ""
	}
	return group, nil
}

// LevelPath returns a level's dataset path relative to its series group,
// as recorded in the multiscale metadata.
func (m *Mapper) LevelPath(series, level int) (string, error) {
	dataset, err := m.DatasetPath(series, level)
	if err != nil {
		return "", err
	}
	group, err := m.SeriesGroup(series)
	if err != nil {
		return "", err
	}
	if group == "" {
		return dataset, nil
	}
	return strings.TrimPrefix(dataset, group+"/"), nil
}

// maxTemplateIndex returns the highest 1-based argument index the format
// template can consume, following fmt's rules: each verb advances a
// cursor, and an explicit "[n]" resets it.
func maxTemplateIndex(format string) int {
	max, cursor := 0, 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		i++
		if i >= len(format) || format[i] == '%' {
			continue
		}
		if format[i] == '[' {
			j := i + 1
			n := 0
			for j < len(format) && format[j] >= '0' && format[j] <= '9' {
				n = n*10 + int(format[j]-'0')
				j++
			}
			if j < len(format) && format[j] == ']' {
				cursor = n - 1
				i = j
			}
		}
		cursor++
		if cursor > max {
			max = cursor
		}
	}
	return max
}
