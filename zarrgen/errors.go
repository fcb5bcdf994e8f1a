/*
	This file defines the fatal error taxonomy for a conversion.  Every
	one of these aborts the conversion: downstream levels or metadata
	would otherwise reference incomplete data.
*/

package zarrgen

import "fmt"

// ConfigurationError marks an invalid conversion setting, surfaced before
// any planning or writing begins.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("bad configuration for %s: %s", e.Setting, e.Reason)
}

// TemplateArgumentError marks a scale-format template that references more
// substitution slots than the lookup table provides for a series.
type TemplateArgumentError struct {
	Template string
	Index    int // 1-based argument index the template references
	NumArgs  int // arguments actually available
}

func (e TemplateArgumentError) Error() string {
	return fmt.Sprintf("scale format %q references argument %d but only %d available",
		e.Template, e.Index, e.NumArgs)
}

// SourceReadError wraps a failure of the source reader.
type SourceReadError struct {
	Series  int
	Z, C, T int
	Err     error
}

func (e SourceReadError) Error() string {
	return fmt.Sprintf("can't read series %d plane (z=%d, c=%d, t=%d): %v",
		e.Series, e.Z, e.C, e.T, e.Err)
}

func (e SourceReadError) Unwrap() error { return e.Err }

// ChunkWriteError wraps a failure of the store while persisting one chunk.
type ChunkWriteError struct {
	Series int
	Level  int
	Chunk  ChunkPoint5d
	Err    error
}

func (e ChunkWriteError) Error() string {
	return fmt.Sprintf("can't write series %d level %d chunk %s: %v",
		e.Series, e.Level, e.Chunk, e.Err)
}

func (e ChunkWriteError) Unwrap() error { return e.Err }
