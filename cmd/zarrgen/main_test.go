package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestUsageRendersVerbatim(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf)
	out := buf.String()

	// The documented default path template must appear literally, not be
	// consumed as format verbs.
	if !strings.Contains(out, `"%[1]s/%[2]s"`) {
		t.Errorf("help text missing literal default scale format")
	}
	if strings.Contains(out, "%!") {
		t.Errorf("help text corrupted by format expansion:\n%s", out)
	}
}
