package zarrgen

import "testing"

func TestDimOrderValidate(t *testing.T) {
	good := []string{"XYZCT", "XYCZT", "ZYXCT", "TCZYX"}
	for _, s := range good {
		if _, err := ParseDimOrder(s); err != nil {
			t.Errorf("expected %q to validate: %v", s, err)
		}
	}
	bad := []string{"", "XY", "XYZCQ", "XXZCT", "XYZCTX"}
	for _, s := range bad {
		if _, err := ParseDimOrder(s); err == nil {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

func TestDimOrderApply(t *testing.T) {
	s := Shape5d{512, 256, 4, 2, 3}

	if got := CanonicalOrder.Apply(s); got != s {
		t.Errorf("canonical order changed shape: got %s", got)
	}
	if got := DimOrder("XYCZT").Apply(s); got != (Shape5d{512, 256, 2, 4, 3}) {
		t.Errorf("bad XYCZT permute: got %s", got)
	}
	if got := DimOrder("ZYXCT").Apply(s); got != (Shape5d{4, 256, 512, 2, 3}) {
		t.Errorf("bad ZYXCT permute: got %s", got)
	}

	c := ChunkPoint5d{1, 2, 3, 4, 5}
	if got := DimOrder("TCZYX").ApplyChunk(c); got != (ChunkPoint5d{5, 4, 3, 2, 1}) {
		t.Errorf("bad TCZYX chunk permute: got %s", got)
	}
}

func TestShapeElements(t *testing.T) {
	s := Shape5d{60, 300, 2, 3, 1}
	if got := s.Elements(); got != 60*300*2*3 {
		t.Errorf("got %d elements, expected %d", got, 60*300*2*3)
	}
}
