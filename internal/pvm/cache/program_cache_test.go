package cache

import "testing"

func minimalProgramBlob() []byte {
	return []byte{0x00, 0x00, 0x01, 0x00, 0x01}
}

func TestGetCachesDecodedProgram(t *testing.T) {
	c, err := New(4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	blob := minimalProgramBlob()

	p1, err := c.Get(blob)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
	p2, err := c.Get(blob)
	if err != nil {
		t.Fatalf("Get (cached): %v", err)
	}
	if p1 != p2 {
		t.Error("second Get returned a different *Program than the cached one")
	}
}

func TestGetPropagatesDecodeErrors(t *testing.T) {
	c, err := New(4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Get([]byte{0x01}); err == nil {
		t.Error("Get on a malformed blob: want error, got nil")
	}
	if c.Len() != 0 {
		t.Errorf("Len after failed decode = %d, want 0", c.Len())
	}
}
