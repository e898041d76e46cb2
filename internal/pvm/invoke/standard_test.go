package invoke

import (
	"testing"

	"github.com/jamzig/jamnode/internal/codec"
	"github.com/jamzig/jamnode/internal/pvm/exec"
)

// buildStandardBlob assembles a standard-format program blob: the fixed
// header followed by ro/rw blobs and a minimal raw program.
func buildStandardBlob(t *testing.T, ro, rw []byte, heapPages uint16, stackSize uint32) []byte {
	t.Helper()
	// A program whose single instruction is trap: |jt|=0, item_len=0,
	// |code|=1, code=[trap], mask=[0x01].
	code := []byte{0x00, 0x00, 0x01, 0x00, 0x01}

	h := make([]byte, headerLen)
	codec.PutUint24(h[0:3], uint32(len(ro)))
	codec.PutUint24(h[3:6], uint32(len(rw)))
	codec.PutUint16(h[6:8], heapPages)
	codec.PutUint24(h[8:11], stackSize)
	codec.PutUint32(h[11:15], uint32(len(code)))

	blob := append([]byte{}, h...)
	blob = append(blob, ro...)
	blob = append(blob, rw...)
	blob = append(blob, code...)
	return blob
}

func TestRunMinimalStandardProgramTraps(t *testing.T) {
	blob := buildStandardBlob(t, nil, nil, 0, 4096)
	res := Run(blob, Options{Gas: 1000})
	if res.Outcome.Kind != exec.OutcomePanic {
		t.Fatalf("Outcome = %v, want panic (trap)", res.Outcome.Kind)
	}
}

func TestRunRejectsTruncatedHeader(t *testing.T) {
	res := Run([]byte{0x01, 0x02, 0x03}, Options{Gas: 1000})
	if res.Outcome.Kind != exec.OutcomePanic {
		t.Fatalf("Outcome = %v, want panic on truncated header", res.Outcome.Kind)
	}
	if res.GasUsed != 0 {
		t.Errorf("GasUsed = %d, want 0", res.GasUsed)
	}
}

func TestRunStripsMetadataPrefix(t *testing.T) {
	body := buildStandardBlob(t, nil, nil, 0, 4096)
	meta := []byte{0xAA, 0xBB}
	blob := append([]byte{byte(len(meta))}, meta...)
	blob = append(blob, body...)

	res := Run(blob, Options{HasMetadata: true, Gas: 1000})
	if res.Outcome.Kind != exec.OutcomePanic {
		t.Fatalf("Outcome = %v, want panic (trap)", res.Outcome.Kind)
	}
}

func TestRunRejectsMalformedMetadataSize(t *testing.T) {
	blob := []byte{0x7F, 0x00} // claims 127 bytes of metadata, has 1
	res := Run(blob, Options{HasMetadata: true, Gas: 1000})
	if res.Outcome.Kind != exec.OutcomePanic {
		t.Fatalf("Outcome = %v, want panic on malformed metadata size", res.Outcome.Kind)
	}
}

func TestRunSeedsArgumentsIntoInputZone(t *testing.T) {
	// A program that loads r7/r8 are preset by NewContext; here we just
	// confirm a non-empty Args blob doesn't break invocation setup.
	blob := buildStandardBlob(t, []byte("readonly-data"), []byte{1, 2, 3, 4}, 1, 4096)
	res := Run(blob, Options{Args: []byte("hello"), Gas: 1000})
	if res.Outcome.Kind != exec.OutcomePanic {
		t.Fatalf("Outcome = %v, want panic (trap)", res.Outcome.Kind)
	}
}
