// Package invoke implements Machine Invocation (spec §4.5): parsing the
// standard program blob format, seeding memory zones, and running an
// ExecutionContext to termination.
package invoke

import (
	"github.com/jamzig/jamnode/internal/codec"
	"github.com/jamzig/jamnode/internal/log"
	"github.com/jamzig/jamnode/internal/pvm"
	"github.com/jamzig/jamnode/internal/pvm/exec"
	"github.com/jamzig/jamnode/internal/pvm/memory"
)

var logger = log.Default().Module("invoke")

// header is the fixed-width standard code format header (spec §6
// "Standard program").
type header struct {
	roLen      uint32
	rwLen      uint32
	heapPages  uint16
	stackSize  uint32
	codeLen    uint32
}

const headerLen = 3 + 3 + 2 + 3 + 4 // u24 + u24 + u16 + u24 + u32

// Options configures a single invocation.
type Options struct {
	// HasMetadata indicates the blob is prefixed with E_nat(|m|) ∥ m
	// (spec §6, "metadata-prefixed form").
	HasMetadata bool
	Args        []byte
	HostCalls   exec.HostCallTable
	Gas         int64
	HeapLimit   *uint32
}

// Run parses blob per opts and executes it to termination (spec §4.5
// steps 1-5). Any malformed framing surfaces as a panic outcome with
// GasUsed == 0, never as a Go error — matching the spec's "not an error
// bubble" requirement.
func Run(blob []byte, opts Options) exec.Result {
	body := blob
	if opts.HasMetadata {
		stripped, ok := stripMetadata(blob)
		if !ok {
			return panicResult("malformed metadata prefix")
		}
		body = stripped
	}

	h, rest, ok := parseHeader(body)
	if !ok {
		return panicResult("truncated header")
	}

	roBlob, rwBlob, codeBlob, ok := splitBodies(rest, h)
	if !ok {
		return panicResult("truncated ro/rw/code section")
	}

	prog, err := pvm.Decode(codeBlob)
	if err != nil {
		return panicResult("code section: " + err.Error())
	}

	mem, layout, err := buildMemory(h, roBlob, rwBlob, opts.Args, opts.HeapLimit)
	if err != nil {
		return panicResult("memory setup: " + err.Error())
	}

	ctx := exec.NewContext(prog, mem, opts.HostCalls, opts.Gas, 0, layout.stackBase, layout.inputAddress, uint32(len(opts.Args)))
	return exec.Run(ctx, nil)
}

func panicResult(reason string) exec.Result {
	logger.Debug("invocation panicked before execution", "reason", reason)
	return exec.Result{Outcome: exec.Outcome{Kind: exec.OutcomePanic}}
}

// stripMetadata removes a leading E_nat(|m|) ∥ m segment, reporting
// failure (not an error) on a malformed or truncated size per spec §4.5
// step 1.
func stripMetadata(blob []byte) ([]byte, bool) {
	mLen, n, err := codec.DecodeNatural(blob)
	if err != nil {
		return nil, false
	}
	total := n + int(mLen)
	if total > len(blob) {
		return nil, false
	}
	return blob[total:], true
}

// parseHeader reads the fixed-width standard code format header (spec §6
// / §4.5 step 2): u24 ro, u24 rw, u16 heap_pages, u24 stack_size, u32 code.
func parseHeader(body []byte) (header, []byte, bool) {
	if len(body) < headerLen {
		return header{}, nil, false
	}
	h := header{
		roLen:     uint32(codec.Uint24(body[0:3])),
		rwLen:     uint32(codec.Uint24(body[3:6])),
		heapPages: codec.Uint16(body[6:8]),
		stackSize: uint32(codec.Uint24(body[8:11])),
		codeLen:   codec.Uint32(body[11:15]),
	}
	return h, body[headerLen:], true
}

func splitBodies(rest []byte, h header) (ro, rw, code []byte, ok bool) {
	need := int(h.roLen) + int(h.rwLen) + int(h.codeLen)
	if len(rest) < need {
		return nil, nil, nil, false
	}
	ro = rest[:h.roLen]
	rw = rest[h.roLen : h.roLen+h.rwLen]
	code = rest[h.roLen+h.rwLen : h.roLen+h.rwLen+h.codeLen]
	return ro, rw, code, true
}

// zoneLayout is the set of derived addresses buildMemory computes from a
// header, per spec §3 Memory's fixed-region formulas.
type zoneLayout struct {
	roBase       uint32
	heapBase     uint32
	inputAddress uint32
	stackBase    uint32
}

// buildMemory seeds the read-only, read-write/heap, input, and stack
// zones and returns the resulting Memory plus the addresses the execution
// context's initial registers need (spec §4.5 step 3, §3 Memory).
func buildMemory(h header, ro, rw, args []byte, heapLimit *uint32) (*memory.Memory, zoneLayout, error) {
	roAligned := memory.AlignUp(h.roLen, memory.PageSize)
	roBase := memory.ZoneSize
	heapBase := 2*memory.ZoneSize + roAligned
	// inputTop and stackTop are exclusive, page-aligned zone ends: the
	// highest input-zone byte is 0xFFFFFFFF - Z_Z - Z_I and the highest
	// stack byte is 0xFFFFFFFF - 2*Z_Z - Z_I.
	inputTop := uint32(0xFFFFFFFF) - memory.ZoneSize - memory.InputSize + 1
	stackTop := uint32(0xFFFFFFFF) - 2*memory.ZoneSize - memory.InputSize + 1

	mem := memory.New(heapBase, heapLimit)

	if h.roLen > 0 {
		if err := mem.AllocatePagesAt(uint32(roBase), roAligned/memory.PageSize, memory.AccessReadOnly); err != nil {
			return nil, zoneLayout{}, err
		}
		if err := mem.Init(uint32(roBase), ro); err != nil {
			return nil, zoneLayout{}, err
		}
	}

	rwAligned := memory.AlignUp(h.rwLen, memory.PageSize)
	if rwAligned > 0 {
		if err := mem.AllocatePagesAt(heapBase, rwAligned/memory.PageSize, memory.AccessReadWrite); err != nil {
			return nil, zoneLayout{}, err
		}
		if err := mem.Init(heapBase, rw); err != nil {
			return nil, zoneLayout{}, err
		}
	}
	if h.heapPages > 0 {
		if _, err := mem.Allocate(uint32(h.heapPages) * memory.PageSize); err != nil {
			return nil, zoneLayout{}, err
		}
	}

	inputAligned := memory.AlignUp(uint32(len(args)), memory.PageSize)
	inputAddress := inputTop
	if inputAligned > 0 {
		inputAddress = inputTop - inputAligned
		if err := mem.AllocatePagesAt(inputAddress, inputAligned/memory.PageSize, memory.AccessReadOnly); err != nil {
			return nil, zoneLayout{}, err
		}
		if err := mem.Init(inputAddress, args); err != nil {
			return nil, zoneLayout{}, err
		}
	}

	stackAligned := memory.AlignUp(h.stackSize, memory.PageSize)
	stackBase := stackTop
	if stackAligned > 0 {
		stackBase = stackTop - stackAligned
		if err := mem.AllocatePagesAt(stackBase, stackAligned/memory.PageSize, memory.AccessReadWrite); err != nil {
			return nil, zoneLayout{}, err
		}
	}

	return mem, zoneLayout{
		roBase:       uint32(roBase),
		heapBase:     heapBase,
		inputAddress: inputAddress,
		stackBase:    stackBase + stackAligned, // stack grows downward; base register starts at the top
	}, nil
}
