// Package memory implements the PVM's paged, 32-bit virtual address space:
// a sparse page table over fixed-size pages, per-page access flags, and the
// cross-page-aware read/write helpers the execution core and host-call
// layer both depend on (spec §3 Memory, §4.3 Memory Model).
package memory

import (
	"errors"
	"sort"
)

// Page and zone geometry constants (spec glossary Z_P, Z_Z, Z_I, Z_A).
const (
	PageSize   = 4096    // Z_P: bytes per page
	ZoneSize   = 65536   // Z_Z: bytes per major zone
	InputSize  = 1 << 24 // Z_I: size of the reserved input zone
	JumpAlign  = 2       // Z_A: indirect jump address alignment
	AddrSpace  = 1 << 32 // total addressable byte range
)

// Access describes a page's permitted operations.
type Access uint8

const (
	AccessNone Access = iota
	AccessReadOnly
	AccessReadWrite
)

// Sentinel errors for the memory-error taxonomy (spec §7 "Memory errors").
var (
	ErrPageFault           = errors.New("memory: page fault")
	ErrCrossPageRead       = errors.New("memory: read_slice crosses a page boundary")
	ErrCrossPageWrite      = errors.New("memory: write_slice crosses a page boundary")
	ErrPageOverlap         = errors.New("memory: allocate_pages_at overlaps an existing page")
	ErrMemoryLimitExceeded = errors.New("memory: heap allocation limit exceeded")
	ErrUnalignedAddress    = errors.New("memory: address is not page-aligned")
	ErrCouldNotFindRwPage  = errors.New("memory: no adjacent read-write page for cross-page access")
)

// ViolationKind classifies the last recorded memory fault.
type ViolationKind uint8

const (
	ViolationNone ViolationKind = iota
	ViolationWriteProtection
	ViolationAccessViolation
	ViolationNonAllocated
)

// ViolationInfo records the most recent fault, per spec §3 Memory
// ("A ViolationInfo records the last fault").
type ViolationInfo struct {
	Kind    ViolationKind
	Address uint32
	Size    uint32
}

// PageFault wraps ErrPageFault with the faulting address so callers can
// build a precise exception report.
type PageFault struct {
	Address uint32
}

func (f *PageFault) Error() string { return ErrPageFault.Error() }
func (f *PageFault) Unwrap() error { return ErrPageFault }

// page holds one mapped page's backing bytes and access flags. Pages are
// allocated lazily; the zero value of a page's bytes is all-zero memory.
type page struct {
	addr   uint32 // page-aligned base address
	access Access
	data   [PageSize]byte
}

// Memory is the PVM's sparse paged address space. Pages are stored sorted
// by address (spec §4.3 invariant) to support binary-search lookup and
// contiguous-page traversal.
type Memory struct {
	pages          []*page
	heapLimit      *uint32 // optional cap on heap growth, in bytes above heapBase
	heapBase       uint32  // address the next allocate() call grows from
	lastViolation  ViolationInfo
}

// New returns an empty address space with no pages mapped. heapBase is the
// address the first allocate() call will place its pages at; heapLimit, if
// non-nil, bounds total heap growth in bytes above heapBase.
func New(heapBase uint32, heapLimit *uint32) *Memory {
	return &Memory{heapBase: heapBase, heapLimit: heapLimit}
}

// AlignUp rounds n up to the nearest multiple of align.
func AlignUp(n, align uint32) uint32 {
	if n%align == 0 {
		return n
	}
	return (n/align + 1) * align
}

// LastViolation returns the most recently recorded fault.
func (m *Memory) LastViolation() ViolationInfo { return m.lastViolation }

func pageBase(addr uint32) uint32 { return addr - addr%PageSize }
func pageOffset(addr uint32) uint32 { return addr % PageSize }

func (m *Memory) find(addr uint32) (int, bool) {
	i := sort.Search(len(m.pages), func(i int) bool { return m.pages[i].addr >= addr })
	if i < len(m.pages) && m.pages[i].addr == addr {
		return i, true
	}
	return i, false
}

func (m *Memory) pageAt(addr uint32) *page {
	i, ok := m.find(pageBase(addr))
	if !ok {
		return nil
	}
	return m.pages[i]
}

func (m *Memory) insert(p *page) {
	i, ok := m.find(p.addr)
	if ok {
		m.pages[i] = p
		return
	}
	m.pages = append(m.pages, nil)
	copy(m.pages[i+1:], m.pages[i:])
	m.pages[i] = p
}

// AllocatePagesAt maps count pages starting at the page-aligned addr with
// the given access. addr must already be page-aligned; overlapping any
// existing page is an error (spec §4.3 "allocate_pages_at").
func (m *Memory) AllocatePagesAt(addr uint32, count uint32, access Access) error {
	if addr%PageSize != 0 {
		return ErrUnalignedAddress
	}
	for i := uint32(0); i < count; i++ {
		a := addr + i*PageSize
		if _, ok := m.find(a); ok {
			return ErrPageOverlap
		}
	}
	for i := uint32(0); i < count; i++ {
		a := addr + i*PageSize
		m.insert(&page{addr: a, access: access})
	}
	return nil
}

// Allocate rounds bytes up to a whole number of pages and maps them
// ReadWrite directly above the highest currently mapped RW page (or
// heapBase if none exist yet), returning the new region's base address.
// bytes == 0 returns the next free address without allocating anything
// (spec §4.3 "allocate(bytes)").
func (m *Memory) Allocate(bytes uint32) (uint32, error) {
	top := m.heapBase
	for _, p := range m.pages {
		if p.access == AccessReadWrite && p.addr+PageSize > top {
			top = p.addr + PageSize
		}
	}
	if bytes == 0 {
		return top, nil
	}
	pages := AlignUp(bytes, PageSize) / PageSize
	if m.heapLimit != nil && (top+pages*PageSize-m.heapBase) > *m.heapLimit {
		return 0, ErrMemoryLimitExceeded
	}
	if err := m.AllocatePagesAt(top, pages, AccessReadWrite); err != nil {
		return 0, err
	}
	return top, nil
}

// Init bulk-writes data into already-allocated pages starting at addr,
// bypassing the ReadOnly access check (spec §4.3: "used only for seeding
// on construction").
func (m *Memory) Init(addr uint32, data []byte) error {
	remaining := data
	cur := addr
	for len(remaining) > 0 {
		off := pageOffset(cur)
		p := m.pageAt(cur)
		if p == nil {
			m.lastViolation = ViolationInfo{Kind: ViolationNonAllocated, Address: cur, Size: uint32(len(remaining))}
			return &PageFault{Address: cur}
		}
		chunk := PageSize - off
		if chunk > uint32(len(remaining)) {
			chunk = uint32(len(remaining))
		}
		copy(p.data[off:off+chunk], remaining[:chunk])
		remaining = remaining[chunk:]
		cur += chunk
	}
	return nil
}

// ReadSlice returns a borrowed view of len bytes at addr. Per spec §4.3,
// read_slice never crosses a page boundary: a request spanning two pages
// fails with ErrCrossPageRead regardless of whether both are mapped.
func (m *Memory) ReadSlice(addr uint32, length uint32) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	off := pageOffset(addr)
	if off+length > PageSize {
		return nil, ErrCrossPageRead
	}
	p := m.pageAt(addr)
	if p == nil {
		m.lastViolation = ViolationInfo{Kind: ViolationNonAllocated, Address: addr, Size: length}
		return nil, &PageFault{Address: addr}
	}
	return p.data[off : off+length], nil
}

// WriteSlice writes data at addr, never crossing a page boundary (spec
// §4.3: symmetric to ReadSlice). Every touched page must be ReadWrite.
func (m *Memory) WriteSlice(addr uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	off := pageOffset(addr)
	if off+uint32(len(data)) > PageSize {
		return ErrCrossPageWrite
	}
	p := m.pageAt(addr)
	if p == nil {
		m.lastViolation = ViolationInfo{Kind: ViolationNonAllocated, Address: addr, Size: uint32(len(data))}
		return &PageFault{Address: addr}
	}
	if p.access != AccessReadWrite {
		m.lastViolation = ViolationInfo{Kind: ViolationWriteProtection, Address: addr, Size: uint32(len(data))}
		return &PageFault{Address: addr}
	}
	copy(p.data[off:off+uint32(len(data))], data)
	return nil
}

// ReadInt reads n little-endian bytes at addr as an unsigned integer,
// supporting a read that crosses exactly one boundary into the next
// contiguously allocated page (spec §4.3: "read_int supports cross-page
// reads across two adjacent contiguously allocated pages").
func (m *Memory) ReadInt(addr uint32, n uint32) (uint64, error) {
	off := pageOffset(addr)
	if off+n <= PageSize {
		b, err := m.ReadSlice(addr, n)
		if err != nil {
			return 0, err
		}
		return leUint64(b), nil
	}
	firstLen := PageSize - off
	p0 := m.pageAt(addr)
	p1 := m.pageAt(addr + firstLen)
	if p0 == nil || p1 == nil || p1.addr != p0.addr+PageSize {
		m.lastViolation = ViolationInfo{Kind: ViolationNonAllocated, Address: addr, Size: n}
		return 0, ErrCouldNotFindRwPage
	}
	buf := make([]byte, n)
	copy(buf[:firstLen], p0.data[off:])
	copy(buf[firstLen:], p1.data[:n-firstLen])
	return leUint64(buf), nil
}

// WriteInt writes v's low n bytes little-endian at addr, supporting a
// write that crosses exactly one boundary into the next contiguously
// allocated, ReadWrite page.
func (m *Memory) WriteInt(addr uint32, v uint64, n uint32) error {
	off := pageOffset(addr)
	buf := make([]byte, n)
	for i := uint32(0); i < n; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	if off+n <= PageSize {
		return m.WriteSlice(addr, buf)
	}
	firstLen := PageSize - off
	p0 := m.pageAt(addr)
	p1 := m.pageAt(addr + firstLen)
	if p0 == nil || p1 == nil || p1.addr != p0.addr+PageSize {
		m.lastViolation = ViolationInfo{Kind: ViolationNonAllocated, Address: addr, Size: n}
		return &PageFault{Address: addr}
	}
	if p0.access != AccessReadWrite || p1.access != AccessReadWrite {
		m.lastViolation = ViolationInfo{Kind: ViolationWriteProtection, Address: addr, Size: n}
		return &PageFault{Address: addr}
	}
	copy(p0.data[off:], buf[:firstLen])
	copy(p1.data[:n-firstLen], buf[firstLen:])
	return nil
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i, x := range b {
		v |= uint64(x) << uint(8*i)
	}
	return v
}

// IsMapped reports whether every byte in [addr, addr+size) lies on a
// mapped page, without reading or faulting.
func (m *Memory) IsMapped(addr uint32, size uint32) bool {
	if size == 0 {
		return true
	}
	cur := pageBase(addr)
	last := pageBase(addr + size - 1)
	for cur <= last {
		if m.pageAt(cur) == nil {
			return false
		}
		cur += PageSize
	}
	return true
}
