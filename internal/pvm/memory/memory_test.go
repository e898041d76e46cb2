package memory

import "testing"

func TestAllocateAndReadWriteRoundTrip(t *testing.T) {
	m := New(0, nil)
	addr, err := m.Allocate(4097)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if addr != 0 {
		t.Errorf("Allocate base = %d, want 0", addr)
	}
	if err := m.WriteInt(addr, 0xDEADBEEF, 4); err != nil {
		t.Fatalf("WriteInt: %v", err)
	}
	got, err := m.ReadInt(addr, 4)
	if err != nil {
		t.Fatalf("ReadInt: %v", err)
	}
	if got != 0xDEADBEEF {
		t.Errorf("ReadInt = %#x, want 0xDEADBEEF", got)
	}
}

func TestAllocateZeroBytesReturnsNextAddressWithoutGrowing(t *testing.T) {
	m := New(0, nil)
	before, err := m.Allocate(0)
	if err != nil {
		t.Fatalf("Allocate(0): %v", err)
	}
	if before != 0 {
		t.Errorf("Allocate(0) = %d, want 0", before)
	}
	if len(m.pages) != 0 {
		t.Errorf("Allocate(0) mapped %d pages, want 0", len(m.pages))
	}
}

func TestAllocateGrowsAbovePreviousRegion(t *testing.T) {
	// Scenario 4 (spec §8): after init with heap=1 page, allocate(4097)
	// returns the next page address, mapping two new RW pages, and a
	// freshly mapped page reads as zero.
	m := New(0, nil)
	if _, err := m.Allocate(PageSize); err != nil {
		t.Fatalf("Allocate(PageSize): %v", err)
	}
	addr, err := m.Allocate(4097)
	if err != nil {
		t.Fatalf("Allocate(4097): %v", err)
	}
	if addr != PageSize {
		t.Errorf("second Allocate base = %d, want %d", addr, PageSize)
	}
	got, err := m.ReadInt(addr, 4)
	if err != nil {
		t.Fatalf("ReadInt: %v", err)
	}
	if got != 0 {
		t.Errorf("fresh page read = %d, want 0", got)
	}
}

func TestReadUnmappedPageFaults(t *testing.T) {
	m := New(0, nil)
	_, err := m.ReadSlice(0, 1)
	var pf *PageFault
	if err == nil {
		t.Fatal("expected page fault on unmapped read")
	}
	if !asPageFault(err, &pf) {
		t.Fatalf("error = %v, want *PageFault", err)
	}
	if pf.Address != 0 {
		t.Errorf("PageFault.Address = %d, want 0", pf.Address)
	}
	if m.LastViolation().Kind != ViolationNonAllocated {
		t.Errorf("LastViolation.Kind = %v, want ViolationNonAllocated", m.LastViolation().Kind)
	}
}

func TestWriteToReadOnlyPageFaults(t *testing.T) {
	m := New(0, nil)
	if err := m.AllocatePagesAt(0, 1, AccessReadOnly); err != nil {
		t.Fatalf("AllocatePagesAt: %v", err)
	}
	if err := m.WriteSlice(0, []byte{1}); err == nil {
		t.Fatal("expected page fault writing to read-only page")
	}
	if m.LastViolation().Kind != ViolationWriteProtection {
		t.Errorf("LastViolation.Kind = %v, want ViolationWriteProtection", m.LastViolation().Kind)
	}
}

func TestReadSliceRejectsCrossPageSpan(t *testing.T) {
	m := New(0, nil)
	if err := m.AllocatePagesAt(0, 2, AccessReadWrite); err != nil {
		t.Fatalf("AllocatePagesAt: %v", err)
	}
	if _, err := m.ReadSlice(PageSize-2, 4); err != ErrCrossPageRead {
		t.Errorf("ReadSlice across boundary = %v, want ErrCrossPageRead", err)
	}
}

func TestReadIntCrossesOneBoundary(t *testing.T) {
	m := New(0, nil)
	if err := m.AllocatePagesAt(0, 2, AccessReadWrite); err != nil {
		t.Fatalf("AllocatePagesAt: %v", err)
	}
	addr := uint32(PageSize - 2)
	if err := m.WriteInt(addr, 0x11223344, 4); err != nil {
		t.Fatalf("WriteInt across boundary: %v", err)
	}
	got, err := m.ReadInt(addr, 4)
	if err != nil {
		t.Fatalf("ReadInt across boundary: %v", err)
	}
	if got != 0x11223344 {
		t.Errorf("ReadInt = %#x, want 0x11223344", got)
	}
}

func TestReadIntFaultsWithoutAdjacentPage(t *testing.T) {
	m := New(0, nil)
	if err := m.AllocatePagesAt(0, 1, AccessReadWrite); err != nil {
		t.Fatalf("AllocatePagesAt: %v", err)
	}
	addr := uint32(PageSize - 2)
	if _, err := m.ReadInt(addr, 4); err != ErrCouldNotFindRwPage {
		t.Errorf("ReadInt without adjacent page = %v, want ErrCouldNotFindRwPage", err)
	}
}

func TestAllocatePagesAtRejectsOverlap(t *testing.T) {
	m := New(0, nil)
	if err := m.AllocatePagesAt(0, 1, AccessReadWrite); err != nil {
		t.Fatalf("AllocatePagesAt: %v", err)
	}
	if err := m.AllocatePagesAt(0, 1, AccessReadOnly); err != ErrPageOverlap {
		t.Errorf("overlapping AllocatePagesAt = %v, want ErrPageOverlap", err)
	}
}

func TestAllocatePagesAtRejectsUnalignedAddress(t *testing.T) {
	m := New(0, nil)
	if err := m.AllocatePagesAt(1, 1, AccessReadWrite); err != ErrUnalignedAddress {
		t.Errorf("unaligned AllocatePagesAt = %v, want ErrUnalignedAddress", err)
	}
}

func TestAllocateHonorsHeapLimit(t *testing.T) {
	limit := uint32(PageSize)
	m := New(0, &limit)
	if _, err := m.Allocate(PageSize); err != nil {
		t.Fatalf("first Allocate: %v", err)
	}
	if _, err := m.Allocate(PageSize); err != ErrMemoryLimitExceeded {
		t.Errorf("Allocate past limit = %v, want ErrMemoryLimitExceeded", err)
	}
}

func TestIsMapped(t *testing.T) {
	m := New(0, nil)
	if err := m.AllocatePagesAt(0, 1, AccessReadWrite); err != nil {
		t.Fatalf("AllocatePagesAt: %v", err)
	}
	if !m.IsMapped(0, PageSize) {
		t.Error("IsMapped(0, PageSize) = false, want true")
	}
	if m.IsMapped(0, PageSize+1) {
		t.Error("IsMapped(0, PageSize+1) = true, want false")
	}
}

func TestInitBypassesReadOnlyCheck(t *testing.T) {
	m := New(0, nil)
	if err := m.AllocatePagesAt(0, 1, AccessReadOnly); err != nil {
		t.Fatalf("AllocatePagesAt: %v", err)
	}
	if err := m.Init(0, []byte{1, 2, 3}); err != nil {
		t.Fatalf("Init on read-only page: %v", err)
	}
	got, err := m.ReadSlice(0, 3)
	if err != nil {
		t.Fatalf("ReadSlice: %v", err)
	}
	if got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("got %v, want [1 2 3]", got)
	}
}

// asPageFault is a tiny local helper so this file doesn't need to import
// "errors" just for one type assertion.
func asPageFault(err error, target **PageFault) bool {
	pf, ok := err.(*PageFault)
	if !ok {
		return false
	}
	*target = pf
	return true
}
