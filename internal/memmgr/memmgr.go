// memmgr.go - Contiguous first-fit memory manager with coalescing.
//
// Grounded on original_source/src/memory_manager.cpp: a single ordered
// block list covering the whole address range, one mutex, first-fit
// allocation with a split on overshoot, and coalesce-both-neighbors on
// free.
//
// License: GPLv3 or later

package memmgr

import "sync"

// Block describes one contiguous region of the address space.
type Block struct {
	Start uint64
	Size  uint64
	Free  bool
	Owner uint32 // valid only when !Free
}

// Manager is the memory manager.
type Manager struct {
	mu          sync.Mutex
	blocks      []Block
	totalMemory uint64

	// memPerFrame is parsed from configuration but never consulted by the
	// allocator (reserved for future paging).
	memPerFrame uint64
}

// New creates a manager covering [0, totalMemory) as a single free block.
func New(totalMemory, memPerFrame uint64) *Manager {
	return &Manager{
		blocks:      []Block{{Start: 0, Size: totalMemory, Free: true}},
		totalMemory: totalMemory,
		memPerFrame: memPerFrame,
	}
}

// TotalMemory returns max_overall_memory.
func (m *Manager) TotalMemory() uint64 { return m.totalMemory }

// Allocate reserves a block of exactly size bytes for pid via first-fit:
// the lowest-address free block large enough for the request. A strictly
// larger block is split into a used block of exactly size and a free
// remainder; an exact-size match is flipped in place. Returns false if no
// block is large enough (external fragmentation counts as failure — no
// compaction is performed).
func (m *Manager) Allocate(pid uint32, size uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, b := range m.blocks {
		if !b.Free || b.Size < size {
			continue
		}
		if b.Size == size {
			m.blocks[i].Free = false
			m.blocks[i].Owner = pid
			return true
		}
		used := Block{Start: b.Start, Size: size, Free: false, Owner: pid}
		rest := Block{Start: b.Start + size, Size: b.Size - size, Free: true}
		m.blocks = append(m.blocks[:i], append([]Block{used, rest}, m.blocks[i+1:]...)...)
		return true
	}
	return false
}

// Free releases the block owned by pid (at most one), marking it free and
// coalescing with its immediate left and right neighbors if they are also
// free. A no-op if pid owns nothing.
func (m *Manager) Free(pid uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i, b := range m.blocks {
		if !b.Free && b.Owner == pid {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}
	m.blocks[idx].Free = true
	m.blocks[idx].Owner = 0
	m.coalesceAt(idx)
}

// coalesceAt merges blocks[idx] with its free right neighbor, then with its
// free left neighbor, in that order (right-then-left per
// original_source/src/memory_manager.cpp).
func (m *Manager) coalesceAt(idx int) {
	if idx+1 < len(m.blocks) && m.blocks[idx+1].Free {
		m.blocks[idx].Size += m.blocks[idx+1].Size
		m.blocks = append(m.blocks[:idx+1], m.blocks[idx+2:]...)
	}
	if idx > 0 && m.blocks[idx-1].Free {
		m.blocks[idx-1].Size += m.blocks[idx].Size
		m.blocks = append(m.blocks[:idx], m.blocks[idx+1:]...)
	}
}

// IsAllocated reports whether pid currently owns a used block.
func (m *Manager) IsAllocated(pid uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.blocks {
		if !b.Free && b.Owner == pid {
			return true
		}
	}
	return false
}

// Snapshot returns a consistent copy of the block list and a count of
// distinct owners currently resident, for report writers.
func (m *Manager) Snapshot() ([]Block, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Block, len(m.blocks))
	copy(out, m.blocks)
	n := 0
	for _, b := range out {
		if !b.Free {
			n++
		}
	}
	return out, n
}

// ExternalFragmentationBytes sums the size of every free block, matching
// original_source/src/memory_manager.cpp's generate_memory_report.
func (m *Manager) ExternalFragmentationBytes() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var frag uint64
	for _, b := range m.blocks {
		if b.Free {
			frag += b.Size
		}
	}
	return frag
}
