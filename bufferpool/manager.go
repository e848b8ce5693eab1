// Package bufferpool composes the lruk and extendiblehash containers into
// a page cache in front of a diskio.DiskManager: the hash table maps
// page ids to frame indices, and the replacer decides which pinned-free
// frame to reclaim when the pool is full.
package bufferpool

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/arvsh/lynxdb/diskio"
	"github.com/arvsh/lynxdb/extendiblehash"
	"github.com/arvsh/lynxdb/lruk"
)

// pageIDHash mixes a page id through xxhash rather than using it as its
// own hash: sequentially allocated page ids would otherwise all share low
// bits and collide in the same directory slots.
func pageIDHash(pageID uint64) uint64 {
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(pageID >> (8 * i))
	}
	return xxhash.Sum64(buf[:])
}

// Manager is a thread-safe buffer pool: a fixed number of frames, a
// page-id-to-frame directory, and an LRU-K eviction policy.
type Manager struct {
	mutex sync.Mutex

	frames     []*Frame
	pageTable  *extendiblehash.Table[uint64, int]
	replacer   *lruk.Replacer
	freeFrames *frameFreeList
	disk       diskio.DiskManager
}

// New constructs a Manager with poolSize frames. replacerK is the K in the
// LRU-K replacement policy used to pick eviction victims.
func New(poolSize, replacerK int, disk diskio.DiskManager) *Manager {
	frames := make([]*Frame, poolSize)
	for i := range frames {
		frames[i] = &Frame{frameID: i}
	}

	return &Manager{
		frames:     frames,
		pageTable:  extendiblehash.New[uint64, int](4, pageIDHash),
		replacer:   lruk.New(poolSize, replacerK),
		freeFrames: newFrameFreeList(poolSize),
		disk:       disk,
	}
}

// acquireFrame returns an index into m.frames ready to receive a page,
// evicting a victim if necessary. Callers must hold m.mutex.
func (m *Manager) acquireFrame() (int, error) {
	if idx, ok := m.freeFrames.pop(); ok {
		return idx, nil
	}

	frameID, ok := m.replacer.Evict()
	if !ok {
		return 0, ErrPoolExhausted
	}

	victim := m.frames[frameID]
	if victim.dirty {
		if err := m.disk.WritePage(victim.pageID, victim.data); err != nil {
			slog.Error("failed to flush evicted dirty page", "pageId", victim.pageID, "error", err.Error())
			return 0, err
		}
	}
	m.pageTable.Remove(victim.pageID)
	return frameID, nil
}

// FetchPage returns the frame holding pageID, reading it from disk and
// evicting a victim frame if it isn't already resident. The returned frame
// is pinned; callers must UnpinPage when done, typically via a guard.
func (m *Manager) FetchPage(pageID uint64) (*Frame, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if frameID, ok := m.pageTable.Find(pageID); ok {
		frame := m.frames[frameID]
		frame.pinCount++
		if err := m.replacer.RecordAccess(frameID); err != nil {
			return nil, err
		}
		m.replacer.SetEvictable(frameID, false)
		return frame, nil
	}

	frameID, err := m.acquireFrame()
	if err != nil {
		return nil, err
	}

	data, err := m.disk.ReadPage(pageID)
	if err != nil {
		m.freeFrames.push(frameID)
		return nil, err
	}

	frame := m.frames[frameID]
	frame.pageID = pageID
	frame.data = data
	frame.pinCount = 1
	frame.dirty = false

	m.pageTable.Insert(pageID, frameID)
	if err := m.replacer.RecordAccess(frameID); err != nil {
		return nil, err
	}
	m.replacer.SetEvictable(frameID, false)

	return frame, nil
}

// NewPage allocates a fresh page id, installs it in an available frame
// zero-filled, and returns both.
func (m *Manager) NewPage() (uint64, *Frame, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	frameID, err := m.acquireFrame()
	if err != nil {
		return 0, nil, err
	}

	pageID := m.disk.AllocatePage()

	frame := m.frames[frameID]
	frame.pageID = pageID
	frame.data = make([]byte, diskio.PageSize)
	frame.pinCount = 1
	frame.dirty = true

	m.pageTable.Insert(pageID, frameID)
	if err := m.replacer.RecordAccess(frameID); err != nil {
		return 0, nil, err
	}
	m.replacer.SetEvictable(frameID, false)

	return pageID, frame, nil
}

// UnpinPage decrements pageID's pin count, marking it dirty if requested,
// and makes it evictable once the count reaches zero. It reports false if
// the page is not resident or its pin count was already zero.
func (m *Manager) UnpinPage(pageID uint64, dirty bool) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	frameID, ok := m.pageTable.Find(pageID)
	if !ok {
		return false
	}

	frame := m.frames[frameID]
	if dirty {
		frame.dirty = true
	}
	if frame.pinCount <= 0 {
		return false
	}
	frame.pinCount--
	if frame.pinCount == 0 {
		m.replacer.SetEvictable(frameID, true)
	}
	return true
}

// DeletePage evicts pageID from the pool (flushing nothing — the caller is
// discarding the page) and returns its frame to the free list. It fails if
// the page is still pinned.
func (m *Manager) DeletePage(pageID uint64) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	frameID, ok := m.pageTable.Find(pageID)
	if !ok {
		m.disk.DeallocatePage(pageID)
		return true, nil
	}

	frame := m.frames[frameID]
	if frame.pinCount > 0 {
		return false, nil
	}

	m.pageTable.Remove(pageID)
	if err := m.replacer.Remove(frameID); err != nil {
		return false, fmt.Errorf("bufferpool: deleting page %d: %w", pageID, err)
	}

	frame.pageID = 0
	frame.data = nil
	frame.dirty = false
	m.freeFrames.push(frameID)

	m.disk.DeallocatePage(pageID)
	return true, nil
}

// FlushPage writes pageID's frame to disk if resident, regardless of its
// dirty flag, and reports whether it was found.
func (m *Manager) FlushPage(pageID uint64) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	frameID, ok := m.pageTable.Find(pageID)
	if !ok {
		return false, nil
	}

	frame := m.frames[frameID]
	if err := m.disk.WritePage(frame.pageID, frame.data); err != nil {
		return false, err
	}
	frame.dirty = false
	return true, nil
}

// Close flushes every dirty frame and closes the underlying disk manager.
func (m *Manager) Close() error {
	m.mutex.Lock()
	for _, frame := range m.frames {
		if frame.data == nil || !frame.dirty {
			continue
		}
		if err := m.disk.WritePage(frame.pageID, frame.data); err != nil {
			m.mutex.Unlock()
			return err
		}
		frame.dirty = false
	}
	m.mutex.Unlock()

	return m.disk.Close()
}
