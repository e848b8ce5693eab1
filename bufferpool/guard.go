package bufferpool

// ReadGuard provides shared read access to a page's frame, holding the
// frame's RWMutex for read and releasing the manager's pin on Done.
type ReadGuard struct {
	active  bool
	frame   *Frame
	manager *Manager
}

// NewReadGuard fetches pageID and returns an active read guard over it.
func (m *Manager) NewReadGuard(pageID uint64) (*ReadGuard, error) {
	frame, err := m.FetchPage(pageID)
	if err != nil {
		return nil, err
	}

	frame.mutex.RLock()
	return &ReadGuard{active: true, frame: frame, manager: m}, nil
}

// Data returns the page bytes, or nil if the guard is no longer active.
func (g *ReadGuard) Data() []byte {
	if !g.active {
		return nil
	}
	return g.frame.data
}

// PageID returns the guarded page's id, or 0 if the guard is inactive.
func (g *ReadGuard) PageID() uint64 {
	if !g.active {
		return 0
	}
	return g.frame.pageID
}

// Done releases the read lock and unpins the page. A guard is single-use:
// further calls after Done are no-ops reporting false.
func (g *ReadGuard) Done() bool {
	if !g.active {
		return false
	}
	g.manager.UnpinPage(g.frame.pageID, false)
	g.frame.mutex.RUnlock()

	g.active = false
	g.frame = nil
	g.manager = nil
	return true
}

// WriteGuard provides exclusive write access to a page's frame.
type WriteGuard struct {
	active  bool
	frame   *Frame
	manager *Manager
}

// NewWriteGuard fetches pageID and returns an active write guard over it.
func (m *Manager) NewWriteGuard(pageID uint64) (*WriteGuard, error) {
	frame, err := m.FetchPage(pageID)
	if err != nil {
		return nil, err
	}

	frame.mutex.Lock()
	return &WriteGuard{active: true, frame: frame, manager: m}, nil
}

// Data returns the mutable page bytes, or nil if the guard is inactive.
func (g *WriteGuard) Data() []byte {
	if !g.active {
		return nil
	}
	return g.frame.data
}

// PageID returns the guarded page's id, or 0 if the guard is inactive.
func (g *WriteGuard) PageID() uint64 {
	if !g.active {
		return 0
	}
	return g.frame.pageID
}

// MarkDirty flags the underlying frame as dirty so it gets flushed on
// eviction or Close.
func (g *WriteGuard) MarkDirty() bool {
	if !g.active {
		return false
	}
	g.frame.dirty = true
	return true
}

// Done releases the write lock and unpins the page.
func (g *WriteGuard) Done() bool {
	if !g.active {
		return false
	}
	g.manager.UnpinPage(g.frame.pageID, g.frame.dirty)
	g.frame.mutex.Unlock()

	g.active = false
	g.frame = nil
	g.manager = nil
	return true
}

// DeletePage releases the write lock (without persisting it) and asks the
// manager to delete the underlying page. It reports whether deletion
// succeeded; on success the guard becomes inactive.
func (g *WriteGuard) DeletePage() (bool, error) {
	if !g.active {
		return false, nil
	}

	pageID := g.frame.pageID
	g.frame.mutex.Unlock()
	g.manager.UnpinPage(pageID, false)

	ok, err := g.manager.DeletePage(pageID)
	if ok {
		g.active = false
		g.frame = nil
		g.manager = nil
	}
	return ok, err
}
