package bufferpool

import "sync"

// Frame is one in-memory slot of a Manager's pool. Ownership of its fields
// outside the mutex-guarded manager bookkeeping (pinCount, pageID, dirty)
// is mediated by mutex, which ReadGuard/WriteGuard acquire.
type Frame struct {
	mutex sync.RWMutex

	frameID int
	pageID  uint64
	data    []byte

	pinCount int
	dirty    bool
}

// PageID returns the page currently resident in the frame.
func (f *Frame) PageID() uint64 { return f.pageID }

// Data returns the frame's backing page buffer. Callers holding a
// ReadGuard or WriteGuard may read or write it respectively.
func (f *Frame) Data() []byte { return f.data }
