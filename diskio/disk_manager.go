// Package diskio provides the page-granular disk managers that back a
// bufferpool.Manager: a plain buffered implementation and an O_DIRECT
// implementation that bypasses the kernel page cache.
package diskio

import "fmt"

// PageSize is the fixed size, in bytes, of every page this package reads
// and writes.
const PageSize = 4096

// freelistPageID reserves page 0 for the manager's own free-page-id
// bookkeeping; it is never handed out by AllocatePage.
const freelistPageID = 0

// DiskManager reads and writes fixed-size pages and tracks which page ids
// are free to reuse. Implementations must be safe for concurrent use.
type DiskManager interface {
	ReadPage(pageID uint64) ([]byte, error)
	WritePage(pageID uint64, data []byte) error
	AllocatePage() uint64
	DeallocatePage(pageID uint64)
	Close() error
}

func incompleteIOError(op string, want, got int) error {
	return fmt.Errorf("diskio: incomplete %s: wanted %d bytes, got %d", op, want, got)
}
