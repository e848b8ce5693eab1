package diskio

import (
	"encoding/binary"
	"os"
	"sync"
)

// BufferedDiskManager reads and writes pages through the kernel page cache
// via a plain *os.File. It is the simple default: correct, but every page
// it touches is cached twice (once here, once in the buffer pool).
type BufferedDiskManager struct {
	mutex *sync.Mutex
	file  *os.File

	deallocatedPageIDs []uint64
	maxAllocatedPageID uint64
}

// NewBufferedDiskManager opens (or creates) filePath and restores its
// free-page bookkeeping from page 0.
func NewBufferedDiskManager(filePath string) (*BufferedDiskManager, error) {
	f, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}

	disk := &BufferedDiskManager{mutex: &sync.Mutex{}, file: f}

	if stat, statErr := f.Stat(); statErr == nil && stat.Size() >= PageSize {
		data, readErr := disk.readAt(freelistPageID*PageSize, PageSize)
		if readErr != nil {
			return nil, readErr
		}
		disk.deserializeFreelist(data)
	}

	return disk, nil
}

func (disk *BufferedDiskManager) writeAt(offset int64, data []byte) error {
	n, err := disk.file.WriteAt(data, offset)
	if err != nil {
		return err
	}
	if n != len(data) {
		return incompleteIOError("write", len(data), n)
	}
	return nil
}

func (disk *BufferedDiskManager) readAt(offset int64, size int) ([]byte, error) {
	data := make([]byte, size)
	n, err := disk.file.ReadAt(data, offset)
	if err != nil {
		return nil, err
	}
	if n != size {
		return nil, incompleteIOError("read", size, n)
	}
	return data, nil
}

// ReadPage reads the page at pageID.
func (disk *BufferedDiskManager) ReadPage(pageID uint64) ([]byte, error) {
	return disk.readAt(int64(pageID)*PageSize, PageSize)
}

// WritePage writes data (which must be exactly PageSize bytes) to pageID.
func (disk *BufferedDiskManager) WritePage(pageID uint64, data []byte) error {
	return disk.writeAt(int64(pageID)*PageSize, data)
}

// AllocatePage reuses a deallocated page id if one is free, otherwise grows
// the file by one page.
func (disk *BufferedDiskManager) AllocatePage() uint64 {
	disk.mutex.Lock()
	defer disk.mutex.Unlock()

	if len(disk.deallocatedPageIDs) > 0 {
		pageID := disk.deallocatedPageIDs[0]
		disk.deallocatedPageIDs = disk.deallocatedPageIDs[1:]
		return pageID
	}

	disk.maxAllocatedPageID++
	return disk.maxAllocatedPageID
}

// DeallocatePage marks pageID as free for reuse by a later AllocatePage.
func (disk *BufferedDiskManager) DeallocatePage(pageID uint64) {
	disk.mutex.Lock()
	defer disk.mutex.Unlock()
	disk.deallocatedPageIDs = append(disk.deallocatedPageIDs, pageID)
}

// Close persists the free-page bookkeeping to page 0 and closes the file.
func (disk *BufferedDiskManager) Close() error {
	disk.mutex.Lock()
	defer disk.mutex.Unlock()

	if err := disk.writeAt(freelistPageID*PageSize, disk.serializeFreelist()); err != nil {
		return err
	}
	return disk.file.Close()
}

func (disk *BufferedDiskManager) serializeFreelist() []byte {
	data := make([]byte, PageSize)
	binary.LittleEndian.PutUint64(data[0:8], disk.maxAllocatedPageID)
	binary.LittleEndian.PutUint64(data[8:16], uint64(len(disk.deallocatedPageIDs)))

	offset := 16
	for _, id := range disk.deallocatedPageIDs {
		if offset+8 > PageSize {
			break
		}
		binary.LittleEndian.PutUint64(data[offset:offset+8], id)
		offset += 8
	}
	return data
}

func (disk *BufferedDiskManager) deserializeFreelist(data []byte) {
	disk.maxAllocatedPageID = binary.LittleEndian.Uint64(data[0:8])
	count := binary.LittleEndian.Uint64(data[8:16])

	offset := 16
	disk.deallocatedPageIDs = make([]uint64, 0, count)
	for i := uint64(0); i < count && offset+8 <= PageSize; i++ {
		disk.deallocatedPageIDs = append(disk.deallocatedPageIDs, binary.LittleEndian.Uint64(data[offset:offset+8]))
		offset += 8
	}
}
