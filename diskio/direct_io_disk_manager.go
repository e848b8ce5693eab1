package diskio

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/ncw/directio"
)

// DirectIODiskManager reads and writes pages through O_DIRECT, bypassing
// the kernel page cache: a page cached by the buffer pool is cached
// exactly once, and the database controls precisely when it hits disk.
// Reads and writes must use directio.AlignedBlock-backed buffers, which is
// why every page this manager reads is returned in such a buffer and every
// page it is given to write is first copied into one.
type DirectIODiskManager struct {
	mutex *sync.Mutex
	file  directIOFile

	deallocatedPageIDs []uint64
	maxAllocatedPageID uint64
}

// directIOFile is the subset of *os.File this manager depends on, so tests
// can substitute a fake without touching O_DIRECT semantics.
type directIOFile interface {
	ReadAt(p []byte, off int64) (int, error)
	WriteAt(p []byte, off int64) (int, error)
	Close() error
}

// NewDirectIODiskManager opens (or creates) filePath with O_DIRECT and
// restores free-page bookkeeping from page 0.
func NewDirectIODiskManager(filePath string) (*DirectIODiskManager, error) {
	file, err := directio.OpenFile(filePath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}

	if blockSize, err := filesystemBlockSize(filePath); err == nil && PageSize%blockSize != 0 {
		slog.Error("page size is not a multiple of the filesystem block size", "pageSize", PageSize, "blockSize", blockSize)
		return nil, fmt.Errorf("diskio: page size %d is not a multiple of block size %d", PageSize, blockSize)
	}

	disk := &DirectIODiskManager{mutex: &sync.Mutex{}, file: file}

	stat, err := file.Stat()
	if err != nil {
		slog.Error("failed to stat direct I/O file", "error", err.Error(), "path", filePath)
		return nil, err
	}
	if stat.Size() >= PageSize {
		data, readErr := disk.readAligned(freelistPageID*PageSize, PageSize)
		if readErr != nil {
			return nil, readErr
		}
		disk.deserializeFreelist(data)
	}

	return disk, nil
}

func (disk *DirectIODiskManager) readAligned(offset int64, size int) ([]byte, error) {
	buf := directio.AlignedBlock(size)

	n, err := disk.file.ReadAt(buf, offset)
	if err != nil {
		slog.Error("direct I/O read failed", "offset", offset, "error", err.Error())
		return nil, err
	}
	if n != size {
		return nil, incompleteIOError("read", size, n)
	}
	return buf, nil
}

func (disk *DirectIODiskManager) writeAligned(offset int64, data []byte) error {
	buf := directio.AlignedBlock(len(data))
	copy(buf, data)

	n, err := disk.file.WriteAt(buf, offset)
	if err != nil {
		slog.Error("direct I/O write failed", "offset", offset, "error", err.Error())
		return err
	}
	if n != len(buf) {
		return incompleteIOError("write", len(buf), n)
	}
	return nil
}

// ReadPage reads the page-aligned page at pageID.
func (disk *DirectIODiskManager) ReadPage(pageID uint64) ([]byte, error) {
	return disk.readAligned(int64(pageID)*PageSize, PageSize)
}

// WritePage writes data (at most PageSize bytes) to pageID, copying it into
// an aligned buffer before issuing the write.
func (disk *DirectIODiskManager) WritePage(pageID uint64, data []byte) error {
	return disk.writeAligned(int64(pageID)*PageSize, data)
}

// AllocatePage reuses a deallocated page id if one is free, otherwise grows
// the allocated-page high-water mark by one.
func (disk *DirectIODiskManager) AllocatePage() uint64 {
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

// DeallocatePage marks pageID as free for reuse.
func (disk *DirectIODiskManager) DeallocatePage(pageID uint64) {
	disk.mutex.Lock()
	defer disk.mutex.Unlock()
	disk.deallocatedPageIDs = append(disk.deallocatedPageIDs, pageID)
}

// Close persists free-page bookkeeping to page 0 and closes the file.
func (disk *DirectIODiskManager) Close() error {
	disk.mutex.Lock()
	defer disk.mutex.Unlock()

	if err := disk.writeAligned(freelistPageID*PageSize, disk.serializeFreelist()); err != nil {
		return err
	}
	return disk.file.Close()
}

func (disk *DirectIODiskManager) serializeFreelist() []byte {
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

func (disk *DirectIODiskManager) deserializeFreelist(data []byte) {
	disk.maxAllocatedPageID = binary.LittleEndian.Uint64(data[0:8])
	count := binary.LittleEndian.Uint64(data[8:16])

	offset := 16
	disk.deallocatedPageIDs = make([]uint64, 0, count)
	for i := uint64(0); i < count && offset+8 <= PageSize; i++ {
		disk.deallocatedPageIDs = append(disk.deallocatedPageIDs, binary.LittleEndian.Uint64(data[offset:offset+8]))
		offset += 8
	}
}
