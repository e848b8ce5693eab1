package diskio

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeDirectIOFile is an in-memory stand-in for the O_DIRECT file handle,
// letting DirectIODiskManager's logic be exercised without a real aligned
// file descriptor.
type fakeDirectIOFile struct {
	mutex sync.Mutex
	data  []byte
}

func (f *fakeDirectIOFile) ReadAt(p []byte, off int64) (int, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	end := off + int64(len(p))
	if end > int64(len(f.data)) {
		grown := make([]byte, end)
		copy(grown, f.data)
		f.data = grown
	}
	return copy(p, f.data[off:end]), nil
}

func (f *fakeDirectIOFile) WriteAt(p []byte, off int64) (int, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	end := off + int64(len(p))
	if end > int64(len(f.data)) {
		grown := make([]byte, end)
		copy(grown, f.data)
		f.data = grown
	}
	return copy(f.data[off:end], p), nil
}

func (f *fakeDirectIOFile) Close() error { return nil }

func newTestDirectIODiskManager() *DirectIODiskManager {
	return &DirectIODiskManager{
		mutex: &sync.Mutex{},
		file:  &fakeDirectIOFile{},
	}
}

func TestDirectIODiskManagerWriteReadRoundTrip(t *testing.T) {
	disk := newTestDirectIODiskManager()

	pageID := disk.AllocatePage()
	payload := make([]byte, PageSize)
	payload[0] = 0xAB
	payload[PageSize-1] = 0xCD

	require.NoError(t, disk.WritePage(pageID, payload))

	read, err := disk.ReadPage(pageID)
	require.NoError(t, err)
	require.Equal(t, payload, read)
}

func TestDirectIODiskManagerReusesDeallocatedPage(t *testing.T) {
	disk := newTestDirectIODiskManager()

	first := disk.AllocatePage()
	second := disk.AllocatePage()
	require.NotEqual(t, first, second)

	disk.DeallocatePage(first)
	reused := disk.AllocatePage()
	require.Equal(t, first, reused)
}

func TestDirectIODiskManagerFreelistSerializeRoundTrip(t *testing.T) {
	disk := newTestDirectIODiskManager()

	disk.AllocatePage()
	disk.AllocatePage()
	third := disk.AllocatePage()
	disk.DeallocatePage(third)

	serialized := disk.serializeFreelist()

	restored := newTestDirectIODiskManager()
	restored.deserializeFreelist(serialized)

	require.Equal(t, disk.maxAllocatedPageID, restored.maxAllocatedPageID)
	require.Equal(t, disk.deallocatedPageIDs, restored.deallocatedPageIDs)
}

func TestDirectIODiskManagerCloseFlushesFreelist(t *testing.T) {
	disk := newTestDirectIODiskManager()
	disk.AllocatePage()
	require.NoError(t, disk.Close())

	file := disk.file.(*fakeDirectIOFile)
	require.Equal(t, disk.serializeFreelist(), file.data[:PageSize])
}
