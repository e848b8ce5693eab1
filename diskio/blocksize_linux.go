//go:build linux

package diskio

import "golang.org/x/sys/unix"

// filesystemBlockSize reports the optimal I/O block size for the
// filesystem backing path, via statfs. DirectIODiskManager uses it only to
// sanity-check that PageSize is a multiple of the underlying block size —
// O_DIRECT requires page-aligned, block-size-multiple transfers.
func filesystemBlockSize(path string) (int, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return int(stat.Bsize), nil
}
