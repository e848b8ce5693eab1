package bufferpool

import (
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/arvsh/lynxdb/diskio"
)

type ManagerTestSuite struct {
	suite.Suite
	disk    *diskio.BufferedDiskManager
	manager *Manager
}

func TestManager(t *testing.T) {
	suite.Run(t, new(ManagerTestSuite))
}

func (s *ManagerTestSuite) SetupTest() {
	disk, err := diskio.NewBufferedDiskManager(filepath.Join(s.T().TempDir(), "pool.db"))
	s.Require().NoError(err)
	s.disk = disk
	s.manager = New(3, 2, disk)
}

func (s *ManagerTestSuite) TearDownTest() {
	_ = s.manager.Close()
}

func (s *ManagerTestSuite) TestNewPageAndFetchRoundTrip() {
	pageID, frame, err := s.manager.NewPage()
	s.Require().NoError(err)

	binary.LittleEndian.PutUint32(frame.data[:4], 42)
	s.manager.UnpinPage(pageID, true)

	fetched, err := s.manager.FetchPage(pageID)
	s.Require().NoError(err)
	s.Equal(uint32(42), binary.LittleEndian.Uint32(fetched.data[:4]))
	s.manager.UnpinPage(pageID, false)
}

func (s *ManagerTestSuite) TestEvictionWritesBackDirtyPage() {
	pageA, frameA, err := s.manager.NewPage()
	s.Require().NoError(err)
	binary.LittleEndian.PutUint32(frameA.data[:4], 7)
	s.manager.UnpinPage(pageA, true)

	// fill the remaining two frames, then force a fourth page in. A, B and C
	// are all unpinned with a single access each, so LRU-K evicts A, whose
	// access is the oldest.
	pageB, _, err := s.manager.NewPage()
	s.Require().NoError(err)
	s.manager.UnpinPage(pageB, false)

	pageC, _, err := s.manager.NewPage()
	s.Require().NoError(err)
	s.manager.UnpinPage(pageC, false)

	pageD, _, err := s.manager.NewPage()
	s.Require().NoError(err)
	s.manager.UnpinPage(pageD, false)

	fetched, err := s.manager.FetchPage(pageA)
	s.Require().NoError(err)
	s.Equal(uint32(7), binary.LittleEndian.Uint32(fetched.data[:4]))
	s.manager.UnpinPage(pageA, false)
}

func (s *ManagerTestSuite) TestPoolExhaustedWhenNothingEvictable() {
	for i := 0; i < 3; i++ {
		_, _, err := s.manager.NewPage()
		s.Require().NoError(err)
		// leave every frame pinned
	}

	_, _, err := s.manager.NewPage()
	s.ErrorIs(err, ErrPoolExhausted)
}

func (s *ManagerTestSuite) TestDeletePageRejectsPinned() {
	pageID, _, err := s.manager.NewPage()
	s.Require().NoError(err)

	ok, err := s.manager.DeletePage(pageID)
	s.Require().NoError(err)
	s.False(ok)

	s.manager.UnpinPage(pageID, false)
	ok, err = s.manager.DeletePage(pageID)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *ManagerTestSuite) TestGuardsRoundTrip() {
	pageID, _, err := s.manager.NewPage()
	s.Require().NoError(err)
	s.manager.UnpinPage(pageID, false)

	wg, err := s.manager.NewWriteGuard(pageID)
	s.Require().NoError(err)
	binary.LittleEndian.PutUint32(wg.Data()[:4], 99)
	wg.MarkDirty()
	s.True(wg.Done())

	rg, err := s.manager.NewReadGuard(pageID)
	s.Require().NoError(err)
	s.Equal(uint32(99), binary.LittleEndian.Uint32(rg.Data()[:4]))
	s.True(rg.Done())
}
