package diskio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

type BufferedDiskManagerTestSuite struct {
	suite.Suite
	path string
	disk *BufferedDiskManager
}

func TestBufferedDiskManager(t *testing.T) {
	suite.Run(t, new(BufferedDiskManagerTestSuite))
}

func (s *BufferedDiskManagerTestSuite) SetupTest() {
	s.path = filepath.Join(s.T().TempDir(), "test.db")

	disk, err := NewBufferedDiskManager(s.path)
	s.Require().NoError(err)
	s.disk = disk
}

func (s *BufferedDiskManagerTestSuite) TearDownTest() {
	_ = s.disk.Close()
}

func (s *BufferedDiskManagerTestSuite) TestAllocateWriteReadRoundTrip() {
	pageID := s.disk.AllocatePage()

	data := make([]byte, PageSize)
	copy(data, []byte("hello page"))

	s.Require().NoError(s.disk.WritePage(pageID, data))

	got, err := s.disk.ReadPage(pageID)
	s.Require().NoError(err)
	s.Equal(data, got)
}

func (s *BufferedDiskManagerTestSuite) TestAllocateReusesDeallocatedPage() {
	a := s.disk.AllocatePage()
	b := s.disk.AllocatePage()
	s.NotEqual(a, b)

	s.disk.DeallocatePage(a)

	c := s.disk.AllocatePage()
	s.Equal(a, c)
}

func (s *BufferedDiskManagerTestSuite) TestFreelistSurvivesReopen() {
	a := s.disk.AllocatePage()
	s.disk.AllocatePage()
	s.disk.DeallocatePage(a)

	s.Require().NoError(s.disk.Close())

	reopened, err := NewBufferedDiskManager(s.path)
	s.Require().NoError(err)
	defer reopened.Close()

	reused := reopened.AllocatePage()
	s.Equal(a, reused)
}
