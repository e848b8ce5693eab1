package dbserver

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arvsh/lynxdb/kvtree"
)

func writeFramed(t *testing.T, conn net.Conn, opCode byte, parts ...[]byte) {
	t.Helper()
	buf := []byte{opCode}
	for _, part := range parts {
		lengthPrefix := make([]byte, 4)
		binary.LittleEndian.PutUint32(lengthPrefix, uint32(len(part)))
		buf = append(buf, lengthPrefix...)
		buf = append(buf, part...)
	}
	_, err := conn.Write(buf)
	require.NoError(t, err)
}

func TestServerInsertAndGet(t *testing.T) {
	store := kvtree.NewHashStore(4)
	server, err := New("127.0.0.1:0", store)
	require.NoError(t, err)
	go server.Run()
	defer server.Shutdown()

	conn, err := net.Dial("tcp", server.listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	writeFramed(t, conn, opInsert, []byte("k"), []byte("v"))
	reply := make([]byte, 1)
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, err = conn.Read(reply)
	require.NoError(t, err)
	require.Equal(t, byte('O'), reply[0])

	writeFramed(t, conn, opGet, []byte("k"))
	reply = make([]byte, 1+4+1+4+1)
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, err = conn.Read(reply)
	require.NoError(t, err)
	require.Equal(t, byte('O'), reply[0])
}
