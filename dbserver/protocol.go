package dbserver

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	opPing     byte = 'P'
	opInsert   byte = 'I'
	opDelete   byte = 'D'
	opGet      byte = 'G'
	opClose    byte = 'C'
	opShutdown byte = 'S'
)

type request struct {
	opCode byte
	body   io.Reader
}

func readRequest(conn io.Reader) (*request, error) {
	opCode, err := readNBytes(conn, 1)
	if err != nil {
		return nil, err
	}
	return &request{opCode: opCode[0], body: conn}, nil
}

func readNBytes(reader io.Reader, n int) ([]byte, error) {
	data := make([]byte, n)
	read, err := reader.Read(data)
	if err != nil {
		return nil, err
	}
	if read != n {
		return nil, fmt.Errorf("incomplete read: wanted %d bytes, got %d", n, read)
	}
	return data, nil
}

func readLengthPrefixed(reader io.Reader) ([]byte, error) {
	lengthBytes, err := readNBytes(reader, 4)
	if err != nil {
		return nil, err
	}
	length := binary.LittleEndian.Uint32(lengthBytes)
	return readNBytes(reader, int(length))
}

func decodeInsertRequestBody(reader io.Reader) (key []byte, value []byte, err error) {
	key, err = readLengthPrefixed(reader)
	if err != nil {
		return nil, nil, err
	}
	value, err = readLengthPrefixed(reader)
	if err != nil {
		return nil, nil, err
	}
	return key, value, nil
}

func decodeKeyRequestBody(reader io.Reader) ([]byte, error) {
	return readLengthPrefixed(reader)
}

func encodeOKResponse() []byte {
	return []byte{'O'}
}

func encodeShutdownMessage() []byte {
	return []byte{'S'}
}

func encodeGetResponse(key []byte, value []byte) []byte {
	response := make([]byte, 1+4+len(key)+4+len(value))
	pointer := 0
	response[pointer] = 'O'
	pointer++

	binary.LittleEndian.PutUint32(response[pointer:pointer+4], uint32(len(key)))
	pointer += 4
	copy(response[pointer:], key)
	pointer += len(key)

	binary.LittleEndian.PutUint32(response[pointer:pointer+4], uint32(len(value)))
	pointer += 4
	copy(response[pointer:], value)

	return response
}

func encodeErrorResponse(err error) []byte {
	message := []byte(err.Error())
	response := make([]byte, 1+4+len(message))
	pointer := 0
	response[pointer] = 'E'
	pointer++

	binary.LittleEndian.PutUint32(response[pointer:pointer+4], uint32(len(message)))
	pointer += 4
	copy(response[pointer:], message)

	return response
}
