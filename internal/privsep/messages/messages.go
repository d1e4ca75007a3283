// Package messages implements the byte-framed protocol spoken between
// internal/privsep's unprivileged client and its privileged server over a
// pair of pipes.
//
// Messages are formatted as:
//
//	<type><num_args>{<arg>}*
//
// Each arg is a variable-length byte string with a 32-bit big-endian length
// prefix:
//
//	<len>{<byte>}*
//
// This package has no 3rd party imports and no unsafe, matching the rest of
// internal/privsep: it runs as part of the trust boundary between the
// unprivileged process and the privileged socket-owning one.
package messages

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Type identifies a message's purpose.
type Type byte

// Message types exchanged between client and server.
const (
	Open Type = iota + 1
	OpenOK
	OpenErr
	Send
	SendOK
	SendErr
	Recv
	RecvOK
	RecvTimeout
	RecvErr
	Shutdown
	ShutdownOK
)

// ErrMalformed is returned (and, server-side, treated as fatal) for any
// message that doesn't parse as the protocol describes.
var ErrMalformed = errors.New("messages: malformed message")

// Write encodes and writes one message: a type byte, an arg count byte, and
// each arg as a 4-byte length prefix followed by its bytes.
func Write(w io.Writer, t Type, args ...[]byte) error {
	if len(args) > 255 {
		return fmt.Errorf("messages: too many args (%d)", len(args))
	}
	buf := make([]byte, 0, 2+len(args)*4)
	buf = append(buf, byte(t), byte(len(args)))
	for _, a := range args {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(a)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, a...)
	}
	_, err := w.Write(buf)
	return err
}

// Read parses one message from r. A clean io.EOF before a message starts is
// returned as is, so the server can tell a closed pipe apart; any other I/O
// or framing error is wrapped with ErrMalformed so the server side can treat
// it uniformly as fatal.
func Read(r *bufio.Reader) (Type, [][]byte, error) {
	header := make([]byte, 2)
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil, err
		}
		return 0, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	t := Type(header[0])
	n := int(header[1])

	args := make([][]byte, n)
	for i := 0; i < n; i++ {
		lenBuf := make([]byte, 4)
		if _, err := io.ReadFull(r, lenBuf); err != nil {
			return 0, nil, fmt.Errorf("%w: arg length: %v", ErrMalformed, err)
		}
		l := binary.BigEndian.Uint32(lenBuf)
		arg := make([]byte, l)
		if _, err := io.ReadFull(r, arg); err != nil {
			return 0, nil, fmt.Errorf("%w: arg body: %v", ErrMalformed, err)
		}
		args[i] = arg
	}
	return t, args, nil
}

// PutUint64 and Uint64 are tiny helpers so callers don't need their own
// encoding/binary import for the integer args this protocol carries (a
// recv deadline, a pacing duration).
func PutUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func Uint64(b []byte) uint64 { return binary.BigEndian.Uint64(b) }
