package privsep

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"net"
	"os"
	"time"

	"github.com/pcekm/archtester/internal/privsep/messages"
	"github.com/pcekm/archtester/internal/rawsock"
)

// server is the privileged half: it owns the raw socket and answers
// Open/Send/Recv/Shutdown requests from the unprivileged client over
// stdin/stdout. It never parses ICMP itself — that happens back in the
// unprivileged process, which only ever sees opaque bytes here.
type server struct {
	in  *bufio.Reader
	out io.Writer

	conn *rawsock.Conn
}

func newServer() *server {
	return &server{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

// run processes messages until Shutdown or a malformed message, per the
// package doc's robustness rule: anything that doesn't parse is fatal.
func (s *server) run() {
	for {
		t, args, err := messages.Read(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			log.Fatalf("privsep server: malformed message: %v", err)
		}

		switch t {
		case messages.Open:
			s.handleOpen(args)
		case messages.Send:
			s.handleSend(args)
		case messages.Recv:
			s.handleRecv(args)
		case messages.Shutdown:
			s.writeReply(messages.ShutdownOK)
			return
		default:
			log.Fatalf("privsep server: unknown message type %d", t)
		}
	}
}

func (s *server) handleOpen(args [][]byte) {
	if len(args) != 2 {
		log.Fatalf("privsep server: open: want 2 args, got %d", len(args))
	}
	dst := net.IP(args[0])
	pacing := time.Duration(messages.Uint64(args[1]))

	conn, err := rawsock.Dial(dst, pacing)
	if err != nil {
		s.writeReply(messages.OpenErr, []byte(err.Error()))
		return
	}
	s.conn = conn
	s.writeReply(messages.OpenOK)
}

func (s *server) handleSend(args [][]byte) {
	if len(args) != 1 {
		log.Fatalf("privsep server: send: want 1 arg, got %d", len(args))
	}
	if s.conn == nil {
		s.writeReply(messages.SendErr, []byte("not open"))
		return
	}
	if err := s.conn.Send(args[0]); err != nil {
		s.writeReply(messages.SendErr, []byte(err.Error()))
		return
	}
	s.writeReply(messages.SendOK)
}

func (s *server) handleRecv(args [][]byte) {
	if len(args) != 1 {
		log.Fatalf("privsep server: recv: want 1 arg, got %d", len(args))
	}
	if s.conn == nil {
		s.writeReply(messages.RecvErr, []byte("not open"))
		return
	}

	ctx := context.Background()
	if nanos := int64(messages.Uint64(args[0])); nanos != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, time.Unix(0, nanos))
		defer cancel()
	}

	b, err := s.conn.Recv(ctx)
	if err != nil {
		if ctx.Err() != nil {
			s.writeReply(messages.RecvTimeout)
			return
		}
		s.writeReply(messages.RecvErr, []byte(err.Error()))
		return
	}
	s.writeReply(messages.RecvOK, b)
}

func (s *server) writeReply(t messages.Type, args ...[]byte) {
	if err := messages.Write(s.out, t, args...); err != nil {
		log.Fatalf("privsep server: write reply: %v", err)
	}
}
