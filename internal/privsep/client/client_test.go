package client

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/pcekm/archtester/internal/privsep/messages"
)

// fakeServer answers exactly one Client request per call to respond,
// simulating the privileged process on the other end of the pipes without
// needing raw socket privileges in tests.
type fakeServer struct {
	in  *bufio.Reader
	out net.Conn
}

func newClientAndFakeServer(t *testing.T) (*Client, *fakeServer) {
	t.Helper()
	clientReadEnd, serverWriteEnd := net.Pipe()
	serverReadEnd, clientWriteEnd := net.Pipe()

	c := New(clientWriteEnd, clientReadEnd)
	s := &fakeServer{in: bufio.NewReader(serverReadEnd), out: serverWriteEnd}
	return c, s
}

func (s *fakeServer) respond(t *testing.T, reqType messages.Type, replyType messages.Type, replyArgs ...[]byte) {
	t.Helper()
	got, _, err := messages.Read(s.in)
	if err != nil {
		t.Fatalf("server read: %v", err)
	}
	if got != reqType {
		t.Fatalf("request type = %v, want %v", got, reqType)
	}
	if err := messages.Write(s.out, replyType, replyArgs...); err != nil {
		t.Fatalf("server write: %v", err)
	}
}

func TestClientOpen(t *testing.T) {
	c, s := newClientAndFakeServer(t)
	done := make(chan error, 1)
	go func() { done <- c.Open(net.ParseIP("192.0.2.1"), time.Millisecond) }()
	s.respond(t, messages.Open, messages.OpenOK)
	if err := <-done; err != nil {
		t.Fatalf("Open: %v", err)
	}
}

func TestClientSend(t *testing.T) {
	c, s := newClientAndFakeServer(t)
	done := make(chan error, 1)
	go func() { done <- c.Send([]byte("probe")) }()
	s.respond(t, messages.Send, messages.SendOK)
	if err := <-done; err != nil {
		t.Fatalf("Send: %v", err)
	}
}

func TestClientRecv(t *testing.T) {
	c, s := newClientAndFakeServer(t)
	type result struct {
		b   []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		b, err := c.Recv(context.Background())
		done <- result{b, err}
	}()
	s.respond(t, messages.Recv, messages.RecvOK, []byte("reply"))
	r := <-done
	if r.err != nil {
		t.Fatalf("Recv: %v", r.err)
	}
	if string(r.b) != "reply" {
		t.Errorf("Recv = %q, want %q", r.b, "reply")
	}
}

func TestClientRecvTimeout(t *testing.T) {
	c, s := newClientAndFakeServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	type result struct {
		b   []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		b, err := c.Recv(ctx)
		done <- result{b, err}
	}()
	s.respond(t, messages.Recv, messages.RecvTimeout)
	r := <-done
	if r.err == nil {
		t.Fatal("want timeout error")
	}
}
