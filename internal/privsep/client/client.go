// Package client implements the unprivileged side of internal/privsep: it
// talks the messages protocol to the privileged server over a pair of
// pipes and exposes the result as an engine.PacketTransport.
package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pcekm/archtester/internal/privsep/messages"
)

// Client is the unprivileged half of the privilege-separated transport. All
// calls are serialized: the protocol is strictly request/response, and the
// engine never calls Send or Recv concurrently with itself.
type Client struct {
	mu  sync.Mutex
	out io.WriteCloser
	in  *bufio.Reader
	inC io.Closer
}

// New wraps a pair of pipes (out: writes to the server's stdin; in: reads
// from the server's stdout) as a Client.
func New(out io.WriteCloser, in io.ReadCloser) *Client {
	return &Client{out: out, in: bufio.NewReader(in), inC: in}
}

// Open asks the server to bind a raw socket for dst, paced no faster than
// pacing apart (zero for unthrottled).
func (c *Client) Open(dst net.IP, pacing time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := messages.Write(c.out, messages.Open, dst.To4(), messages.PutUint64(uint64(pacing))); err != nil {
		return fmt.Errorf("privsep client: open: %w", err)
	}
	t, args, err := messages.Read(c.in)
	if err != nil {
		return fmt.Errorf("privsep client: open reply: %w", err)
	}
	if t != messages.OpenOK {
		return fmt.Errorf("privsep client: open failed: %s", errArg(t, args))
	}
	return nil
}

// Send implements engine.PacketTransport.
func (c *Client) Send(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := messages.Write(c.out, messages.Send, b); err != nil {
		return fmt.Errorf("privsep client: send: %w", err)
	}
	t, args, err := messages.Read(c.in)
	if err != nil {
		return fmt.Errorf("privsep client: send reply: %w", err)
	}
	if t != messages.SendOK {
		return fmt.Errorf("privsep client: send failed: %s", errArg(t, args))
	}
	return nil
}

// Recv implements engine.PacketTransport. The deadline, if any, on ctx is
// forwarded to the server so the blocking read happens there, not here.
func (c *Client) Recv(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var deadline time.Time
	if dl, ok := ctx.Deadline(); ok {
		deadline = dl
	}
	if err := messages.Write(c.out, messages.Recv, messages.PutUint64(uint64(deadline.UnixNano()))); err != nil {
		return nil, fmt.Errorf("privsep client: recv: %w", err)
	}
	t, args, err := messages.Read(c.in)
	if err != nil {
		return nil, fmt.Errorf("privsep client: recv reply: %w", err)
	}
	switch t {
	case messages.RecvOK:
		return args[0], nil
	case messages.RecvTimeout:
		// The server gave up at the deadline forwarded from ctx; wait until
		// ctx itself observes it so the caller always gets a non-nil error.
		if _, ok := ctx.Deadline(); ok {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return nil, context.DeadlineExceeded
	default:
		return nil, fmt.Errorf("privsep client: recv failed: %s", errArg(t, args))
	}
}

// Shutdown tells the server to exit cleanly.
func (c *Client) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return messages.Write(c.out, messages.Shutdown)
}

// Close releases the client's end of the pipes.
func (c *Client) Close() error {
	return c.inC.Close()
}

func errArg(t messages.Type, args [][]byte) string {
	if len(args) == 0 {
		return fmt.Sprintf("type %d, no detail", t)
	}
	return string(args[0])
}
