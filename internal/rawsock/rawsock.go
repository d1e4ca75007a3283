// Package rawsock implements engine.PacketTransport over a raw IPv4 socket
// with IP_HDRINCL set, so internal/wire's hand-built headers go out on the
// wire untouched and every inbound ICMP packet delivered to this host
// arrives here regardless of which probe it answers.
package rawsock

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/time/rate"
)

const maxPacket = 1500

// Conn is a raw ICMP socket transport. It must be created by a process with
// CAP_NET_RAW (or, more commonly here, by internal/privsep's privileged
// helper and then handed across the privilege boundary).
type Conn struct {
	conn    net.PacketConn
	file    *os.File
	dst     *net.IPAddr
	limiter *rate.Limiter
}

// Dial opens a raw IPv4 socket, enables IP_HDRINCL, and records dst as the
// address every Send goes to. pacing, if nonzero, caps the rate of outbound
// Sends; a zero pacing leaves sends unthrottled.
func Dial(dst net.IP, pacing time.Duration) (*Conn, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_RAW, unix.IPPROTO_ICMP)
	if err != nil {
		return nil, fmt.Errorf("rawsock: socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_HDRINCL, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("rawsock: IP_HDRINCL: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("rawsock: set nonblocking: %w", err)
	}

	f := os.NewFile(uintptr(fd), "rawsock:icmp")
	conn, err := net.FilePacketConn(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("rawsock: file packet conn: %w", err)
	}

	var limiter *rate.Limiter
	if pacing > 0 {
		limiter = rate.NewLimiter(rate.Every(pacing), 1)
	}

	return &Conn{
		conn:    conn,
		file:    f,
		dst:     &net.IPAddr{IP: dst},
		limiter: limiter,
	}, nil
}

// Send writes a fully-formed IPv4 packet, including header, to the wire.
// Because IP_HDRINCL is set, the kernel neither fills in nor overrides any
// of the header fields internal/wire wrote.
func (c *Conn) Send(b []byte) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(context.Background()); err != nil {
			return err
		}
	}
	_, err := c.conn.WriteTo(b, c.dst)
	return err
}

// Recv waits for the next inbound packet, honoring ctx's deadline or
// cancellation. On a raw socket this returns the full IP packet, header
// included, which is exactly what internal/wire.Parser expects.
func (c *Conn) Recv(ctx context.Context) ([]byte, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	buf := make([]byte, maxPacket)
	n, _, err := c.conn.ReadFrom(buf)
	if err != nil {
		if isTimeout(err) {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return buf[:n], nil
}

func isTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	t, ok := err.(timeouter)
	return ok && t.Timeout()
}

// Close releases the underlying socket.
func (c *Conn) Close() error {
	return c.conn.Close()
}
