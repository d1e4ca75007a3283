/*
Package privsep runs the raw socket in a separate, privileged process.

It works as a client/server: the main program is the client, and a
privileged copy of the same binary runs as the server, connected over a
pair of pipes. The client never touches the socket directly; every Send
and Recv crosses the pipe as a message and comes back as a reply.

# Rationale

Opening a raw ICMPv4 socket requires CAP_NET_RAW (commonly granted here via
the setuid bit) on Linux. The straightforward approach — open the socket,
then drop privileges — doesn't fit this program, because IP_HDRINCL sockets
are opened exactly once per run and then used for the run's whole lifetime;
there's no later point at which a second, unprivileged process could take
over cleanly. Privilege separation keeps the window of elevated privilege
to the smallest piece of code that needs it.

# Rules

  - Keep this package as simple and easy to read as possible.
  - Postel's law does not apply here. This package should be as finicky as
    possible, and should os.Exit at the first sign of malformed input.
  - Call Initialize in main before everything else. It should be the
    literal first line.
  - No 3rd party packages imported directly by this file. The scrutiny
    standard library code gets is higher than most 3rd party code, and this
    file runs before privileges are dropped.
  - No unsafe.

# Protocol

See internal/privsep/messages for the wire format between client and
server.
*/
package privsep

import (
	"bufio"
	"errors"
	"io"
	"log"
	"os"
	"os/exec"
	"syscall"

	"github.com/pcekm/archtester/internal/privsep/client"
)

const startPrivFlag = "[privileged]"

// Initialize forks a privileged copy of the running binary (if privileges
// are available to drop) and returns both a Client wired to it and a
// shutdown function. If the process isn't setuid, it returns a nil Client
// and a no-op shutdown function; callers fall back to an unprivileged
// transport in that case.
//
// Must be the first line of main.
func Initialize() (*client.Client, func()) {
	if len(os.Args) == 2 && os.Args[1] == startPrivFlag {
		log.Printf("privsep: starting privileged server")
		newServer().run()
		os.Exit(0)
	}

	if os.Getuid() == os.Geteuid() {
		return nil, func() {}
	}

	if err := dropPrivileges(); err != nil {
		log.Fatalf("privsep: dropping privileges: %v", err)
	}

	me, err := os.Executable()
	if err != nil {
		log.Fatalf("privsep: determining self executable: %v", err)
	}
	cmd := exec.Command(me, startPrivFlag)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		log.Fatalf("privsep: stdout pipe: %v", err)
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		log.Fatalf("privsep: stdin pipe: %v", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		log.Fatalf("privsep: stderr pipe: %v", err)
	}
	go logStderr(stderr)

	if err := cmd.Start(); err != nil {
		log.Fatalf("privsep: starting privileged server: %v", err)
	}

	waited := make(chan struct{})
	go func() {
		defer close(waited)
		if err := cmd.Wait(); err != nil {
			log.Printf("privsep: server exited: %v", err)
		}
	}()

	c := client.New(stdin, stdout)
	shutdown := func() {
		if err := c.Shutdown(); err != nil {
			log.Printf("privsep: shutdown: %v", err)
			_ = cmd.Process.Kill()
		}
		_ = c.Close()
		<-waited
	}
	return c, shutdown
}

func logStderr(r io.Reader) {
	rb := bufio.NewReader(r)
	for {
		line, err := rb.ReadString('\n')
		if line != "" {
			log.Printf("privsep: %s", line)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("privsep: reading stderr: %v", err)
			}
			return
		}
	}
}

// dropPrivileges permanently gives up root, then verifies it can't be
// regained, per the package's no-Postel's-law rule: any unexpected state
// here is a reason to fail loudly, not to continue under ambiguous
// privilege.
func dropPrivileges() error {
	uid := syscall.Getuid()
	if err := syscall.Setuid(uid); err != nil {
		return err
	}
	if syscall.Getuid() != syscall.Geteuid() {
		return errors.New("privsep: uid and euid differ after setuid")
	}
	if err := syscall.Seteuid(0); err == nil {
		return errors.New("privsep: unexpectedly able to regain root")
	}
	return nil
}
