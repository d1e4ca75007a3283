// Command archtester determines the IP-layer hop count to a destination by
// adaptively varying ICMPv4 TTLs and interpreting the Echo Replies and
// Time Exceeded / Destination Unreachable errors that come back.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/pcekm/archtester/internal/engine"
	"github.com/pcekm/archtester/internal/privsep"
	"github.com/pcekm/archtester/internal/privsep/client"
	"github.com/pcekm/archtester/internal/rawsock"
	"github.com/pcekm/archtester/internal/resolve"
	"github.com/pcekm/archtester/internal/stats"
	"github.com/pcekm/archtester/internal/wire"
)

// version is set at build time via -ldflags; it defaults to "dev" for local
// builds run straight from source.
var version = "dev"

func main() {
	privClient, shutdownPrivsep := privsep.Initialize()
	defer shutdownPrivsep()

	os.Exit(run(privClient))
}

type flags struct {
	iface              string
	startTTL, maxTTL   int
	maxProbes          int
	maxTries           int
	parallel           int
	noParallel         bool
	probePacing        time.Duration
	size               int
	algorithm          string
	noLikelyCandidates bool
	plainDistribution  bool
	retransmitPriority bool
	newProbePriority   bool
	noReadjust         bool
	progress           bool
	quiet              bool
	detailedProgress   bool
	machineReadable    bool
	humanReadable      bool
	statisticsBrief    bool
	statisticsFull     bool
	noStatistics       bool
	debug              bool
	showVersion        bool
}

func parseFlags(args []string) (*flags, string, error) {
	fs := pflag.NewFlagSet("archtester", pflag.ContinueOnError)
	f := &flags{}

	fs.StringVar(&f.iface, "interface", "", "outgoing network interface")
	fs.IntVar(&f.startTTL, "startttl", engine.DefaultStartTTL, "first TTL to probe (sequential algorithms)")
	fs.IntVar(&f.maxTTL, "maxttl", engine.DefaultMaxTTL, "largest TTL ever probed")
	fs.IntVar(&f.maxProbes, "maxprobes", engine.DefaultMaxProbes, "maximum probes (including retransmissions) before giving up")
	fs.IntVar(&f.maxTries, "maxtries", engine.DefaultMaxTries, "attempts at one TTL before marking it unreachable")
	fs.IntVar(&f.parallel, "parallel", engine.DefaultParallel, "maximum outstanding probes at once")
	fs.BoolVar(&f.noParallel, "no-parallel", false, "equivalent to -parallel=1")
	fs.DurationVar(&f.probePacing, "probe-pacing", 0, "minimum spacing between new probes")
	fs.IntVar(&f.size, "size", 0, "ICMP payload size in bytes")
	fs.StringVar(&f.algorithm, "algorithm", "binarysearch", "random|sequential|reversesequential|binarysearch")
	fs.BoolVar(&f.noLikelyCandidates, "no-likely-candidates", false, "disable binary search's bias toward typical Internet hop counts")
	fs.Bool("likely-candidates", true, "bias binary search toward typical Internet hop counts (default)")
	fs.BoolVar(&f.plainDistribution, "plain-distribution", false, "use plain index-based binary search partitioning")
	fs.Bool("probabilistic-distribution", true, "weight binary search candidates by prior probability (default)")
	fs.BoolVar(&f.retransmitPriority, "retransmit-priority", false, "always retransmit a stalled probe rather than spend the token elsewhere")
	fs.BoolVar(&f.newProbePriority, "new-probe-priority", true, "prefer sending a fresh TTL over retransmitting a stalled probe (default)")
	fs.BoolVar(&f.noReadjust, "no-readjust", false, "disable snapping sequential algorithms back into the learned interval")
	fs.Bool("readjust", true, "snap sequential algorithms back into the learned interval (default)")
	fs.BoolVar(&f.progress, "progress", true, "print a line per probe sent/received")
	fs.BoolVar(&f.quiet, "quiet", false, "suppress progress output")
	fs.BoolVar(&f.detailedProgress, "detailed-progress", false, "resolve and print peer names in progress output")
	fs.BoolVar(&f.machineReadable, "machine-readable", false, "emit the single-line hops:reachability conclusion")
	fs.BoolVar(&f.humanReadable, "human-readable", true, "emit the prose conclusion (default)")
	fs.BoolVar(&f.statisticsBrief, "statistics", false, "print brief statistics after the conclusion")
	fs.BoolVar(&f.statisticsFull, "full-statistics", false, "print full statistics after the conclusion")
	fs.BoolVar(&f.noStatistics, "no-statistics", false, "suppress statistics even if requested")
	fs.BoolVar(&f.debug, "debug", false, "print verbose diagnostic information")
	fs.BoolVar(&f.showVersion, "version", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}
	if f.showVersion {
		return f, "", nil
	}
	if fs.NArg() != 1 {
		return nil, "", fmt.Errorf("expected exactly one destination argument, got %d", fs.NArg())
	}
	return f, fs.Arg(0), nil
}

func run(privClient *client.Client) int {
	f, dest, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if f.showVersion {
		fmt.Println(version)
		return 0
	}
	if f.maxTTL < 1 {
		fmt.Fprintln(os.Stderr, "archtester: -maxttl must be at least 1")
		return 1
	}

	destIP, err := resolve.Destination(dest)
	if err != nil {
		fmt.Fprintln(os.Stderr, "archtester:", err)
		return 1
	}
	srcIP, err := resolve.SourceAddr(f.iface, destIP)
	if err != nil {
		fmt.Fprintln(os.Stderr, "archtester:", err)
		return 1
	}

	algorithm, err := parseAlgorithm(f.algorithm)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	parallel := f.parallel
	if f.noParallel {
		parallel = 1
	}
	readjust := !f.noReadjust

	cfg := &engine.Config{
		StartTTL:                           f.startTTL,
		MaxTTL:                             f.maxTTL,
		MaxProbes:                          f.maxProbes,
		MaxTries:                           f.maxTries,
		Parallel:                           parallel,
		ProbePacing:                        f.probePacing,
		ICMPDataLength:                     f.size,
		Algorithm:                          algorithm,
		NoLikelyCandidates:                 f.noLikelyCandidates,
		PlainDistribution:                  f.plainDistribution,
		PreferRetransmissionsOverNewProbes: f.retransmitPriority,
		NoReadjust:                         f.noReadjust,
	}

	transport, closeTransport, err := openTransport(privClient, destIP, f.probePacing)
	if err != nil {
		fmt.Fprintln(os.Stderr, "archtester:", err)
		return 1
	}
	defer closeTransport()

	reporter := newCLIReporter(f, destIP)
	eng := engine.New(cfg, engine.Deps{
		Transport: transport,
		Builder:   wire.Builder{Src: srcIP, Dst: destIP},
		Parser:    wire.Parser{Src: srcIP, Dst: destIP},
		Reporter:  reporter,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT)
	defer cancel()

	out, err := eng.Run(ctx)
	switch err {
	case nil, engine.ErrInterrupted:
		// Whatever was learned before cancellation is still worth reporting.
	case engine.ErrProbeTableExhausted:
		fmt.Fprintln(os.Stderr, "archtester: probe table exhausted")
		return 1
	default:
		fmt.Fprintln(os.Stderr, "archtester:", err)
		return 1
	}

	report := stats.Summarize(dest, destIP.String(), f.maxTTL, out, algorithm.String(), parallel, readjust)
	printReport(f, report)
	return 0
}

func parseAlgorithm(s string) (engine.Algorithm, error) {
	switch s {
	case "random":
		return engine.Random, nil
	case "sequential":
		return engine.Sequential, nil
	case "reversesequential":
		return engine.ReverseSequential, nil
	case "binarysearch":
		return engine.BinarySearch, nil
	default:
		return 0, fmt.Errorf("archtester: unknown algorithm %q", s)
	}
}

func printReport(f *flags, report stats.Report) {
	if f.machineReadable {
		fmt.Println(report.MachineReadable())
		return
	}

	detail := ""
	if f.statisticsFull && !f.noStatistics {
		detail = "full"
	} else if f.statisticsBrief && !f.noStatistics {
		detail = "brief"
	}
	fmt.Print(report.HumanReadable(detail))
}

// openTransport picks the raw transport directly when the process already
// has the privileges it needs, and otherwise routes every Send/Recv through
// the privileged helper.
func openTransport(privClient *client.Client, dst net.IP, pacing time.Duration) (engine.PacketTransport, func(), error) {
	if privClient == nil {
		conn, err := rawsock.Dial(dst, pacing)
		if err != nil {
			return nil, nil, fmt.Errorf("opening raw socket: %w", err)
		}
		return conn, func() { conn.Close() }, nil
	}

	if err := privClient.Open(dst, pacing); err != nil {
		return nil, nil, fmt.Errorf("opening privileged socket: %w", err)
	}
	return privClient, func() {}, nil
}
