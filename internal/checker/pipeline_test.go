package checker

import (
	"context"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/packmad/ClosestProxy/internal/domain"
)

// muteServer accepts connections and swallows everything without answering,
// forcing each probe to ride out its full I/O timeout.
func muteServer(t *testing.T) string {
	return stubServer(t, func(conn net.Conn) {
		io.Copy(io.Discard, conn)
	})
}

func TestProbeAllCompleteAndIndexAligned(t *testing.T) {
	const timeout = 500 * time.Millisecond

	fast := stubServer(t, socks5Accept)
	mute := muteServer(t)

	addrs := []string{fast, mute, fast, mute, fast, mute}
	shouldWork := []bool{true, false, true, false, true, false}

	candidates := make([]domain.Candidate, len(addrs))
	for i, addr := range addrs {
		candidates[i] = candidateAt(t, addr, "socks5")
	}

	prober := NewProber(Config{ConnectTimeout: timeout, HandshakeOnly: true})

	var completions atomic.Int64
	var lastTotal atomic.Int64

	start := time.Now()
	evaluations := prober.ProbeAll(context.Background(), candidates, 6, func(done, total int) {
		completions.Add(1)
		lastTotal.Store(int64(total))
	})
	elapsed := time.Since(start)

	if len(evaluations) != len(candidates) {
		t.Fatalf("got %d evaluations for %d candidates", len(evaluations), len(candidates))
	}
	// With full parallelism the slow half runs concurrently, so the batch
	// finishes in roughly one timeout, not the sum of all of them.
	if elapsed > 3*timeout {
		t.Fatalf("batch took %v, want about one timeout (%v)", elapsed, timeout)
	}

	for i, eval := range evaluations {
		if eval.Candidate.HostPort() != candidates[i].HostPort() {
			t.Fatalf("slot %d holds %s, want %s", i, eval.Candidate.HostPort(), candidates[i].HostPort())
		}
		if eval.Result.HasLatency() != shouldWork[i] {
			t.Errorf("slot %d (%s): HasLatency = %v, want %v",
				i, eval.Candidate.HostPort(), eval.Result.HasLatency(), shouldWork[i])
		}
	}

	if got := completions.Load(); got != int64(len(candidates)) {
		t.Errorf("progress called %d times, want %d", got, len(candidates))
	}
	if got := lastTotal.Load(); got != int64(len(candidates)) {
		t.Errorf("progress total = %d, want %d", got, len(candidates))
	}
}

func TestProbeAllBoundsParallelism(t *testing.T) {
	var active, peak atomic.Int64

	addr := stubServer(t, func(conn net.Conn) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(100 * time.Millisecond)
		active.Add(-1)
		socks5Accept(conn)
	})

	candidates := make([]domain.Candidate, 8)
	for i := range candidates {
		candidates[i] = candidateAt(t, addr, "socks5")
	}

	prober := NewProber(Config{ConnectTimeout: 2 * time.Second, HandshakeOnly: true})
	prober.ProbeAll(context.Background(), candidates, 2, nil)

	if got := peak.Load(); got > 2 {
		t.Fatalf("observed %d concurrent probes, limit was 2", got)
	}
}

func TestProbeAllIsolatesBadCandidates(t *testing.T) {
	fast := stubServer(t, socks5Accept)

	candidates := []domain.Candidate{
		candidateAt(t, fast, "socks5"),
		{Address: "127.0.0.1", Port: 1, Protocol: domain.Protocol(42)}, // invalid
		candidateAt(t, fast, "socks5"),
	}

	prober := NewProber(Config{ConnectTimeout: time.Second, HandshakeOnly: true})
	evaluations := prober.ProbeAll(context.Background(), candidates, 3, nil)

	if len(evaluations) != 3 {
		t.Fatalf("got %d evaluations, want 3", len(evaluations))
	}
	if evaluations[1].Result.HasLatency() || evaluations[1].Result.Functional {
		t.Error("invalid candidate should carry the zero result")
	}
	if !evaluations[0].Result.Functional || !evaluations[2].Result.Functional {
		t.Error("valid candidates must not be affected by an invalid sibling")
	}
}

func TestProbeAllEmptyInput(t *testing.T) {
	prober := NewProber(Config{})
	if got := prober.ProbeAll(context.Background(), nil, 4, nil); len(got) != 0 {
		t.Fatalf("got %d evaluations for empty input", len(got))
	}
}
