package checker

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"

	"github.com/packmad/ClosestProxy/internal/domain"
)

// ProgressFunc observes pipeline completion. It is called once per finished
// candidate, from the finishing worker's goroutine, and must not block.
type ProgressFunc func(done, total int)

// ProbeAll fans the candidates out across at most parallelism concurrent
// probes and returns one evaluation per candidate, index-aligned with the
// input. Workers share nothing: each writes only its own result slot, so a
// candidate is never probed twice and a hung endpoint delays completion by
// at most its own timeout.
//
// Candidates whose protocol the prober rejects are logged and come back with
// the zero result; they never abort the batch.
func (p *Prober) ProbeAll(ctx context.Context, candidates []domain.Candidate, parallelism int, progress ProgressFunc) []domain.Evaluation {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	evaluations := make([]domain.Evaluation, len(candidates))
	for i, candidate := range candidates {
		evaluations[i].Candidate = candidate
	}

	sem := semaphore.NewWeighted(int64(parallelism))
	var wg sync.WaitGroup
	var done atomic.Int64

	for i := range evaluations {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context gone; the remaining slots keep their zero results.
			log.Warn("evaluation interrupted", "error", err, "remaining", len(evaluations)-i)
			break
		}

		wg.Add(1)
		go func(slot *domain.Evaluation) {
			defer wg.Done()
			defer sem.Release(1)

			result, err := p.Probe(ctx, slot.Candidate)
			if err != nil {
				log.Warn("rejecting candidate", "proxy", slot.Candidate.URL(), "error", err)
			}
			slot.Result = result

			if progress != nil {
				progress(int(done.Add(1)), len(evaluations))
			}
		}(&evaluations[i])
	}

	wg.Wait()
	return evaluations
}
