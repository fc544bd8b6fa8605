// Package rank turns raw evaluations into the ordered list handed to the
// presentation layer: failed candidates out, fastest first, optionally one
// representative per subnet.
package rank

import (
	"net/netip"
	"sort"

	"github.com/packmad/ClosestProxy/internal/domain"
)

// Filter drops evaluations whose handshake never completed and, when
// requireFunctional is set, those that failed the liveness check.
func Filter(evaluations []domain.Evaluation, requireFunctional bool) []domain.Evaluation {
	kept := make([]domain.Evaluation, 0, len(evaluations))
	for _, eval := range evaluations {
		if !eval.Result.HasLatency() {
			continue
		}
		if requireFunctional && !eval.Result.Functional {
			continue
		}
		kept = append(kept, eval)
	}
	return kept
}

// Sort orders evaluations ascending by latency in place. Ties keep their
// input order.
func Sort(evaluations []domain.Evaluation) {
	sort.SliceStable(evaluations, func(i, j int) bool {
		return evaluations[i].Result.Latency < evaluations[j].Result.Latency
	})
}

// DedupSubnet keeps the first evaluation per /maskLen network, in input
// order. Over a latency-sorted slice that means the fastest proxy of each
// subnet survives. Addresses that are not IP literals cannot share a subnet
// and always pass through.
func DedupSubnet(evaluations []domain.Evaluation, maskLen int) []domain.Evaluation {
	seen := make(map[netip.Prefix]struct{}, len(evaluations))
	kept := make([]domain.Evaluation, 0, len(evaluations))
	for _, eval := range evaluations {
		addr, err := netip.ParseAddr(eval.Candidate.Address)
		if err != nil {
			kept = append(kept, eval)
			continue
		}
		prefix, err := addr.Prefix(maskLen)
		if err != nil {
			kept = append(kept, eval)
			continue
		}
		if _, dup := seen[prefix]; dup {
			continue
		}
		seen[prefix] = struct{}{}
		kept = append(kept, eval)
	}
	return kept
}

// Rank composes filter, sort and the optional subnet dedup. A negative
// maskLen disables the dedup stage. Ranking its own output again yields the
// same sequence.
func Rank(evaluations []domain.Evaluation, requireFunctional bool, maskLen int) []domain.Evaluation {
	ranked := Filter(evaluations, requireFunctional)
	Sort(ranked)
	if maskLen >= 0 {
		ranked = DedupSubnet(ranked, maskLen)
	}
	return ranked
}
