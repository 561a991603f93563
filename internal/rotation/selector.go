// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package rotation

// Source is the randomness consumed by selection. *math/rand.Rand satisfies it.
type Source interface {
	// Intn returns a uniform value in [0, n). n is always > 0.
	Intn(n int) int
}

// Candidates returns the group's members that were not already claimed
// earlier in this rotation and that pass the gap rule, in configured order.
// A name listed more than once in the group is yielded once.
func Candidates(g CollectionGroup, claimed map[string]struct{}, history HistoryContext) []string {
	out := make([]string, 0, len(g.Collections))
	seen := make(map[string]struct{}, len(g.Collections))
	for _, name := range g.Collections {
		if _, taken := claimed[name]; taken {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if !IsEligible(name, g, history) {
			continue
		}
		out = append(out, name)
	}
	return out
}

// Pick draws the group's selection from its eligible candidates.
// It returns the chosen names in draw order, or a reason when nothing is chosen.
func Pick(g CollectionGroup, candidates []string, remaining int, rng Source) ([]string, *SkipReason) {
	if len(candidates) == 0 {
		return nil, reason(ReasonNoEligibleCandidates)
	}

	quotaMax := min(g.MaxPicks, remaining, len(candidates))
	if quotaMax <= 0 {
		return nil, reason(ReasonQuotaComputedZero)
	}
	quotaMin := max(min(g.MinPicks, quotaMax), 0)

	k := quotaMax
	if quotaMin != quotaMax {
		k = quotaMin + rng.Intn(quotaMax-quotaMin+1)
	}
	if k == 0 {
		return nil, reason(ReasonRandomRollZero)
	}
	return sample(candidates, k, rng), nil
}

// sample returns k distinct elements drawn uniformly without replacement
// using a partial Fisher-Yates shuffle over a copy of pool.
func sample(pool []string, k int, rng Source) []string {
	buf := make([]string, len(pool))
	copy(buf, pool)
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(buf)-i)
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf[:k:k]
}

func reason(r SkipReason) *SkipReason {
	return &r
}
