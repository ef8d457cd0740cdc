package planner

import (
	"math"

	"audiofeeder/internal/layout"
)

// partition breaks the ordered chapter sequence into contiguous runs whose
// durations sit close to target. The walk considers, at every position, both
// extending the current run and closing it; rather than trusting the local
// comparison alone, the decision is scored against the best achievable
// arrangement of everything after the split point, so a close that looks
// good now never strands a dangling tiny final run. Runs shorter than
// minTail carry an extra penalty, and equal scores resolve toward fewer,
// longer runs: three 45-minute chapters at a 60-minute target come out as
// one 90-minute run plus one 45-minute run, never three 45s.
//
// Chapters are never split: a single chapter longer than target becomes its
// own run. The final run always closes at the end of the sequence, so every
// chapter appears in exactly one run.
func partition(chapters []layout.PlacedChapter, target, minTail float64) [][]layout.PlacedChapter {
	n := len(chapters)
	if n == 0 {
		return nil
	}

	prefix := make([]float64, n+1)
	for i, ch := range chapters {
		prefix[i+1] = prefix[i] + ch.Duration()
	}
	runCost := func(from, to int) float64 {
		sum := prefix[to] - prefix[from]
		cost := math.Abs(sum - target)
		if sum < minTail {
			cost += target
		}
		return cost
	}

	type memoEntry struct {
		score float64
		runs  int
		split int
	}
	memo := make([]memoEntry, n+1)
	memo[0] = memoEntry{split: -1}
	for i := 1; i <= n; i++ {
		best := memoEntry{score: math.Inf(1)}
		for j := 0; j < i; j++ {
			candidate := memoEntry{
				score: memo[j].score + runCost(j, i),
				runs:  memo[j].runs + 1,
				split: j,
			}
			if candidate.score < best.score ||
				(candidate.score == best.score && candidate.runs < best.runs) {
				best = candidate
			}
		}
		memo[i] = best
	}

	breaks := make([]int, 0, memo[n].runs+1)
	for i := n; i >= 0; i = memo[i].split {
		breaks = append(breaks, i)
		if i == 0 {
			break
		}
	}

	runs := make([][]layout.PlacedChapter, 0, len(breaks)-1)
	for i := len(breaks) - 1; i > 0; i-- {
		runs = append(runs, chapters[breaks[i]:breaks[i-1]])
	}
	return runs
}
