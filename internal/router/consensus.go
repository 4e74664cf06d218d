package router

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/harrison/scengine/internal/models"
	"github.com/harrison/scengine/internal/provider"
)

// VerdictExtractor reduces one model's raw chat response to a short
// equivalence-class verdict string (e.g. "PASS"/"FAIL", or a normalized
// category label). Callers supply this since what counts as "agreement"
// is query-specific.
type VerdictExtractor func(resp *provider.ChatResponse) string

// Consensus fans query out to every named model concurrently, each
// bounded by perModelTimeout, and reduces the votes into a
// ConsensusResult once quorum is checked.
func (r *Router) Consensus(ctx context.Context, query models.ConsensusQuery, perModelTimeout time.Duration, extract VerdictExtractor) models.ConsensusResult {
	votes := make([]models.Vote, len(query.Models))
	var wg sync.WaitGroup

	for i, m := range query.Models {
		wg.Add(1)
		go func(idx int, model models.ModelDescriptor) {
			defer wg.Done()
			votes[idx] = r.castVote(ctx, model, query.Prompt, perModelTimeout, extract)
		}(i, m)
	}
	wg.Wait()

	return reduceVotes(votes, query.Quorum, query.TieBreak)
}

func (r *Router) castVote(ctx context.Context, model models.ModelDescriptor, prompt string, timeout time.Duration, extract VerdictExtractor) models.Vote {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := r.registry.ChatWithModel(callCtx, model.Provider, model.ModelID, prompt, provider.ChatParams{})
	if err != nil {
		cancelled := callCtx.Err() != nil
		return models.Vote{Model: model, Err: err.Error(), Cancelled: cancelled}
	}
	return models.Vote{Model: model, Verdict: extract(resp)}
}

// reduceVotes computes agreement by equivalence class, checks quorum,
// and applies the configured tie-break policy when the plurality is
// ambiguous.
func reduceVotes(votes []models.Vote, quorum int, tieBreak models.TieBreak) models.ConsensusResult {
	valid := make([]models.Vote, 0, len(votes))
	for _, v := range votes {
		if v.Err == "" {
			valid = append(valid, v)
		}
	}

	if len(valid) < quorum {
		return models.ConsensusResult{
			Votes:  votes,
			Reason: "insufficient_voters",
		}
	}

	counts := make(map[string]int)
	for _, v := range valid {
		counts[v.Verdict]++
	}

	tallies := make([]verdictTally, 0, len(counts))
	for verdict, count := range counts {
		tallies = append(tallies, verdictTally{verdict, count})
	}
	sort.Slice(tallies, func(i, j int) bool {
		if tallies[i].count != tallies[j].count {
			return tallies[i].count > tallies[j].count
		}
		return tallies[i].verdict < tallies[j].verdict
	})

	top := tallies[0]
	agreement := float64(top.count) / float64(len(valid))

	if top.count < quorum {
		return models.ConsensusResult{
			Votes:          votes,
			AgreementScore: agreement,
			Reason:         "insufficient_voters",
			Dissent:        dissentList(valid, ""),
		}
	}

	tied := len(tallies) > 1 && tallies[1].count == top.count
	winner := top.verdict
	reason := ""

	if tied {
		switch tieBreak {
		case models.TieBreakPriority:
			winner = highestPriorityVerdict(valid, tallies, top.count)
			reason = "tie_broken_by_priority"
		case models.TieBreakLongestMajority:
			winner = longestVerdict(tallies, top.count)
			reason = "tie_broken_by_longest"
		default:
			return models.ConsensusResult{
				Votes:          votes,
				AgreementScore: agreement,
				Reason:         "tie_abstained",
				Dissent:        dissentList(valid, ""),
			}
		}
	}

	return models.ConsensusResult{
		Votes:          votes,
		WinningVerdict: winner,
		AgreementScore: agreement,
		Dissent:        dissentList(valid, winner),
		Reason:         reason,
	}
}

// verdictTally is one candidate verdict's vote count.
type verdictTally struct {
	verdict string
	count   int
}

func highestPriorityVerdict(valid []models.Vote, tallies []verdictTally, topCount int) string {
	best := ""
	bestPriority := -1
	for _, t := range tallies {
		if t.count != topCount {
			continue
		}
		for _, v := range valid {
			if v.Verdict == t.verdict && v.Model.Priority > bestPriority {
				bestPriority = v.Model.Priority
				best = t.verdict
			}
		}
	}
	return best
}

func longestVerdict(tallies []verdictTally, topCount int) string {
	best := ""
	for _, t := range tallies {
		if t.count != topCount {
			continue
		}
		if len(t.verdict) > len(best) {
			best = t.verdict
		}
	}
	return best
}

func dissentList(valid []models.Vote, winner string) []string {
	var dissent []string
	for _, v := range valid {
		if v.Verdict != winner {
			dissent = append(dissent, v.Model.ModelID+":"+v.Verdict)
		}
	}
	return dissent
}
