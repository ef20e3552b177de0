package consensus

import (
	"errors"
	"math/rand"
	"slices"
)

var ErrNoCandidates = errors.New("tally needs at least one candidate")
var ErrNoSlots = errors.New("tally needs at least one slot")
var ErrUnknownCandidate = errors.New("unknown candidate")
var ErrUnknownSlot = errors.New("unknown slot")
var ErrNoVote = errors.New("slot has not voted")
var ErrVoteFinal = errors.New("vote changes are not allowed")
var ErrFinalized = errors.New("tally already finalized")

// Tally counts one vote per slot over a fixed candidate list. Slots are
// 0..slots-1.
//
// Invariant: the sum of Counts equals the number of recorded votes.
type Tally struct {
	counts       []int
	slots        int
	votes        map[int]int // slot -> candidate
	allowChanges bool
	rng          *rand.Rand

	finalized bool
	winner    int
}

func NewTally(candidates, slots int, allowChanges bool, rng *rand.Rand) (*Tally, error) {
	if candidates <= 0 {
		return nil, ErrNoCandidates
	}
	if slots <= 0 {
		return nil, ErrNoSlots
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Tally{
		counts:       make([]int, candidates),
		slots:        slots,
		votes:        make(map[int]int),
		allowChanges: allowChanges,
		rng:          rng,
	}, nil
}

// SubmitVote records or changes slot's vote. Re-voting the same candidate is a
// no-op. It reports whether anything changed.
func (t *Tally) SubmitVote(slot, candidate int) (bool, error) {
	if t.finalized {
		return false, ErrFinalized
	}
	if slot < 0 || slot >= t.slots {
		return false, ErrUnknownSlot
	}
	if candidate < 0 || candidate >= len(t.counts) {
		return false, ErrUnknownCandidate
	}
	prev, ok := t.votes[slot]
	if ok {
		if prev == candidate {
			return false, nil
		}
		if !t.allowChanges {
			return false, ErrVoteFinal
		}
		t.counts[prev]--
	}
	t.votes[slot] = candidate
	t.counts[candidate]++
	return true, nil
}

// RetractVote removes slot's vote and returns the candidate it was for.
func (t *Tally) RetractVote(slot int) (int, error) {
	return t.retract(slot, false)
}

// Forfeit removes the vote of a slot whose device was unplugged. It ignores
// the vote-change rule.
func (t *Tally) Forfeit(slot int) (int, error) {
	return t.retract(slot, true)
}

func (t *Tally) retract(slot int, force bool) (int, error) {
	if t.finalized {
		return 0, ErrFinalized
	}
	if slot < 0 || slot >= t.slots {
		return 0, ErrUnknownSlot
	}
	prev, ok := t.votes[slot]
	if !ok {
		return 0, ErrNoVote
	}
	if !t.allowChanges && !force {
		return 0, ErrVoteFinal
	}
	delete(t.votes, slot)
	t.counts[prev]--
	return prev, nil
}

func (t *Tally) AllVoted(participants int) bool {
	return len(t.votes) >= participants
}

// Winner picks the candidate with most votes. Ties are broken uniformly at
// random among the tied candidates; with no votes at all every candidate is
// tied at zero.
func (t *Tally) Winner() int {
	best := slices.Max(t.counts)
	tied := make([]int, 0, len(t.counts))
	for c, n := range t.counts {
		if n == best {
			tied = append(tied, c)
		}
	}
	return tied[t.rng.Intn(len(tied))]
}

// Finalize computes the winner once and returns the cached value afterwards.
func (t *Tally) Finalize() int {
	if !t.finalized {
		t.winner = t.Winner()
		t.finalized = true
	}
	return t.winner
}

func (t *Tally) Finalized() bool { return t.finalized }

func (t *Tally) VoteOf(slot int) (int, bool) {
	c, ok := t.votes[slot]
	return c, ok
}

func (t *Tally) Votes() int { return len(t.votes) }

func (t *Tally) Candidates() int { return len(t.counts) }

func (t *Tally) Counts() []int { return slices.Clone(t.counts) }
