package lobby

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/couch-lobby/internal/engine"
	"github.com/DoyleJ11/couch-lobby/internal/input"
)

type recordingHandoff struct {
	rosters [][]engine.Pick
	maps    []int
	runs    []string
}

func (r *recordingHandoff) HandOffRoster(run string, picks []engine.Pick) {
	r.rosters = append(r.rosters, picks)
	r.runs = append(r.runs, run)
}

func (r *recordingHandoff) HandOffMap(run string, choice int) {
	r.maps = append(r.maps, choice)
	r.runs = append(r.runs, run)
}

func flowPress(f *Flow, pool *input.Pool, d input.Device, s input.Sample) []engine.Event {
	pool.Push(d, s)
	return f.Tick(0.01, pool)
}

func TestFlow_CharactersThenMapVote(t *testing.T) {
	cfg := testConfig()
	cfg.ConsensusSec = 1
	rec := &recordingHandoff{}
	f, err := NewFlow(cfg, Deps{Fallback: kb, Rng: rand.New(rand.NewSource(3))}, rec)
	require.NoError(t, err)
	pool := input.NewPool()

	flowPress(f, pool, kb, input.Sample{AnyButton: true})
	flowPress(f, pool, pad1, input.Sample{AnyButton: true})
	flowPress(f, pool, pad2, input.Sample{AnyButton: true})
	require.Equal(t, PhaseCharacters, f.Phase())

	// pad2 leaves before the countdown; only kb and pad1 go on to vote.
	flowPress(f, pool, pad2, input.Sample{Cancel: true})
	flowPress(f, pool, kb, input.Sample{Direction: input.Right})
	flowPress(f, pool, kb, input.Sample{Submit: true})
	events := flowPress(f, pool, pad1, input.Sample{Submit: true})
	require.True(t, engine.ContainsEvent(events, engine.EvtCountdownArmed))
	for _, e := range events {
		assert.Equal(t, string(KindCharacters), e.Stage)
	}

	pool.Push(kb, input.Sample{Submit: true}) // skip the wait
	events = f.Tick(0.01, pool)
	require.True(t, engine.ContainsEvent(events, engine.EvtStageStarted))
	require.Equal(t, PhaseMaps, f.Phase())
	assert.Equal(t, []engine.Pick{{Slot: 0, Choice: 1}, {Slot: 1, Choice: 0}}, f.Roster())
	require.Len(t, rec.rosters, 1)
	assert.Equal(t, f.Roster(), rec.rosters[0])
	assert.Equal(t, 2, f.Stage().Participants())

	flowPress(f, pool, kb, input.Sample{Submit: true})
	events = flowPress(f, pool, pad1, input.Sample{Submit: true})
	require.True(t, engine.ContainsEvent(events, engine.EvtStageFinalized))
	assert.Equal(t, string(KindMaps), events[len(events)-1].Stage)
	assert.Equal(t, PhaseDone, f.Phase())
	assert.Equal(t, 0, f.Winner())
	assert.Equal(t, []int{0}, rec.maps)
	assert.Equal(t, rec.runs[0], rec.runs[1], "both handoffs share the run id")

	assert.Nil(t, flowPress(f, pool, kb, input.Sample{Submit: true}))
}

func TestFlow_Restart(t *testing.T) {
	f, err := NewFlow(testConfig(), Deps{}, nil)
	require.NoError(t, err)
	pool := input.NewPool()
	flowPress(f, pool, pad1, input.Sample{AnyButton: true})
	first := f.RunID()

	require.NoError(t, f.Restart())
	assert.NotEqual(t, first, f.RunID())
	assert.Equal(t, PhaseCharacters, f.Phase())
	joined, _ := engine.Counts(f.Stage().Slots())
	assert.Zero(t, joined)
	assert.Equal(t, engine.NoChoice, f.Winner())
}

func TestNewFlow_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSlots = 0
	_, err := NewFlow(cfg, Deps{}, nil)
	require.Error(t, err)
}
