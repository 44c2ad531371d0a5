package motion

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func region(area int) Region {
	return Region{Bounds: image.Rect(0, 0, area, 1), Area: area}
}

func TestDecideDebounce(t *testing.T) {
	engine := NewEngine()
	cfg := Config{MinArea: 1, Sensitivity: 0.5}
	now := time.Now()

	// Five consecutive cycles with qualifying regions: exactly one event,
	// at onset.
	var events []*Event
	for i := 0; i < 5; i++ {
		_, ev := engine.Decide([]Region{region(10)}, cfg, now)
		if ev != nil {
			events = append(events, ev)
		}
	}
	require.Len(t, events, 1)
	assert.Equal(t, uint64(1), events[0].Sequence)

	// Motion persists: still no new event.
	_, ev := engine.Decide([]Region{region(10)}, cfg, now)
	assert.Nil(t, ev)

	// An intervening quiet cycle re-arms the trigger.
	presence, ev := engine.Decide(nil, cfg, now)
	assert.False(t, bool(presence))
	assert.Nil(t, ev, "motion to no-motion transition is silent")

	_, ev = engine.Decide([]Region{region(10)}, cfg, now)
	require.NotNil(t, ev)
	assert.Equal(t, uint64(2), ev.Sequence)
}

func TestDecideMinAreaInclusive(t *testing.T) {
	cfg := Config{MinArea: 300}

	engine := NewEngine()
	_, ev := engine.Decide([]Region{region(300)}, cfg, time.Now())
	require.NotNil(t, ev, "area equal to min-area qualifies")

	engine = NewEngine()
	_, ev = engine.Decide([]Region{region(299)}, cfg, time.Now())
	assert.Nil(t, ev, "area below min-area is noise")
}

func TestDecideFiltersAndKeepsOrder(t *testing.T) {
	engine := NewEngine()
	cfg := Config{MinArea: 100}

	// Analyzer order: area descending.
	input := []Region{region(700), region(500), region(50)}
	_, ev := engine.Decide(input, cfg, time.Now())
	require.NotNil(t, ev)
	require.Len(t, ev.Regions, 2)
	assert.Equal(t, 700, ev.Regions[0].Area)
	assert.Equal(t, 500, ev.Regions[1].Area)
}

func TestDecideSequenceStrictlyIncreasing(t *testing.T) {
	engine := NewEngine()
	cfg := Config{MinArea: 1}
	now := time.Now()

	var seqs []uint64
	for i := 0; i < 5; i++ {
		_, ev := engine.Decide([]Region{region(5)}, cfg, now)
		require.NotNil(t, ev)
		seqs = append(seqs, ev.Sequence)
		engine.Decide(nil, cfg, now)
	}
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, seqs)
}

func TestDecideSequenceResetsPerEpisode(t *testing.T) {
	engine := NewEngine()
	cfg := Config{MinArea: 1}
	now := time.Now()

	_, ev := engine.Decide([]Region{region(5)}, cfg, now)
	require.NotNil(t, ev)
	engine.Decide(nil, cfg, now)
	_, ev = engine.Decide([]Region{region(5)}, cfg, now)
	require.NotNil(t, ev)
	require.Equal(t, uint64(2), ev.Sequence)

	engine.Reset()
	_, ev = engine.Decide([]Region{region(5)}, cfg, now)
	require.NotNil(t, ev)
	assert.Equal(t, uint64(1), ev.Sequence, "sequence restarts at 1 after reset")
}

func TestDecideScenarioMinAreaGate(t *testing.T) {
	// A detected region of area ~400 triggers at min-area 300 but not at
	// min-area 500.
	regions := []Region{{Bounds: image.Rect(40, 40, 60, 60), Area: 400}}
	now := time.Now()

	engine := NewEngine()
	_, ev := engine.Decide(regions, Config{MinArea: 300}, now)
	require.NotNil(t, ev)
	require.Len(t, ev.Regions, 1)

	engine = NewEngine()
	presence, ev := engine.Decide(regions, Config{MinArea: 500}, now)
	assert.Nil(t, ev)
	assert.False(t, bool(presence))
}

func TestQualifyEmptyInput(t *testing.T) {
	assert.Empty(t, Qualify(nil, 10))
	assert.Empty(t, Qualify([]Region{}, 10))
}
