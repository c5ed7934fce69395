package sampler

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepClock advances by a fixed amount on every read.
type stepClock struct {
	now  int64
	step int64
}

func (c *stepClock) read() int64 {
	c.now += c.step
	return c.now
}

// scriptedClock replays a fixed sequence of readings, repeating the
// final reading once exhausted.
type scriptedClock struct {
	readings []int64
	pos      int
}

func (c *scriptedClock) read() int64 {
	if c.pos >= len(c.readings) {
		return c.readings[len(c.readings)-1]
	}
	v := c.readings[c.pos]
	c.pos++
	return v
}

func TestCaptureFullRun(t *testing.T) {
	// The step does not divide the window length, so every boundary is
	// strictly crossed and all ten windows close before the deadline.
	clk := &stepClock{now: 1_000, step: 999_937}

	samples := Capture(clk.read, 1, 100)
	require.Len(t, samples, 10)

	published := Trim(samples)
	assert.Len(t, published, 10, "a fully-run capture fills every window")
	for i, s := range published {
		assert.NotZero(t, s.Timestamp, "sample %d", i)
		assert.Equal(t, clk.step, s.WorstLatency, "constant poll step means constant worst latency")
	}
}

func TestCaptureTimestampsNonDecreasing(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	clk := &stepClock{now: 1_000}
	now := func() int64 {
		clk.step = 500_000 + rng.Int63n(1_500_000)
		return clk.read()
	}

	published := Trim(Capture(now, 1, 100))
	require.NotEmpty(t, published)
	for i := 1; i < len(published); i++ {
		assert.GreaterOrEqual(t, published[i].Timestamp, published[i-1].Timestamp)
	}
}

func TestCaptureWorstLatencyPerWindow(t *testing.T) {
	const (
		start = int64(1_000)
		ms    = int64(1_000_000)
	)
	clk := &scriptedClock{readings: []int64{
		start,
		200*ms + start,
		400*ms + start,
		600*ms + start, // closes window one
		800*ms + start, // bookkeeping re-read
		1_200*ms + start, // 400ms stall, closes window two
		1_400*ms + start, // bookkeeping re-read, past the deadline
	}}

	samples := Capture(clk.read, 1, 500)
	require.Len(t, samples, 2)

	assert.Equal(t, Sample{Timestamp: 600*ms + start, WorstLatency: 200 * ms}, samples[0])
	assert.Equal(t, Sample{Timestamp: 1_200*ms + start, WorstLatency: 400 * ms}, samples[1],
		"second window's worst is measured from the re-read, not the sample emission")
}

func TestCapturePartialFinalWindowDropped(t *testing.T) {
	// 1s / 300ms: three full windows fit, the final 100ms is discarded.
	clk := &stepClock{now: 1_000, step: 997_001}

	samples := Capture(clk.read, 1, 300)
	assert.Len(t, samples, 3)
	assert.Len(t, Trim(samples), 3)
}

func TestCaptureStalledRunKeepsSentinels(t *testing.T) {
	// One poll stalls past the deadline: only the first window closes,
	// the rest of the buffer keeps its zero sentinels.
	clk := &scriptedClock{readings: []int64{1_000, 5_000_000_000}}

	samples := Capture(clk.read, 1, 100)
	require.Len(t, samples, 10)

	published := Trim(samples)
	require.Len(t, published, 1)
	assert.Equal(t, int64(5_000_000_000), published[0].Timestamp)
	for _, s := range samples[1:] {
		assert.Zero(t, s.Timestamp)
		assert.Zero(t, s.WorstLatency)
	}
}

func TestCaptureBufferFullStopsLoop(t *testing.T) {
	const start = int64(1_000)
	// Non-divisible config (three slots) where a stall keeps crossing
	// boundaries after the buffer is full; the loop must stop rather
	// than step past the sequence.
	clk := &scriptedClock{readings: []int64{
		start,
		950_000_000, // crosses boundary one in a single poll
		955_000_000,
		960_000_000, // crosses boundary two
		965_000_000,
		970_000_000, // crosses boundary three
		975_000_000,
		1_300_000_000, // would cross boundary four
	}}

	var samples []Sample
	require.NotPanics(t, func() {
		samples = Capture(clk.read, 1, 300)
	})
	require.Len(t, samples, 3)
	assert.Equal(t, int64(970_000_000), samples[2].Timestamp)
}

func TestWindowCount(t *testing.T) {
	assert.Equal(t, 100, WindowCount(10, 100))
	assert.Equal(t, 33, WindowCount(10, 300), "truncating division")
	assert.Equal(t, 1, WindowCount(1, 1000))
}

func TestTrim(t *testing.T) {
	t.Run("drops zero tail", func(t *testing.T) {
		samples := []Sample{{Timestamp: 5, WorstLatency: 1}, {Timestamp: 9, WorstLatency: 2}, {}, {}}
		assert.Len(t, Trim(samples), 2)
	})

	t.Run("keeps full sequence", func(t *testing.T) {
		samples := []Sample{{Timestamp: 5}, {Timestamp: 9}}
		assert.Len(t, Trim(samples), 2)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, Trim(nil))
	})
}
