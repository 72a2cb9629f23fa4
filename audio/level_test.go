package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func TestLevelProcessor(t *testing.T) {
	var (
		clock   = &fakeClock{t: time.Unix(1_700_000_000, 0)}
		changes []bool
		p       = NewLevelProcessor(func(speaking bool) {
			changes = append(changes, speaking)
		}, WithClock(clock.now))
	)

	require.Equal(t, DefaultThreshold, p.Threshold())

	p.OnLevel(0.01)
	require.Empty(t, changes, "below threshold does not start speech")

	p.OnLevel(0.2)
	require.Equal(t, []bool{true}, changes)
	require.True(t, p.Speaking())

	// staying above the threshold does not repeat the start
	clock.advance(100 * time.Millisecond)
	p.OnLevel(0.3)
	require.Equal(t, []bool{true}, changes)

	// short dip below the threshold is debounced
	clock.advance(300 * time.Millisecond)
	p.OnLevel(0.0)
	require.Equal(t, []bool{true}, changes)

	clock.advance(DefaultSilenceDelay)
	p.OnLevel(0.0)
	require.Equal(t, []bool{true, false}, changes)
	require.False(t, p.Speaking())

	// more silence does not repeat the stop
	clock.advance(time.Second)
	p.OnLevel(0.0)
	require.Equal(t, []bool{true, false}, changes)
}

func TestLevelProcessorBotThreshold(t *testing.T) {
	var (
		clock   = &fakeClock{t: time.Unix(1_700_000_000, 0)}
		changes []bool
		local   = NewLevelProcessor(func(s bool) {}, WithClock(clock.now))
		bot     = NewLevelProcessor(func(s bool) {
			changes = append(changes, s)
		}, WithClock(clock.now), WithThreshold(BotThreshold))
	)

	local.OnLevel(0.01)
	bot.OnLevel(0.01)
	require.False(t, local.Speaking())
	require.True(t, bot.Speaking())
	require.Equal(t, []bool{true}, changes)

	bot.OnLevel(0)
	require.True(t, bot.Speaking())

	bot.Reset()
	require.False(t, bot.Speaking())
	require.Equal(t, []bool{true}, changes, "reset emits nothing")
}

func TestLevelProcessorSilenceDelay(t *testing.T) {
	var (
		clock   = &fakeClock{t: time.Unix(1_700_000_000, 0)}
		changes []bool
		p       = NewLevelProcessor(func(s bool) {
			changes = append(changes, s)
		}, WithClock(clock.now), WithSilenceDelay(0))
	)

	p.OnLevel(1)
	p.OnLevel(0)
	require.Equal(t, []bool{true, false}, changes)
}
