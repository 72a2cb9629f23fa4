package audio

import "time"

const (
	// DefaultThreshold is the level above which local capture counts as speech.
	DefaultThreshold float32 = 0.05

	// BotThreshold is used for remote bot streams, which report levels close
	// to zero even when silent.
	BotThreshold float32 = 0.001

	// DefaultSilenceDelay is how long the level has to stay below the
	// threshold before speech is considered stopped.
	DefaultSilenceDelay = 700 * time.Millisecond
)

type LevelOption func(p *LevelProcessor)

func WithThreshold(threshold float32) LevelOption {
	return func(p *LevelProcessor) {
		p.threshold = threshold
	}
}

func WithSilenceDelay(d time.Duration) LevelOption {
	return func(p *LevelProcessor) {
		p.silenceDelay = d
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) LevelOption {
	return func(p *LevelProcessor) {
		p.now = now
	}
}

// LevelProcessor turns a stream of audio levels into speaking/not-speaking
// transitions. Crossing the threshold starts speech immediately, stopping
// requires the level to stay below the threshold for the silence delay.
//
// A LevelProcessor is not safe for concurrent use.
type LevelProcessor struct {
	threshold    float32
	silenceDelay time.Duration
	now          func() time.Time
	onChange     func(speaking bool)

	speaking  bool
	lastAbove time.Time
}

func NewLevelProcessor(onChange func(speaking bool), opts ...LevelOption) *LevelProcessor {
	p := &LevelProcessor{
		threshold:    DefaultThreshold,
		silenceDelay: DefaultSilenceDelay,
		now:          time.Now,
		onChange:     onChange,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// OnLevel feeds one level sample.
func (p *LevelProcessor) OnLevel(level float32) {
	now := p.now()

	if level > p.threshold {
		p.lastAbove = now
		if !p.speaking {
			p.setSpeaking(true)
		}
		return
	}

	if p.speaking && now.Sub(p.lastAbove) >= p.silenceDelay {
		p.setSpeaking(false)
	}
}

func (p *LevelProcessor) setSpeaking(speaking bool) {
	p.speaking = speaking
	if p.onChange != nil {
		p.onChange(speaking)
	}
}

func (p *LevelProcessor) Speaking() bool {
	return p.speaking
}

func (p *LevelProcessor) Threshold() float32 {
	return p.threshold
}

// Reset forgets the current determination without emitting a transition.
func (p *LevelProcessor) Reset() {
	p.speaking = false
	p.lastAbove = time.Time{}
}
