package daily

import (
	"log/slog"
	"time"

	"github.com/babelforce/rtvi-go"
	"github.com/babelforce/rtvi-go/audio"
	"github.com/babelforce/rtvi-go/proto"
)

type transportOptions struct {
	id                 string
	logger             *slog.Logger
	delegate           rtvi.Delegate
	requestTimeout     time.Duration
	audioLevelInterval time.Duration
	localSpeaking      bool
	localThreshold     float32
	botThreshold       float32
	silenceDelay       time.Duration
	clock              func() time.Time
}

type Option func(opts *transportOptions)

func withDefaults() Option {
	return withOptions(
		WithID(proto.ID()),
		WithLogger(slog.Default()),
		WithRequestTimeout(5*time.Second),
		WithAudioLevelInterval(100*time.Millisecond),
		WithLocalSpeakingDetection(true),
		WithSpeakingThresholds(audio.DefaultThreshold, audio.BotThreshold),
		WithSilenceDelay(audio.DefaultSilenceDelay),
		withClock(time.Now),
	)
}

func withOptions(os ...Option) Option {
	return func(opts *transportOptions) {
		for _, o := range os {
			o(opts)
		}
	}
}

func WithID(id string) Option {
	return func(opts *transportOptions) {
		opts.id = id
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(opts *transportOptions) {
		opts.logger = logger
	}
}

func WithDelegate(d rtvi.Delegate) Option {
	return func(opts *transportOptions) {
		opts.delegate = d
	}
}

// WithRequestTimeout bounds native calls the transport issues on its own,
// such as the client-ready message.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(opts *transportOptions) {
		opts.requestTimeout = timeout
	}
}

func WithAudioLevelInterval(interval time.Duration) Option {
	return func(opts *transportOptions) {
		opts.audioLevelInterval = interval
	}
}

// WithLocalSpeakingDetection toggles user started/stopped speaking events
// derived from the local audio level.
func WithLocalSpeakingDetection(enabled bool) Option {
	return func(opts *transportOptions) {
		opts.localSpeaking = enabled
	}
}

func WithSpeakingThresholds(local, bot float32) Option {
	return func(opts *transportOptions) {
		opts.localThreshold = local
		opts.botThreshold = bot
	}
}

func WithSilenceDelay(d time.Duration) Option {
	return func(opts *transportOptions) {
		opts.silenceDelay = d
	}
}

func withClock(now func() time.Time) Option {
	return func(opts *transportOptions) {
		opts.clock = now
	}
}
