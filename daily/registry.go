package daily

import (
	"sync"

	"github.com/babelforce/rtvi-go"
)

// TrackRegistry resolves RTVI track ids back to native track handles, for
// consumers like video renderers which only receive ids. It holds references
// only for the snapshot that populated it: every refresh clears it first, so
// ids from an older snapshot never resolve.
type TrackRegistry struct {
	mu     sync.RWMutex
	tracks map[rtvi.MediaTrackID]MediaTrack
}

func NewTrackRegistry() *TrackRegistry {
	return &TrackRegistry{
		tracks: make(map[rtvi.MediaTrackID]MediaTrack),
	}
}

func (r *TrackRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.tracks)
}

// Register associates id with track, replacing any previous entry for id.
func (r *TrackRegistry) Register(track MediaTrack, id rtvi.MediaTrackID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracks[id] = track
}

func (r *TrackRegistry) Resolve(id rtvi.MediaTrackID) (MediaTrack, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tracks[id]
	return t, ok
}

func (r *TrackRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tracks)
}
