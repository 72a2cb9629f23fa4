package daily

import (
	"sync"

	"github.com/babelforce/rtvi-go"
)

// TrackChange is one started or stopped track produced by a refresh.
type TrackChange struct {
	Started     bool
	Participant *rtvi.Participant
	Category    rtvi.MediaCategory
	Track       rtvi.MediaStreamTrack
}

// reconciler derives the bot participant and the track snapshot from the
// native participants and diffs consecutive snapshots.
type reconciler struct {
	mu       sync.Mutex
	registry *TrackRegistry

	current *rtvi.Tracks
	local   *rtvi.Participant
	bot     *rtvi.Participant
}

func newReconciler(registry *TrackRegistry) *reconciler {
	return &reconciler{registry: registry}
}

func participantTracks(p *Participant, registry *TrackRegistry) rtvi.ParticipantTracks {
	var out rtvi.ParticipantTracks
	if p == nil {
		return out
	}
	for _, c := range rtvi.MediaCategories {
		track := p.Media.track(c)
		if track == nil {
			continue
		}
		id := rtvi.MediaTrackID(track.ID())
		registry.Register(track, id)
		out = out.WithSlot(c, id)
	}
	return out
}

func toRtviPtr(p *Participant) *rtvi.Participant {
	if p == nil {
		return nil
	}
	rp := p.toRtvi()
	return &rp
}

// refresh captures a new snapshot from participants and returns the track
// changes relative to the previous one. Without any participants nothing is
// captured: the previous snapshot and its registry entries are kept.
func (r *reconciler) refresh(participants Participants) (*rtvi.Participant, rtvi.Tracks, []TrackChange) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if participants.IsEmpty() {
		return nil, rtvi.Tracks{}, nil
	}

	r.registry.Clear()

	nativeBot := participants.Bot()
	local := toRtviPtr(participants.Local)
	bot := toRtviPtr(nativeBot)

	snap := rtvi.Tracks{
		Local: participantTracks(participants.Local, r.registry),
		Bot:   participantTracks(nativeBot, r.registry),
	}

	var changes []TrackChange
	if r.current == nil {
		changes = append(changes, started(snap.Local, local)...)
		changes = append(changes, started(snap.Bot, bot)...)
	} else {
		changes = append(changes, diff(r.current.Local, snap.Local, r.local, local)...)
		changes = append(changes, diff(r.current.Bot, snap.Bot, r.bot, bot)...)
	}

	r.current = &snap
	r.local = local
	r.bot = bot

	return bot, snap, changes
}

func started(tracks rtvi.ParticipantTracks, p *rtvi.Participant) []TrackChange {
	var out []TrackChange
	for _, c := range rtvi.MediaCategories {
		if id := tracks.Slot(c); id != "" {
			out = append(out, newChange(true, p, c, id))
		}
	}
	return out
}

func diff(prev, cur rtvi.ParticipantTracks, prevP, curP *rtvi.Participant) []TrackChange {
	var out []TrackChange
	for _, c := range rtvi.MediaCategories {
		before, after := prev.Slot(c), cur.Slot(c)
		if before == after {
			continue
		}
		if before != "" {
			out = append(out, newChange(false, prevP, c, before))
		}
		if after != "" {
			out = append(out, newChange(true, curP, c, after))
		}
	}
	return out
}

func newChange(started bool, p *rtvi.Participant, c rtvi.MediaCategory, id rtvi.MediaTrackID) TrackChange {
	return TrackChange{
		Started:     started,
		Participant: p,
		Category:    c,
		Track:       rtvi.MediaStreamTrack{ID: id, Kind: c.Kind()},
	}
}

// snapshot returns the current snapshot, nil before the first refresh.
func (r *reconciler) snapshot() *rtvi.Tracks {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil
	}
	snap := *r.current
	return &snap
}

func (r *reconciler) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registry.Clear()
	r.current = nil
	r.local = nil
	r.bot = nil
}
