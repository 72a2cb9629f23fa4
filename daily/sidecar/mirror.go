package sidecar

import (
	"fmt"
	"slices"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/babelforce/rtvi-go/daily"
)

// remoteTrack is a track handle announced by the sidecar. The media itself
// stays in the sidecar process.
type remoteTrack struct {
	id   string
	kind webrtc.RTPCodecType
}

func (t *remoteTrack) ID() string {
	return t.id
}

func (t *remoteTrack) Kind() webrtc.RTPCodecType {
	return t.kind
}

// mirror keeps the sidecar's view of the call so the CallClient getters can
// answer without a round trip.
type mirror struct {
	mu      sync.RWMutex
	local   *daily.Participant
	remote  []daily.Participant
	devices daily.Devices
	inputs  daily.InputSettings

	// handles are reused while a track id stays announced
	tracks map[string]*remoteTrack
}

func newMirror() *mirror {
	return &mirror{
		tracks: make(map[string]*remoteTrack),
	}
}

func (m *mirror) participants() daily.Participants {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out daily.Participants
	if m.local != nil {
		local := *m.local
		out.Local = &local
	}
	out.Remote = slices.Clone(m.remote)
	return out
}

func (m *mirror) getDevices() daily.Devices {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.devices
}

func (m *mirror) getInputs() daily.InputSettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inputs
}

func (m *mirror) setDevices(d daily.Devices) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices = d
}

func (m *mirror) setInputs(in daily.InputSettings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = in
}

func (m *mirror) apply(s *callSnapshot) error {
	if s == nil {
		return nil
	}
	if s.Devices != nil {
		m.setDevices(*s.Devices)
	}
	if s.Inputs != nil {
		m.setInputs(*s.Inputs)
	}
	for _, wp := range s.Participants {
		if _, err := m.upsert(wp); err != nil {
			return err
		}
	}
	return nil
}

// upsert adds or replaces a participant. New remote participants are
// appended so join order is kept.
func (m *mirror) upsert(wp wireParticipant) (daily.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.toNative(wp)
	if err != nil {
		return daily.Participant{}, err
	}

	if p.Info.IsLocal {
		m.local = &p
		return p, nil
	}

	if i := m.indexOf(p.ID); i >= 0 {
		m.remote[i] = p
	} else {
		m.remote = append(m.remote, p)
	}
	return p, nil
}

func (m *mirror) remove(wp wireParticipant) (daily.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.toNative(wp)
	if err != nil {
		return daily.Participant{}, err
	}

	if p.Info.IsLocal {
		m.local = nil
	} else if i := m.indexOf(p.ID); i >= 0 {
		m.remote = slices.Delete(m.remote, i, i+1)
	}
	m.forgetTracks(p)
	return p, nil
}

// leave drops every participant, the local one included.
func (m *mirror) leave() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.local = nil
	m.remote = nil
	clear(m.tracks)
}

func (m *mirror) indexOf(id daily.ParticipantID) int {
	return slices.IndexFunc(m.remote, func(p daily.Participant) bool {
		return p.ID == id
	})
}

func (m *mirror) forgetTracks(p daily.Participant) {
	if p.Media == nil {
		return
	}
	for _, info := range []daily.TrackInfo{p.Media.Microphone, p.Media.Camera, p.Media.ScreenAudio, p.Media.ScreenVideo} {
		if info.Track != nil {
			delete(m.tracks, info.Track.ID())
		}
	}
}

func (m *mirror) toNative(wp wireParticipant) (daily.Participant, error) {
	id, err := daily.ParseParticipantID(wp.ID)
	if err != nil {
		return daily.Participant{}, fmt.Errorf("participant id %q: %w", wp.ID, err)
	}

	p := daily.Participant{
		ID:   id,
		Info: daily.ParticipantInfo{Username: wp.Username, IsLocal: wp.Local},
	}
	if wp.Media != nil {
		p.Media = &daily.Media{
			Microphone:  m.trackInfo(wp.Media.Microphone, webrtc.RTPCodecTypeAudio),
			Camera:      m.trackInfo(wp.Media.Camera, webrtc.RTPCodecTypeVideo),
			ScreenAudio: m.trackInfo(wp.Media.ScreenAudio, webrtc.RTPCodecTypeAudio),
			ScreenVideo: m.trackInfo(wp.Media.ScreenVideo, webrtc.RTPCodecTypeVideo),
		}
	}
	return p, nil
}

func (m *mirror) trackInfo(wt wireTrack, kind webrtc.RTPCodecType) daily.TrackInfo {
	info := daily.TrackInfo{State: wt.State}
	if wt.TrackID == "" {
		return info
	}
	t, ok := m.tracks[wt.TrackID]
	if !ok || t.kind != kind {
		t = &remoteTrack{id: wt.TrackID, kind: kind}
		m.tracks[wt.TrackID] = t
	}
	info.Track = t
	return info
}
