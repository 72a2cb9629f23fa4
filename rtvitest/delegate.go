// Package rtvitest provides helpers for testing code built on rtvi transports.
package rtvitest

import (
	"slices"
	"sync"

	"github.com/babelforce/rtvi-go"
)

// Call is one recorded delegate callback.
type Call struct {
	Name string
	Args []any
}

// RecordingDelegate records every callback it receives in order.
type RecordingDelegate struct {
	mu    sync.Mutex
	calls []Call
}

func NewRecordingDelegate() *RecordingDelegate {
	return &RecordingDelegate{}
}

func (d *RecordingDelegate) record(name string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, Call{Name: name, Args: args})
}

// Calls returns a copy of all recorded calls.
func (d *RecordingDelegate) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.calls)
}

// Named returns the recorded calls of one callback.
func (d *RecordingDelegate) Named(name string) []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Call
	for _, c := range d.calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

func (d *RecordingDelegate) Count(name string) int {
	return len(d.Named(name))
}

// Names returns the callback names in the order received.
func (d *RecordingDelegate) Names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.calls))
	for _, c := range d.calls {
		out = append(out, c.Name)
	}
	return out
}

// States returns the states passed to OnTransportStateChanged.
func (d *RecordingDelegate) States() []rtvi.TransportState {
	var out []rtvi.TransportState
	for _, c := range d.Named("OnTransportStateChanged") {
		out = append(out, c.Args[0].(rtvi.TransportState))
	}
	return out
}

func (d *RecordingDelegate) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = nil
}

func (d *RecordingDelegate) OnTransportStateChanged(state rtvi.TransportState) {
	d.record("OnTransportStateChanged", state)
}

func (d *RecordingDelegate) OnConnected() { d.record("OnConnected") }

func (d *RecordingDelegate) OnDisconnected() { d.record("OnDisconnected") }

func (d *RecordingDelegate) OnParticipantJoined(p rtvi.Participant) {
	d.record("OnParticipantJoined", p)
}

func (d *RecordingDelegate) OnParticipantLeft(p rtvi.Participant) {
	d.record("OnParticipantLeft", p)
}

func (d *RecordingDelegate) OnBotConnected(p rtvi.Participant) {
	d.record("OnBotConnected", p)
}

func (d *RecordingDelegate) OnBotDisconnected(p rtvi.Participant) {
	d.record("OnBotDisconnected", p)
}

func (d *RecordingDelegate) OnUserStartedSpeaking() { d.record("OnUserStartedSpeaking") }

func (d *RecordingDelegate) OnUserStoppedSpeaking() { d.record("OnUserStoppedSpeaking") }

func (d *RecordingDelegate) OnBotStartedSpeaking() { d.record("OnBotStartedSpeaking") }

func (d *RecordingDelegate) OnBotStoppedSpeaking() { d.record("OnBotStoppedSpeaking") }

func (d *RecordingDelegate) OnLocalAudioLevel(level float32) {
	d.record("OnLocalAudioLevel", level)
}

func (d *RecordingDelegate) OnRemoteAudioLevel(level float32, p rtvi.Participant) {
	d.record("OnRemoteAudioLevel", level, p)
}

func (d *RecordingDelegate) OnTrackStarted(track rtvi.MediaStreamTrack, p *rtvi.Participant) {
	d.record("OnTrackStarted", track, p)
}

func (d *RecordingDelegate) OnTrackStopped(track rtvi.MediaStreamTrack, p *rtvi.Participant) {
	d.record("OnTrackStopped", track, p)
}

func (d *RecordingDelegate) OnScreenTrackStarted(track rtvi.MediaStreamTrack, p *rtvi.Participant) {
	d.record("OnScreenTrackStarted", track, p)
}

func (d *RecordingDelegate) OnScreenTrackStopped(track rtvi.MediaStreamTrack, p *rtvi.Participant) {
	d.record("OnScreenTrackStopped", track, p)
}

func (d *RecordingDelegate) OnAvailableCamsUpdated(cams []rtvi.MediaDeviceInfo) {
	d.record("OnAvailableCamsUpdated", cams)
}

func (d *RecordingDelegate) OnAvailableMicsUpdated(mics []rtvi.MediaDeviceInfo) {
	d.record("OnAvailableMicsUpdated", mics)
}

func (d *RecordingDelegate) OnAvailableSpeakersUpdated(speakers []rtvi.MediaDeviceInfo) {
	d.record("OnAvailableSpeakersUpdated", speakers)
}

func (d *RecordingDelegate) OnCamUpdated(cam *rtvi.MediaDeviceInfo) { d.record("OnCamUpdated", cam) }

func (d *RecordingDelegate) OnMicUpdated(mic *rtvi.MediaDeviceInfo) { d.record("OnMicUpdated", mic) }

func (d *RecordingDelegate) OnSpeakerUpdated(speaker *rtvi.MediaDeviceInfo) {
	d.record("OnSpeakerUpdated", speaker)
}

func (d *RecordingDelegate) OnError(err error) { d.record("OnError", err) }

var _ rtvi.Delegate = &RecordingDelegate{}
