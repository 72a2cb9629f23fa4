package daily

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"
)

var (
	localID = ParticipantID(uuid.MustParse("0b3f5a52-6f3c-4b3a-9a51-1f4f2f0c0001"))
	botID   = ParticipantID(uuid.MustParse("0b3f5a52-6f3c-4b3a-9a51-1f4f2f0c0002"))
	otherID = ParticipantID(uuid.MustParse("0b3f5a52-6f3c-4b3a-9a51-1f4f2f0c0003"))
)

type joinCall struct {
	roomURL  string
	token    string
	settings *ClientSettings
}

// fakeClient is an in-memory CallClient. Tests mutate its view of the call
// and push events with emit.
type fakeClient struct {
	mu           sync.Mutex
	participants Participants
	devices      Devices
	inputs       InputSettings

	joins    []joinCall
	joinErr  error
	joinFunc func()
	leaves   int
	leaveErr error
	sent     [][]byte
	sendErr  error

	localObserver  bool
	remoteObserver bool

	events    chan Event
	closeOnce sync.Once
	closed    bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		events: make(chan Event, 64),
	}
}

func (c *fakeClient) emit(evt Event) {
	c.events <- evt
}

func (c *fakeClient) setParticipants(p Participants) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.participants = p
}

func (c *fakeClient) setDevices(d Devices) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.devices = d
}

func (c *fakeClient) setInputs(in InputSettings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs = in
}

func (c *fakeClient) sentMessages() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.sent...)
}

func (c *fakeClient) Join(_ context.Context, roomURL string, token string, settings *ClientSettings) error {
	c.mu.Lock()
	c.joins = append(c.joins, joinCall{roomURL: roomURL, token: token, settings: settings})
	err, fn := c.joinErr, c.joinFunc
	c.mu.Unlock()
	if err != nil {
		return err
	}
	if fn != nil {
		fn()
	}
	return nil
}

func (c *fakeClient) Leave(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaves++
	return c.leaveErr
}

func (c *fakeClient) Participants() Participants {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.participants
}

func (c *fakeClient) AvailableDevices() Devices {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.devices
}

func (c *fakeClient) Inputs() InputSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inputs
}

func (c *fakeClient) SetInputEnabled(_ context.Context, input InputKind, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch input {
	case InputCamera:
		c.inputs.Camera.IsEnabled = enabled
	case InputMicrophone:
		c.inputs.Microphone.IsEnabled = enabled
	}
	return nil
}

func (c *fakeClient) SetPreferredAudioDevice(_ context.Context, deviceID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs.Microphone.DeviceID = deviceID
	return nil
}

func (c *fakeClient) UpdateCameraDevice(_ context.Context, deviceID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs.Camera.DeviceID = deviceID
	return nil
}

func (c *fakeClient) SendAppMessage(_ context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, data)
	return nil
}

func (c *fakeClient) StartLocalAudioLevelObserver(context.Context, time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.localObserver = true
	return nil
}

func (c *fakeClient) StopLocalAudioLevelObserver(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.localObserver = false
	return nil
}

func (c *fakeClient) StartRemoteAudioLevelObserver(context.Context, time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remoteObserver = true
	return nil
}

func (c *fakeClient) StopRemoteAudioLevelObserver(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remoteObserver = false
	return nil
}

func (c *fakeClient) Events() <-chan Event {
	return c.events
}

func (c *fakeClient) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.events)
	})
	return nil
}

var _ CallClient = &fakeClient{}

func newTrack(t *testing.T, id string, mimeType string) MediaTrack {
	t.Helper()
	track, err := webrtc.NewTrackLocalStaticRTP(webrtc.RTPCodecCapability{MimeType: mimeType}, id, "stream-"+id)
	require.NoError(t, err)
	return track
}

func audioTrack(t *testing.T, id string) MediaTrack {
	return newTrack(t, id, webrtc.MimeTypeOpus)
}

func videoTrack(t *testing.T, id string) MediaTrack {
	return newTrack(t, id, webrtc.MimeTypeVP8)
}

func localParticipant(media *Media) *Participant {
	return &Participant{
		ID:    localID,
		Info:  ParticipantInfo{Username: "me", IsLocal: true},
		Media: media,
	}
}

func botParticipant(media *Media) Participant {
	return Participant{
		ID:    botID,
		Info:  ParticipantInfo{Username: "bot"},
		Media: media,
	}
}

func playable(track MediaTrack) TrackInfo {
	return TrackInfo{State: MediaStatePlayable, Track: track}
}

func loading(track MediaTrack) TrackInfo {
	return TrackInfo{State: MediaStateLoading, Track: track}
}
