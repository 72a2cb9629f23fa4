package daily

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"

	"github.com/babelforce/rtvi-go"
)

// CallClient is the surface of the native call client the transport drives.
// Getters return the client's current view of the call and must not block.
// Events delivers native callbacks in order; the channel is closed when the
// client is closed.
type CallClient interface {
	Join(ctx context.Context, roomURL string, token string, settings *ClientSettings) error
	Leave(ctx context.Context) error

	Participants() Participants
	AvailableDevices() Devices
	Inputs() InputSettings

	SetInputEnabled(ctx context.Context, input InputKind, enabled bool) error
	SetPreferredAudioDevice(ctx context.Context, deviceID string) error
	UpdateCameraDevice(ctx context.Context, deviceID string) error

	SendAppMessage(ctx context.Context, data []byte) error

	StartLocalAudioLevelObserver(ctx context.Context, interval time.Duration) error
	StopLocalAudioLevelObserver(ctx context.Context) error
	StartRemoteAudioLevelObserver(ctx context.Context, interval time.Duration) error
	StopRemoteAudioLevelObserver(ctx context.Context) error

	Events() <-chan Event
	Close() error
}

type ParticipantID uuid.UUID

func (id ParticipantID) String() string {
	return uuid.UUID(id).String()
}

func (id ParticipantID) toRtvi() rtvi.ParticipantID {
	return rtvi.ParticipantID(id.String())
}

func ParseParticipantID(s string) (ParticipantID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ParticipantID{}, err
	}
	return ParticipantID(u), nil
}

type ParticipantInfo struct {
	Username string
	IsLocal  bool
}

type MediaState string

const (
	MediaStateBlocked     MediaState = "blocked"
	MediaStateOff         MediaState = "off"
	MediaStateReceivable  MediaState = "receivable"
	MediaStateLoading     MediaState = "loading"
	MediaStatePlayable    MediaState = "playable"
	MediaStateInterrupted MediaState = "interrupted"
)

// MediaTrack is a native track handle. pion's *webrtc.TrackRemote and
// *webrtc.TrackLocalStaticRTP satisfy it.
type MediaTrack interface {
	ID() string
	Kind() webrtc.RTPCodecType
}

type TrackInfo struct {
	State MediaState
	Track MediaTrack
}

type Media struct {
	Microphone  TrackInfo
	Camera      TrackInfo
	ScreenAudio TrackInfo
	ScreenVideo TrackInfo
}

func (m *Media) track(c rtvi.MediaCategory) MediaTrack {
	if m == nil {
		return nil
	}
	switch c {
	case rtvi.MediaCategoryMicrophone:
		return m.Microphone.Track
	case rtvi.MediaCategoryCamera:
		return m.Camera.Track
	case rtvi.MediaCategoryScreenAudio:
		return m.ScreenAudio.Track
	case rtvi.MediaCategoryScreenVideo:
		return m.ScreenVideo.Track
	}
	return nil
}

type Participant struct {
	ID    ParticipantID
	Info  ParticipantInfo
	Media *Media
}

func (p *Participant) toRtvi() rtvi.Participant {
	return rtvi.Participant{
		ID:    p.ID.toRtvi(),
		Name:  p.Info.Username,
		Local: p.Info.IsLocal,
	}
}

func (p *Participant) microphonePlayable() bool {
	return p.Media != nil && p.Media.Microphone.State == MediaStatePlayable
}

// Participants is the native view of who is in the call. Remote participants
// are kept in join order.
type Participants struct {
	Local  *Participant
	Remote []Participant
}

// IsEmpty is true when there is neither a local nor a remote participant.
func (p Participants) IsEmpty() bool {
	return p.Local == nil && len(p.Remote) == 0
}

// Bot returns the first remote participant.
func (p Participants) Bot() *Participant {
	for i := range p.Remote {
		if !p.Remote[i].Info.IsLocal {
			return &p.Remote[i]
		}
	}
	return nil
}

type CallState string

const (
	CallStateInitialized CallState = "initialized"
	CallStateJoining     CallState = "joining"
	CallStateJoined      CallState = "joined"
	CallStateLeaving     CallState = "leaving"
	CallStateLeft        CallState = "left"
)

type Device struct {
	DeviceID string `json:"deviceId"`
	Label    string `json:"label"`
	Kind     string `json:"kind,omitempty"`
}

func (d Device) toRtvi() rtvi.MediaDeviceInfo {
	return rtvi.MediaDeviceInfo{
		ID:   rtvi.MediaDeviceID(d.DeviceID),
		Name: d.Label,
	}
}

type Devices struct {
	Camera     []Device `json:"camera"`
	Microphone []Device `json:"microphone"`
	Speaker    []Device `json:"speaker"`
}

type InputKind string

const (
	InputCamera     InputKind = "camera"
	InputMicrophone InputKind = "microphone"
)

type InputSetting struct {
	IsEnabled bool   `json:"isEnabled"`
	DeviceID  string `json:"deviceId,omitempty"`
}

type InputSettings struct {
	Camera     InputSetting `json:"camera"`
	Microphone InputSetting `json:"microphone"`
}

type InputSettingsUpdate struct {
	IsEnabled *bool   `json:"isEnabled,omitempty"`
	DeviceID  *string `json:"deviceId,omitempty"`
}

type InputsUpdate struct {
	Camera     *InputSettingsUpdate `json:"camera,omitempty"`
	Microphone *InputSettingsUpdate `json:"microphone,omitempty"`
}

// ClientSettings are the settings applied when joining a call.
type ClientSettings struct {
	Inputs *InputsUpdate `json:"inputs,omitempty"`
}

// mergeInputsEnabled returns a copy of s where the camera and microphone
// enabled flags are taken from the client options. Other input settings, such
// as device ids, are kept.
func (s *ClientSettings) mergeInputsEnabled(enableCam, enableMic bool) *ClientSettings {
	out := &ClientSettings{Inputs: &InputsUpdate{}}
	if s != nil && s.Inputs != nil {
		if s.Inputs.Camera != nil {
			c := *s.Inputs.Camera
			out.Inputs.Camera = &c
		}
		if s.Inputs.Microphone != nil {
			m := *s.Inputs.Microphone
			out.Inputs.Microphone = &m
		}
	}
	if out.Inputs.Camera == nil {
		out.Inputs.Camera = &InputSettingsUpdate{}
	}
	if out.Inputs.Microphone == nil {
		out.Inputs.Microphone = &InputSettingsUpdate{}
	}
	out.Inputs.Camera.IsEnabled = &enableCam
	out.Inputs.Microphone.IsEnabled = &enableMic
	return out
}
