package sidecar

import (
	"encoding/json"

	"github.com/babelforce/rtvi-go/daily"
)

type namedRequest interface {
	MethodName() string
}

type namedEvent interface {
	EventName() string
}

// requests

type callStateRequest struct{}

func (callStateRequest) MethodName() string { return "call.state" }

type joinRequest struct {
	URL      string                `json:"url"`
	Token    string                `json:"token,omitempty"`
	Settings *daily.ClientSettings `json:"settings,omitempty"`
}

func (joinRequest) MethodName() string { return "call.join" }

type leaveRequest struct{}

func (leaveRequest) MethodName() string { return "call.leave" }

type setInputEnabledRequest struct {
	Input   daily.InputKind `json:"input"`
	Enabled bool            `json:"enabled"`
}

func (setInputEnabledRequest) MethodName() string { return "inputs.set_enabled" }

type setPreferredAudioDeviceRequest struct {
	DeviceID string `json:"deviceId"`
}

func (setPreferredAudioDeviceRequest) MethodName() string { return "audio.set_preferred_device" }

type updateCameraRequest struct {
	DeviceID string `json:"deviceId"`
}

func (updateCameraRequest) MethodName() string { return "inputs.update_camera" }

type sendAppMessageRequest struct {
	Data json.RawMessage `json:"data"`
	To   string          `json:"to"`
}

func (sendAppMessageRequest) MethodName() string { return "app_message.send" }

type observeAudioLevelRequest struct {
	Scope      string `json:"scope"` // "local" | "remote"
	Enabled    bool   `json:"enabled"`
	IntervalMs int64  `json:"intervalMs,omitempty"`
}

func (observeAudioLevelRequest) MethodName() string { return "audio_level.observe" }

// callSnapshot is returned by call.state and call.join.
type callSnapshot struct {
	Participants []wireParticipant    `json:"participants,omitempty"`
	Devices      *daily.Devices       `json:"devices,omitempty"`
	Inputs       *daily.InputSettings `json:"inputs,omitempty"`
}

// events

type participantJoinedEvent struct {
	Participant wireParticipant `json:"participant"`
}

func (participantJoinedEvent) EventName() string { return "participant.joined" }

type participantUpdatedEvent struct {
	Participant wireParticipant `json:"participant"`
}

func (participantUpdatedEvent) EventName() string { return "participant.updated" }

type participantLeftEvent struct {
	Participant wireParticipant `json:"participant"`
	Reason      string          `json:"reason,omitempty"`
}

func (participantLeftEvent) EventName() string { return "participant.left" }

type callStateUpdatedEvent struct {
	State daily.CallState `json:"state"`
}

func (callStateUpdatedEvent) EventName() string { return "call_state.updated" }

type localAudioLevelEvent struct {
	Level float32 `json:"level"`
}

func (localAudioLevelEvent) EventName() string { return "audio_level.local" }

type remoteAudioLevelEvent struct {
	Levels map[string]float32 `json:"levels"`
}

func (remoteAudioLevelEvent) EventName() string { return "audio_level.remote" }

type devicesUpdatedEvent struct {
	Devices daily.Devices `json:"devices"`
}

func (devicesUpdatedEvent) EventName() string { return "devices.updated" }

type inputsUpdatedEvent struct {
	Inputs daily.InputSettings `json:"inputs"`
}

func (inputsUpdatedEvent) EventName() string { return "inputs.updated" }

type appMessageReceivedEvent struct {
	Data json.RawMessage `json:"data"`
	From string          `json:"from"`
}

func (appMessageReceivedEvent) EventName() string { return "app_message.received" }

// participants

type wireTrack struct {
	State   daily.MediaState `json:"state,omitempty"`
	TrackID string           `json:"trackId,omitempty"`
}

type wireMedia struct {
	Microphone  wireTrack `json:"microphone"`
	Camera      wireTrack `json:"camera"`
	ScreenAudio wireTrack `json:"screenAudio"`
	ScreenVideo wireTrack `json:"screenVideo"`
}

type wireParticipant struct {
	ID       string     `json:"id"`
	Username string     `json:"username,omitempty"`
	Local    bool       `json:"local"`
	Media    *wireMedia `json:"media,omitempty"`
}
