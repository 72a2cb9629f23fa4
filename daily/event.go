package daily

// Event is a native call client callback. The concrete types below are the
// only implementations.
type Event interface {
	EventName() string
}

type ParticipantJoined struct {
	Participant Participant
}

type ParticipantUpdated struct {
	Participant Participant
}

type ParticipantLeft struct {
	Participant Participant
	Reason      string
}

type CallStateUpdated struct {
	State CallState
}

type LocalAudioLevel struct {
	Level float32
}

type RemoteAudioLevels struct {
	Levels map[ParticipantID]float32
}

type AvailableDevicesUpdated struct {
	Devices Devices
}

type InputsUpdated struct {
	Inputs InputSettings
}

type AppMessage struct {
	Data []byte
	From ParticipantID
}

func (ParticipantJoined) EventName() string { return "participant.joined" }
func (ParticipantUpdated) EventName() string { return "participant.updated" }
func (ParticipantLeft) EventName() string { return "participant.left" }
func (CallStateUpdated) EventName() string { return "call_state.updated" }
func (LocalAudioLevel) EventName() string { return "audio_level.local" }
func (RemoteAudioLevels) EventName() string { return "audio_level.remote" }
func (AvailableDevicesUpdated) EventName() string { return "devices.updated" }
func (InputsUpdated) EventName() string { return "inputs.updated" }
func (AppMessage) EventName() string { return "app_message.received" }
