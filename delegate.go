package rtvi

// Delegate receives the callbacks a Transport emits. Implementations must not
// call back into the Transport synchronously from OnTransportStateChanged
// while holding their own locks.
type Delegate interface {
	OnTransportStateChanged(state TransportState)
	OnConnected()
	OnDisconnected()

	OnParticipantJoined(participant Participant)
	OnParticipantLeft(participant Participant)
	OnBotConnected(participant Participant)
	OnBotDisconnected(participant Participant)

	OnUserStartedSpeaking()
	OnUserStoppedSpeaking()
	OnBotStartedSpeaking()
	OnBotStoppedSpeaking()
	OnLocalAudioLevel(level float32)
	OnRemoteAudioLevel(level float32, participant Participant)

	OnTrackStarted(track MediaStreamTrack, participant *Participant)
	OnTrackStopped(track MediaStreamTrack, participant *Participant)
	OnScreenTrackStarted(track MediaStreamTrack, participant *Participant)
	OnScreenTrackStopped(track MediaStreamTrack, participant *Participant)

	OnAvailableCamsUpdated(cams []MediaDeviceInfo)
	OnAvailableMicsUpdated(mics []MediaDeviceInfo)
	OnAvailableSpeakersUpdated(speakers []MediaDeviceInfo)
	OnCamUpdated(cam *MediaDeviceInfo)
	OnMicUpdated(mic *MediaDeviceInfo)
	OnSpeakerUpdated(speaker *MediaDeviceInfo)

	OnError(err error)
}

// NopDelegate implements Delegate with no-ops. Embed it to implement only the
// callbacks you care about.
type NopDelegate struct{}

func (NopDelegate) OnTransportStateChanged(TransportState) {}
func (NopDelegate) OnConnected() {}
func (NopDelegate) OnDisconnected() {}
func (NopDelegate) OnParticipantJoined(Participant) {}
func (NopDelegate) OnParticipantLeft(Participant) {}
func (NopDelegate) OnBotConnected(Participant) {}
func (NopDelegate) OnBotDisconnected(Participant) {}
func (NopDelegate) OnUserStartedSpeaking() {}
func (NopDelegate) OnUserStoppedSpeaking() {}
func (NopDelegate) OnBotStartedSpeaking() {}
func (NopDelegate) OnBotStoppedSpeaking() {}
func (NopDelegate) OnLocalAudioLevel(float32) {}
func (NopDelegate) OnRemoteAudioLevel(float32, Participant) {}
func (NopDelegate) OnTrackStarted(MediaStreamTrack, *Participant) {}
func (NopDelegate) OnTrackStopped(MediaStreamTrack, *Participant) {}
func (NopDelegate) OnScreenTrackStarted(MediaStreamTrack, *Participant) {}
func (NopDelegate) OnScreenTrackStopped(MediaStreamTrack, *Participant) {}
func (NopDelegate) OnAvailableCamsUpdated([]MediaDeviceInfo) {}
func (NopDelegate) OnAvailableMicsUpdated([]MediaDeviceInfo) {}
func (NopDelegate) OnAvailableSpeakersUpdated([]MediaDeviceInfo) {}
func (NopDelegate) OnCamUpdated(*MediaDeviceInfo) {}
func (NopDelegate) OnMicUpdated(*MediaDeviceInfo) {}
func (NopDelegate) OnSpeakerUpdated(*MediaDeviceInfo) {}
func (NopDelegate) OnError(error) {}

var _ Delegate = NopDelegate{}
