package rtvi

import (
	"context"
	"time"
)

// TransportConnectionParams are backend specific connection parameters handed
// to Transport.Connect.
type TransportConnectionParams interface {
	TransportName() string
}

type ClientOptions struct {
	EnableMic bool
	EnableCam bool

	// ConnectTimeout bounds how long Connect waits for the call to report
	// connected. Zero waits only for the join request itself.
	ConnectTimeout time.Duration
}

// Transport is one calling backend's session lifecycle as seen by the RTVI
// client core.
type Transport interface {
	Initialize(opts ClientOptions)
	InitDevices(ctx context.Context) error
	Connect(ctx context.Context, params TransportConnectionParams) error
	Disconnect(ctx context.Context) error
	Release()

	State() TransportState
	SetState(state TransportState)
	Tracks() *Tracks

	GetAllMics() []MediaDeviceInfo
	GetAllCams() []MediaDeviceInfo
	GetAllSpeakers() []MediaDeviceInfo
	SelectedMic() *MediaDeviceInfo
	SelectedCam() *MediaDeviceInfo
	UpdateMic(ctx context.Context, id MediaDeviceID) error
	UpdateCam(ctx context.Context, id MediaDeviceID) error
	EnableMic(ctx context.Context, enable bool) error
	EnableCam(ctx context.Context, enable bool) error
	IsMicEnabled() bool
	IsCamEnabled() bool

	SendMessage(ctx context.Context, msg *MessageOutbound) error

	SetDelegate(d Delegate)
	OnMessage(fn func(msg *MessageInbound))
}
