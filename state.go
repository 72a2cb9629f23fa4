package rtvi

// TransportState is the connection state of a Transport as observed by the
// RTVI client core.
type TransportState string

const (
	TransportStateDisconnected  TransportState = "disconnected"
	TransportStateInitializing  TransportState = "initializing"
	TransportStateInitialized   TransportState = "initialized"
	TransportStateConnecting    TransportState = "connecting"
	TransportStateConnected     TransportState = "connected"
	TransportStateReady         TransportState = "ready"
	TransportStateDisconnecting TransportState = "disconnecting"
	TransportStateError         TransportState = "error"
)

var transitions = map[TransportState][]TransportState{
	TransportStateDisconnected:  {TransportStateInitializing, TransportStateConnecting},
	TransportStateInitializing:  {TransportStateInitialized},
	TransportStateInitialized:   {TransportStateConnecting},
	TransportStateConnecting:    {TransportStateConnected, TransportStateDisconnecting},
	TransportStateConnected:     {TransportStateReady, TransportStateDisconnecting},
	TransportStateReady:         {TransportStateDisconnecting},
	TransportStateDisconnecting: {TransportStateDisconnected},
	TransportStateError:         {TransportStateDisconnected, TransportStateInitializing, TransportStateConnecting},
}

// CanTransition reports whether moving from s to next is part of the
// documented transition graph. Any state may move to error.
func (s TransportState) CanTransition(next TransportState) bool {
	if next == TransportStateError || next == s {
		return true
	}
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// IsConnected is true for connected and ready.
func (s TransportState) IsConnected() bool {
	return s == TransportStateConnected || s == TransportStateReady
}

func (s TransportState) String() string {
	return string(s)
}
