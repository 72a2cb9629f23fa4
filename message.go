package rtvi

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/babelforce/rtvi-go/proto"
)

const (
	MessageLabel    = "rtvi-ai"
	ProtocolVersion = "0.3.0"
	LibraryName     = "rtvi-go"
	LibraryVersion  = "0.1.0"
)

const (
	MessageTypeClientReady = "client-ready"
	MessageTypeBotReady    = "bot-ready"
	MessageTypeError       = "error"
)

// MessageOutbound is a control message sent from the client to the bot.
type MessageOutbound struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
}

// MessageInbound is a control message received from the bot. Data is kept raw
// so the client core can decode it per message type.
type MessageInbound struct {
	ID    string          `json:"id,omitempty"`
	Label string          `json:"label"`
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type AboutClient struct {
	Library         string `json:"library"`
	LibraryVersion  string `json:"library_version"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platform_version,omitempty"`
}

type ClientReadyData struct {
	Version string      `json:"version"`
	About   AboutClient `json:"about"`
}

func NewMessage(msgType string, data any) *MessageOutbound {
	return &MessageOutbound{
		ID:    proto.ID(),
		Label: MessageLabel,
		Type:  msgType,
		Data:  data,
	}
}

// NewClientReadyMessage creates the signal telling the bot that the client
// can play its audio.
func NewClientReadyMessage() *MessageOutbound {
	return NewMessage(MessageTypeClientReady, &ClientReadyData{
		Version: ProtocolVersion,
		About: AboutClient{
			Library:         LibraryName,
			LibraryVersion:  LibraryVersion,
			Platform:        runtime.GOOS,
			PlatformVersion: runtime.Version(),
		},
	})
}

// DecodeMessage parses raw as an RTVI control message. Payloads which are not
// JSON objects carrying the rtvi label and a type return ErrNotRTVIMessage.
func DecodeMessage(raw []byte) (*MessageInbound, error) {
	var msg MessageInbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotRTVIMessage, err)
	}
	if msg.Label != MessageLabel {
		return nil, fmt.Errorf("%w: label %q", ErrNotRTVIMessage, msg.Label)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrNotRTVIMessage)
	}
	return &msg, nil
}
