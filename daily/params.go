package daily

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/babelforce/rtvi-go"
)

const TransportName = "daily"

var (
	roomURLKeys = []string{"room_url", "url", "dailyRoom"}
	tokenKeys   = []string{"token", "dailyToken"}
)

// ConnectionParams identify the room to join. They are usually decoded from
// the credentials document returned by a bot start endpoint.
type ConnectionParams struct {
	RoomURL string
	Token   *string

	// JoinSettings override the default join settings. The camera and
	// microphone enabled flags always follow the client options.
	JoinSettings *ClientSettings
}

func (p *ConnectionParams) TransportName() string {
	return TransportName
}

// WithJoinSettings returns a copy of p using settings when joining.
func (p *ConnectionParams) WithJoinSettings(settings *ClientSettings) *ConnectionParams {
	return &ConnectionParams{
		RoomURL:      p.RoomURL,
		Token:        p.Token,
		JoinSettings: settings,
	}
}

func (p *ConnectionParams) validate() (*url.URL, error) {
	if p == nil || p.RoomURL == "" {
		return nil, fmt.Errorf("%w: room url is empty", rtvi.ErrInvalidTransportParams)
	}
	u, err := url.Parse(p.RoomURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", rtvi.ErrInvalidTransportParams, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: room url %q is not absolute", rtvi.ErrInvalidTransportParams, p.RoomURL)
	}
	return u, nil
}

func (p *ConnectionParams) token() string {
	if p.Token == nil {
		return ""
	}
	return *p.Token
}

// UnmarshalJSON accepts the room url under room_url, url or dailyRoom and
// the token under token or dailyToken, trying aliases in that order. A key
// holding something other than a string is skipped.
func (p *ConnectionParams) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	roomURL, ok := firstString(fields, roomURLKeys)
	if !ok {
		return fmt.Errorf("%w: no valid key found for room url among %v", rtvi.ErrMissingRequiredField, roomURLKeys)
	}

	*p = ConnectionParams{RoomURL: roomURL}
	if token, ok := firstString(fields, tokenKeys); ok {
		p.Token = &token
	}
	return nil
}

func DecodeConnectionParams(data []byte) (*ConnectionParams, error) {
	var p ConnectionParams
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AuthBundle is the stricter credentials shape where the token is required.
type AuthBundle struct {
	RoomURL string
	Token   string
}

func (b *AuthBundle) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	roomURL, ok := firstString(fields, roomURLKeys)
	if !ok {
		return fmt.Errorf("%w: no valid key found for room url among %v", rtvi.ErrMissingRequiredField, roomURLKeys)
	}
	token, ok := firstString(fields, tokenKeys)
	if !ok {
		return fmt.Errorf("%w: no valid key found for token among %v", rtvi.ErrMissingRequiredField, tokenKeys)
	}

	*b = AuthBundle{RoomURL: roomURL, Token: token}
	return nil
}

func (b *AuthBundle) ConnectionParams() *ConnectionParams {
	token := b.Token
	return &ConnectionParams{RoomURL: b.RoomURL, Token: &token}
}

func DecodeAuthBundle(data []byte) (*AuthBundle, error) {
	var b AuthBundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func firstString(fields map[string]json.RawMessage, keys []string) (string, bool) {
	for _, k := range keys {
		raw, ok := fields[k]
		if !ok || string(raw) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s, true
		}
	}
	return "", false
}

var _ rtvi.TransportConnectionParams = &ConnectionParams{}
